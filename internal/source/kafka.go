package source

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// messageConsumer abstracts ck.Consumer for testability.
type messageConsumer interface {
	ReadMessage(timeout time.Duration) (*ck.Message, error)
	Commit() ([]ck.TopicPartition, error)
}

// KafkaConfig configures a KafkaSource.
type KafkaConfig struct {
	Bootstrap string
	GroupID   string
	Topic     string
	// Max caps the batch size. Zero means no cap.
	Max int
	// Idle ends the batch when no message arrives for this long.
	Idle time.Duration
}

// KafkaSource reads one batch of record lines from a topic. Each message value
// is one line. Offsets are committed once the whole batch has been read.
type KafkaSource struct {
	consumer messageConsumer
	closer   func()
	max      int
	idle     time.Duration
}

func NewKafkaSource(cfg KafkaConfig) (*KafkaSource, error) {
	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers":  cfg.Bootstrap,
		"group.id":           cfg.GroupID,
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
		"auto.offset.reset":  "earliest",
	})
	if err != nil {
		return nil, errors.Wrap(err, "consumer")
	}
	if err := c.SubscribeTopics([]string{cfg.Topic}, nil); err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "subscribe")
	}
	s := NewKafkaSourceWith(c, cfg.Max, cfg.Idle)
	s.closer = func() { _ = c.Close() }
	return s, nil
}

// NewKafkaSourceWith is only for tests to inject a fake consumer.
func NewKafkaSourceWith(c messageConsumer, max int, idle time.Duration) *KafkaSource {
	if idle <= 0 {
		idle = 5 * time.Second
	}
	return &KafkaSource{consumer: c, max: max, idle: idle}
}

func (k *KafkaSource) ReadBatch(ctx context.Context) ([]string, error) {
	var lines []string
	for k.max == 0 || len(lines) < k.max {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := k.consumer.ReadMessage(k.idle)
		if err != nil {
			var kerr ck.Error
			if errors.As(err, &kerr) && kerr.Code() == ck.ErrTimedOut {
				break
			}
			return nil, errors.Wrap(err, "read message")
		}
		lines = append(lines, string(msg.Value))
	}
	if len(lines) > 0 {
		if _, err := k.consumer.Commit(); err != nil {
			return nil, errors.Wrap(err, "commit offsets")
		}
	}
	return lines, nil
}

func (k *KafkaSource) Close() {
	if k.closer != nil {
		k.closer()
	}
}
