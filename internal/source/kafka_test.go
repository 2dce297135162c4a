package source

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConsumer implements messageConsumer for tests.
type fakeConsumer struct {
	values  []string
	err     error
	commits int
}

func (f *fakeConsumer) ReadMessage(time.Duration) (*ck.Message, error) {
	if len(f.values) == 0 {
		if f.err != nil {
			return nil, f.err
		}
		return nil, ck.NewError(ck.ErrTimedOut, "timed out", false)
	}
	v := f.values[0]
	f.values = f.values[1:]
	return &ck.Message{Value: []byte(v)}, nil
}

func (f *fakeConsumer) Commit() ([]ck.TopicPartition, error) {
	f.commits++
	return nil, nil
}

func TestKafkaSource_ReadsUntilIdle(t *testing.T) {
	fc := &fakeConsumer{values: []string{"a", "b"}}
	lines, err := NewKafkaSourceWith(fc, 0, time.Millisecond).ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
	assert.Equal(t, 1, fc.commits)
}

func TestKafkaSource_StopsAtMax(t *testing.T) {
	fc := &fakeConsumer{values: []string{"a", "b", "c"}}
	lines, err := NewKafkaSourceWith(fc, 2, time.Millisecond).ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestKafkaSource_EmptyBatchSkipsCommit(t *testing.T) {
	fc := &fakeConsumer{}
	lines, err := NewKafkaSourceWith(fc, 0, time.Millisecond).ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Zero(t, fc.commits)
}

func TestKafkaSource_ReadError(t *testing.T) {
	fc := &fakeConsumer{err: errors.New("broker down")}
	_, err := NewKafkaSourceWith(fc, 0, time.Millisecond).ReadBatch(context.Background())
	assert.Error(t, err)
	assert.Zero(t, fc.commits)
}
