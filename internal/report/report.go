// Package report publishes a summary of each detection run.
package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
)

const latestFile = "report.latest.json"

// DefaultKey is the record key used on the compacted reports topic.
const DefaultKey = "dealguard-report-latest"

type Report struct {
	RunID            string `json:"runId"`
	Records          int    `json:"records"`
	Flagged          int    `json:"flagged"`
	FlaggedIDs       []int  `json:"flaggedIds"`
	EmailConflicts   int    `json:"emailConflicts"`
	AddressConflicts int    `json:"addressConflicts"`
	IndexKeys        int    `json:"indexKeys"`
	DurationMillis   int64  `json:"durationMillis"`
	CreatedAt        int64  `json:"createdAt"`
}

type Publisher interface {
	Publish(r Report) error
}

type Reader interface {
	ReadLatest() (Report, error)
}

// NopPublisher drops reports.
type NopPublisher struct{}

func (NopPublisher) Publish(Report) error { return nil }

// MultiPublisherImpl writes to multiple publishers sequentially.
type MultiPublisherImpl struct {
	pubs []Publisher
}

func MultiPublisher(pubs ...Publisher) Publisher {
	return &MultiPublisherImpl{pubs: pubs}
}

func (m *MultiPublisherImpl) Publish(r Report) error {
	for _, p := range m.pubs {
		if err := p.Publish(r); err != nil {
			return err
		}
	}
	return nil
}

// FilesystemReport keeps the latest report as JSON in baseDir.
type FilesystemReport struct {
	baseDir string
}

func NewFilesystemReport(baseDir string) *FilesystemReport {
	return &FilesystemReport{baseDir: baseDir}
}

func (f *FilesystemReport) Publish(r Report) error {
	if err := os.MkdirAll(f.baseDir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UTC().Unix()
	}
	// Write to a temp file first so readers never see a partial report.
	tmp, err := os.CreateTemp(f.baseDir, latestFile+".*")
	if err != nil {
		return errors.Wrap(err, "create")
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "encode")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "close")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(f.baseDir, latestFile)); err != nil {
		return errors.Wrap(err, "rename")
	}
	return nil
}

func (f *FilesystemReport) ReadLatest() (Report, error) {
	data, err := os.ReadFile(filepath.Join(f.baseDir, latestFile))
	if err != nil {
		return Report{}, errors.Wrap(err, "read report")
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, errors.Wrap(err, "unmarshal report")
	}
	return r, nil
}

// KafkaReport publishes reports as records on a compacted topic under one key.
type KafkaReport struct {
	writer kafkaMessageWriter
	key    []byte
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaReport creates a Kafka report publisher for the given brokers.
func NewKafkaReport(brokers []string, topic string, key string) *KafkaReport {
	return &KafkaReport{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}, key: []byte(key)}
}

// NewKafkaReportWith is only for tests to inject a fake writer.
func NewKafkaReportWith(w kafkaMessageWriter, key string) *KafkaReport {
	return &KafkaReport{writer: w, key: []byte(key)}
}

func (k *KafkaReport) Publish(r Report) error {
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UTC().Unix()
	}
	b, err := json.Marshal(&r)
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return k.writer.WriteMessages(ctx, kafka.Message{Key: k.key, Value: b})
}
