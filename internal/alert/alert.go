// Package alert ships one record per credential conflict to file or Kafka.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"

	"dealguard/internal/detect"
)

// Alert is a detected conflict tagged with the run that found it.
type Alert struct {
	RunID string `json:"runId"`
	detect.Alert
	TS int64 `json:"ts"`
}

// Key identifies the flagged order within its deal.
func (a Alert) Key() string {
	return fmt.Sprintf("%d#%d", a.DealID, a.OrderID)
}

type Writer interface {
	Append(a Alert) error
}

// NopWriter drops alerts.
type NopWriter struct{}

func (NopWriter) Append(Alert) error { return nil }

// MultiWriter fans out writes to multiple underlying writers.
type MultiWriter struct {
	writers []Writer
}

func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

func (m *MultiWriter) Append(a Alert) error {
	for _, w := range m.writers {
		if err := w.Append(a); err != nil {
			return err
		}
	}
	return nil
}

// FileWriter appends alerts as JSON lines.
type FileWriter struct {
	path string
}

func NewFileWriter(path string) (*FileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "mkdir")
	}
	return &FileWriter{path: path}, nil
}

func (w *FileWriter) Append(a Alert) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(&a); err != nil {
		return errors.Wrap(err, "encode")
	}
	return nil
}

// KafkaWriter publishes alerts to a Kafka topic keyed by deal#order.
type KafkaWriter struct {
	writer  kafkaMessageWriter
	timeout time.Duration
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter creates a Kafka writer for the given host:port brokers.
func NewKafkaWriter(brokers []string, topic string) *KafkaWriter {
	return &KafkaWriter{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}, timeout: 10 * time.Second}
}

// NewKafkaWriterWith is only for tests to inject a fake writer.
func NewKafkaWriterWith(w kafkaMessageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w, timeout: time.Second}
}

func (k *KafkaWriter) Append(a Alert) error {
	b, err := json.Marshal(&a)
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(a.Key()), Value: b})
}
