package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"dealguard/internal/batch"
)

// Config holds settings for the dealguard CLI.
type Config struct {
	Environment string

	InputSource string // stdin|file|kafka
	InputFile   string

	IndexBackend string // memory|pebble|badger
	IndexDir     string
	SnapshotDir  string

	// OutputOrder is first-flag or id.
	OutputOrder string

	KafkaBootstrap string
	GroupID        string
	TopicOrders    string
	TopicAlerts    string
	TopicReports   string
	KafkaMax       int
	KafkaIdle      time.Duration

	AlertFile   string
	ReportDir   string
	MetricsAddr string
	LastReport  bool
}

// Load reads .env (if present) and the environment for defaults, then lets
// flags on fs override them.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	fs.StringVar(&cfg.Environment, "env", getEnv("DEALGUARD_ENV", "development"), "development|production")
	fs.StringVar(&cfg.InputSource, "input-source", getEnv("DEALGUARD_INPUT_SOURCE", "stdin"), "stdin|file|kafka")
	fs.StringVar(&cfg.InputFile, "input", getEnv("DEALGUARD_INPUT_FILE", ""), "batch file when input-source=file")
	fs.StringVar(&cfg.IndexBackend, "index-backend", getEnv("DEALGUARD_INDEX_BACKEND", "memory"), "memory|pebble|badger")
	fs.StringVar(&cfg.IndexDir, "index-dir", getEnv("DEALGUARD_INDEX_DIR", os.TempDir()), "parent dir for disk index backends")
	fs.StringVar(&cfg.SnapshotDir, "index-snapshot-dir", getEnv("DEALGUARD_INDEX_SNAPSHOT_DIR", ""), "dump each run's anchor index here (disabled when empty)")
	fs.StringVar(&cfg.OutputOrder, "order", getEnv("DEALGUARD_ORDER", "first-flag"), "output order: first-flag|id")
	fs.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", getEnv("DEALGUARD_KAFKA_BOOTSTRAP", ""), "kafka bootstrap servers, e.g. localhost:9092")
	fs.StringVar(&cfg.GroupID, "group-id", getEnv("DEALGUARD_GROUP_ID", "dealguard"), "consumer group id")
	fs.StringVar(&cfg.TopicOrders, "topic-orders", getEnv("DEALGUARD_TOPIC_ORDERS", "dealguard.orders"), "kafka topic with order lines")
	fs.StringVar(&cfg.TopicAlerts, "topic-alerts", getEnv("DEALGUARD_TOPIC_ALERTS", ""), "kafka topic for alerts (disabled when empty)")
	fs.StringVar(&cfg.TopicReports, "topic-reports", getEnv("DEALGUARD_TOPIC_REPORTS", ""), "compacted kafka topic for run reports (disabled when empty)")
	fs.IntVar(&cfg.KafkaMax, "kafka-max", getEnvAsInt("DEALGUARD_KAFKA_MAX", 0), "max records per kafka batch, 0 for no cap")
	fs.DurationVar(&cfg.KafkaIdle, "kafka-idle", getEnvAsDuration("DEALGUARD_KAFKA_IDLE", 5*time.Second), "end kafka batch after this idle time")
	fs.StringVar(&cfg.AlertFile, "alert-file", getEnv("DEALGUARD_ALERT_FILE", ""), "JSON lines alert file (disabled when empty)")
	fs.StringVar(&cfg.ReportDir, "report-dir", getEnv("DEALGUARD_REPORT_DIR", ""), "directory for report.latest.json (disabled when empty)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", getEnv("DEALGUARD_METRICS_ADDR", ""), "listen address for /metrics (disabled when empty)")
	fs.BoolVar(&cfg.LastReport, "last-report", false, "print the latest run report from report-dir and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	switch cfg.OutputOrder {
	case batch.OrderFirstFlag, batch.OrderByID:
	default:
		return Config{}, errors.Newf("unknown output order %q, want %s or %s", cfg.OutputOrder, batch.OrderFirstFlag, batch.OrderByID)
	}
	return cfg, nil
}

// Brokers splits KafkaBootstrap into host:port entries, dropping blanks.
func (c Config) Brokers() []string {
	var brokers []string
	for _, a := range strings.Split(c.KafkaBootstrap, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			brokers = append(brokers, a)
		}
	}
	return brokers
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
