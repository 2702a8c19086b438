package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FeedKind selects how an exchange pipeline receives its events.
type FeedKind string

const (
	FeedBitstamp FeedKind = "bitstamp"
	FeedKafka    FeedKind = "kafka"
)

type Exchange struct {
	Name string   `yaml:"name"`
	Feed FeedKind `yaml:"feed"`
	// Bitstamp feed.
	URL  string `yaml:"url"`
	Pair string `yaml:"pair"`
	// Kafka feed.
	Topic string `yaml:"topic"`
	Group string `yaml:"group"`
}

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		GRPCAddr  string `yaml:"grpc_addr"`
		AdminAddr string `yaml:"admin_addr"`
	} `yaml:"server"`
	Summary struct {
		Depth      int `yaml:"depth"`
		IntervalMs int `yaml:"interval_ms"`
	} `yaml:"summary"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		SummaryTopic string   `yaml:"summary_topic"`
	} `yaml:"kafka"`
	Exchanges []Exchange `yaml:"exchanges"`
}

func (c Config) SummaryInterval() time.Duration {
	return time.Duration(c.Summary.IntervalMs) * time.Millisecond
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.GRPCAddr = ":50051"
	c.Server.AdminAddr = ":9090"
	c.Summary.Depth = 10
	c.Summary.IntervalMs = 1000
	c.Kafka.Enabled = false
	c.Kafka.Brokers = []string{"localhost:9092"}
	c.Kafka.SummaryTopic = "book-summaries"
	c.Exchanges = []Exchange{
		{Name: "bitstamp", Feed: FeedBitstamp, URL: "wss://ws.bitstamp.net", Pair: "btcusd"},
	}
	return c
}

// Load builds the configuration from defaults, an optional YAML file
// pointed at by BOOKFEED_CONFIG, and env overrides, in that order.
func Load() Config {
	c := defaultConfig()
	if path := os.Getenv("BOOKFEED_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	if v := os.Getenv("BOOKFEED_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BOOKFEED_GRPC_ADDR"); v != "" {
		c.Server.GRPCAddr = v
	}
	if v := os.Getenv("BOOKFEED_ADMIN_ADDR"); v != "" {
		c.Server.AdminAddr = v
	}
	if v := os.Getenv("BOOKFEED_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	return c
}
