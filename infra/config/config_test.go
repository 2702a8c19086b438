package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c := Load()
	if c.Server.GRPCAddr != ":50051" {
		t.Errorf("default grpc addr: %q", c.Server.GRPCAddr)
	}
	if c.Summary.Depth != 10 || c.SummaryInterval() != time.Second {
		t.Errorf("default summary settings: depth=%d interval=%v", c.Summary.Depth, c.SummaryInterval())
	}
	if len(c.Exchanges) != 1 || c.Exchanges[0].Feed != FeedBitstamp {
		t.Errorf("default exchanges: %+v", c.Exchanges)
	}
	if c.Kafka.Enabled {
		t.Error("kafka should be disabled by default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOOKFEED_LOG_LEVEL", "debug")
	t.Setenv("BOOKFEED_GRPC_ADDR", ":6000")
	t.Setenv("BOOKFEED_KAFKA_BROKERS", "k1:9092,k2:9092")

	c := Load()
	if c.Logging.Level != "debug" {
		t.Errorf("log level override: %q", c.Logging.Level)
	}
	if c.Server.GRPCAddr != ":6000" {
		t.Errorf("grpc addr override: %q", c.Server.GRPCAddr)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Errorf("kafka broker override: %+v", c.Kafka)
	}
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
summary:
  depth: 3
  interval_ms: 250
exchanges:
  - name: bitstamp
    feed: bitstamp
    url: wss://ws.bitstamp.net
    pair: ethusd
  - name: internal
    feed: kafka
    topic: book-events
    group: bookfeed
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOOKFEED_CONFIG", path)

	c := Load()
	if c.Summary.Depth != 3 || c.SummaryInterval() != 250*time.Millisecond {
		t.Errorf("summary from file: %+v", c.Summary)
	}
	if len(c.Exchanges) != 2 || c.Exchanges[1].Feed != FeedKafka || c.Exchanges[1].Topic != "book-events" {
		t.Errorf("exchanges from file: %+v", c.Exchanges)
	}
}
