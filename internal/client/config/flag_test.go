package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseFlags_Overrides(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cli", "-a", "http://example.com:9999", "-i", "5"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	want := &Config{
		ServerEndpointAddr: "http://example.com:9999",
		RequestTimeout:     5 * time.Second,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFlags_IgnoresUnknownFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cli", "-z", "whatever", "-a", "http://example.com:9999"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	if cfg.ServerEndpointAddr != "http://example.com:9999" {
		t.Errorf("ServerEndpointAddr: got %q", cfg.ServerEndpointAddr)
	}
}
