package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func setDefaults() {
	viper.Reset()
	viper.Set("outdir", "/data/out")
	viper.Set("workers", 4)
	viper.Set("retries", 3)
	viper.Set("retry-interval", 500*time.Millisecond)
}

func TestNew(t *testing.T) {
	setDefaults()
	viper.Set("dest", "https://bucket.example.com/reads")
	viper.Set("interleave", true)
	t.Cleanup(viper.Reset)

	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.OutDir != "/data/out" {
		t.Errorf("OutDir = %q", c.OutDir)
	}
	if c.Dest != "https://bucket.example.com/reads" {
		t.Errorf("Dest = %q", c.Dest)
	}
	if c.Workers != 4 || c.Retries != 3 {
		t.Errorf("Workers = %d, Retries = %d", c.Workers, c.Retries)
	}
	if !c.Interleave {
		t.Error("Interleave not set")
	}
	if c.RetryInterval != 500*time.Millisecond {
		t.Errorf("RetryInterval = %v", c.RetryInterval)
	}
}

func TestNewRequiresOutDir(t *testing.T) {
	setDefaults()
	viper.Set("outdir", "")
	t.Cleanup(viper.Reset)

	if _, err := New(); err == nil {
		t.Fatal("expected an error without an output directory")
	}
}

func TestNewRejectsZeroWorkers(t *testing.T) {
	setDefaults()
	viper.Set("workers", 0)
	t.Cleanup(viper.Reset)

	if _, err := New(); err == nil {
		t.Fatal("expected an error for zero workers")
	}
}
