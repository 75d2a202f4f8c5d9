package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/trails/config"
)

func init() {
	config.MustInit("")
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("", NewRunID())
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = (%v, %v), want (nil, nil)", om, err)
	}
	// Nil manager methods are no-ops
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerRejectsBadRunID(t *testing.T) {
	if _, err := NewOutputManager(t.TempDir(), "not-a-uuid"); err == nil {
		t.Error("expected error for invalid run id")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	runID := NewRunID()
	om, err := NewOutputManager(dir, runID)
	if err != nil {
		t.Fatal(err)
	}

	for tick := int64(120); tick <= 360; tick += 120 {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: tick, Mode: "flow", Particles: 6400}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 120); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteEvent(NewEvent(EventModeChange, 42, "swirl", "")); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(config.Cfg()); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var rows []WindowStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (header written once)", len(rows))
	}
	for i, r := range rows {
		if r.RunID != runID {
			t.Errorf("row %d run id = %q, want %q", i, r.RunID, runID)
		}
		if r.WindowEndTick != int64(120*(i+1)) {
			t.Errorf("row %d window end = %d", i, r.WindowEndTick)
		}
	}

	events, err := os.ReadFile(filepath.Join(dir, "events.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(events), "mode_change") {
		t.Errorf("events.csv missing mode change: %s", events)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}
