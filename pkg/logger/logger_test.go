package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, &Config{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Debug("hidden")
	l.Info("forecast ready", Int("horizon", 12), Float64("peak", 41.5), String("location", "nakuru"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be filtered at info level: %s", out)
	}
	for _, want := range []string{`"horizon":12`, `"peak":41.5`, `"location":"nakuru"`, `"message":"forecast ready"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := NewWithWriter(&bytes.Buffer{}, &Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

type chanPublisher struct {
	got chan []AggregatedLogEntry
}

func (p *chanPublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.got <- payload.([]AggregatedLogEntry)
	return nil
}

func TestCollectorAggregatesRepeatedErrors(t *testing.T) {
	pub := &chanPublisher{got: make(chan []AggregatedLogEntry, 1)}
	l, err := NewWithWriter(&bytes.Buffer{}, &Config{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		l.Error("sync failed", Error(boom))
	}
	l.RemoveCollector()

	select {
	case batch := <-pub.got:
		if len(batch) != 1 {
			t.Fatalf("expected 1 aggregated entry, got %d", len(batch))
		}
		if batch[0].Count != 2 {
			t.Fatalf("expected count 2, got %d", batch[0].Count)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("collector did not publish on close")
	}
}
