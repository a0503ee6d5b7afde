package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureMetricsRecorder struct {
	mu       sync.Mutex
	counters []capturedMetric
	observed []capturedMetric
}

type capturedMetric struct {
	name  string
	value float64
	tags  map[string]string
}

func (r *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, capturedMetric{name: name, value: float64(value), tags: tags})
}

func (r *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed = append(r.observed, capturedMetric{name: name, value: value, tags: tags})
}

func (r *captureMetricsRecorder) counter(name string, status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, metric := range r.counters {
		if metric.name == name && metric.tags["status"] == status {
			total += int(metric.value)
		}
	}
	return total
}

type captureLogger struct {
	stubLogger
	mu      *sync.Mutex
	entries *[]capturedLog
}

type capturedLog struct {
	level   string
	message string
	args    []any
}

func newCaptureLogger() captureLogger {
	return captureLogger{mu: &sync.Mutex{}, entries: &[]capturedLog{}}
}

func (l captureLogger) record(level string, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, capturedLog{level: level, message: msg, args: args})
}

func (l captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l captureLogger) Error(msg string, args ...any) { l.record("error", msg, args) }
func (l captureLogger) WithContext(context.Context) Logger {
	return l
}

func (l captureLogger) levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	levels := make([]string, 0, len(*l.entries))
	for _, entry := range *l.entries {
		levels = append(levels, entry.level)
	}
	return levels
}

func TestRegistry_RecordsOperationMetrics(t *testing.T) {
	ctx := context.Background()
	recorder := &captureMetricsRecorder{}
	registry, err := newTestRegistry(Config{ManagementMode: ManagementModeSingle}, newMemoryKV(), newMemoryVault(),
		WithMetricsRecorder(recorder))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if _, err := registry.NewAccount(ctx); err != nil {
		t.Fatalf("new account: %v", err)
	}
	if _, err := registry.NewAccount(ctx); err == nil {
		t.Fatalf("expected single mode conflict")
	}

	if got := recorder.counter("accounts.new_account.total", "success"); got != 1 {
		t.Fatalf("expected one success counter, got %d", got)
	}
	if got := recorder.counter("accounts.new_account.total", "failure"); got != 1 {
		t.Fatalf("expected one failure counter, got %d", got)
	}
	if len(recorder.observed) != 2 {
		t.Fatalf("expected duration histogram per operation, got %d", len(recorder.observed))
	}
	if mode := recorder.observed[0].tags["management_mode"]; mode != string(ManagementModeSingle) {
		t.Fatalf("expected management_mode tag, got %q", mode)
	}
}

func TestInstrumentation_LogsByOutcome(t *testing.T) {
	logger := newCaptureLogger()
	in := instrumentation{logger: logger, metricsRecorder: NopMetricsRecorder{}}

	in.observeOperation(context.Background(), time.Now(), "Set Current-Account", nil, nil)
	in.observeOperation(context.Background(), time.Now(), "set_current_account", errors.New("boom"), nil)
	in.logWarn(context.Background(), "mode mismatch", map[string]any{"stored_mode": "single"})

	levels := logger.levels()
	expected := []string{"info", "error", "warn"}
	if len(levels) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, levels)
	}
	for i := range expected {
		if levels[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, levels)
		}
	}
	first := (*logger.entries)[0]
	if first.message != "set_current_account succeeded" {
		t.Fatalf("expected normalized operation name, got %q", first.message)
	}
}

func TestFlattenFields_SortsKeys(t *testing.T) {
	args := flattenFields(map[string]any{"b": 2, "a": 1})
	if len(args) != 4 || args[0] != "a" || args[2] != "b" {
		t.Fatalf("unexpected flattened fields %v", args)
	}
}
