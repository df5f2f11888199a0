package api

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingObserver captures callback invocations as compact strings so
// tests can assert on order and payload without mocking frameworks.
type recordingObserver struct {
	NoopObserver

	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) record(call string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, call)
}

func (o *recordingObserver) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.calls))
	copy(out, o.calls)
	return out
}

func (o *recordingObserver) OnWizardStart(ctx context.Context, wizard, instance string) {
	o.record("start " + wizard)
}

func (o *recordingObserver) OnNavigate(ctx context.Context, wizard, instance string, from, to StepID) {
	o.record("navigate " + string(from) + " " + string(to))
}

func TestBasicMetrics_Snapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := &BasicMetrics{}

	m.OnWizardStart(ctx, "contact", "i1")
	m.OnWizardStart(ctx, "contact", "i2")
	m.OnStepValidated(ctx, "contact", "i1", "message", true, 10*time.Millisecond)
	m.OnStepValidated(ctx, "contact", "i1", "confirm", true, 30*time.Millisecond)
	m.OnStepValidated(ctx, "contact", "i2", "message", false, 5*time.Millisecond)
	m.OnRevalidationFailed(ctx, "contact", "i2", "message")
	m.OnWizardCompleted(ctx, "contact", "i1", 2)

	snap := m.Snapshot()
	require.Equal(t, int64(2), snap.WizardsStarted, "wizards started")
	require.Equal(t, int64(1), snap.WizardsCompleted, "wizards completed")
	require.Equal(t, int64(1), snap.WizardsInFlight, "wizards in flight")
	require.Equal(t, int64(2), snap.StepsValidated, "steps validated")
	require.Equal(t, int64(1), snap.ValidationFailures, "validation failures")
	require.Equal(t, int64(1), snap.RevalidationFailures, "revalidation failures")
	require.Equal(t, 20*time.Millisecond, snap.AvgValidation, "average validation duration")
}

func TestCompositeObserver_FanOut(t *testing.T) {
	t.Parallel()

	a := &recordingObserver{}
	b := &recordingObserver{}
	obs := NewCompositeObserver(a, nil, b)

	ctx := context.Background()
	obs.OnWizardStart(ctx, "contact", "i1")
	obs.OnNavigate(ctx, "contact", "i1", "message", "confirm")

	want := []string{"start contact", "navigate message confirm"}
	require.Equal(t, want, a.snapshot(), "first observer")
	require.Equal(t, want, b.snapshot(), "second observer")
}

func TestNewCompositeObserver_Degenerate(t *testing.T) {
	t.Parallel()

	require.IsType(t, NoopObserver{}, NewCompositeObserver(), "no observers")
	require.IsType(t, NoopObserver{}, NewCompositeObserver(nil, nil), "only nil observers")

	single := &recordingObserver{}
	require.Same(t, single, NewCompositeObserver(single), "a single observer is returned unwrapped")
}

func TestLoggingObserver_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	obs := NewLoggingObserver(logger)

	ctx := context.Background()
	obs.OnWizardStart(ctx, "contact", "i1")
	obs.OnStepValidated(ctx, "contact", "i1", "message", true, time.Millisecond)
	obs.OnStepValidated(ctx, "contact", "i1", "message", false, time.Millisecond)
	obs.OnRevalidationFailed(ctx, "contact", "i1", "message")
	obs.OnWizardCompleted(ctx, "contact", "i1", 2)

	out := buf.String()
	require.Contains(t, out, "wizard_start")
	require.Contains(t, out, "revalidation_failed")
	require.Contains(t, out, "wizard_completed")
	require.Contains(t, out, "valid=false")
	// A passing validation logs at debug and stays below the Info threshold.
	require.NotContains(t, out, "valid=true")
}

func TestNewLoggingObserver_NilLogger(t *testing.T) {
	t.Parallel()

	require.NotNil(t, NewLoggingObserver(nil))
}
