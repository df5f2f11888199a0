package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the wizard engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay request handling.
type Observer interface {
	// OnWizardStart is called once per instance, when first contact with
	// a prefix creates its state.
	OnWizardStart(ctx context.Context, wizard, instance string)

	// OnStepValidated is called after a submitted form was validated, for
	// both outcomes. duration covers the form build and validation.
	OnStepValidated(ctx context.Context, wizard, instance string, step StepID, valid bool, duration time.Duration)

	// OnNavigate is called whenever the current step changes: an advance
	// after a valid submission, an explicit go-to, or a rollback to a
	// failing step during the pre-completion pass.
	OnNavigate(ctx context.Context, wizard, instance string, from, to StepID)

	// OnRevalidationFailed is called when a step's stored data no longer
	// validated during the pre-completion pass.
	OnRevalidationFailed(ctx context.Context, wizard, instance string, step StepID)

	// OnWizardCompleted is called after the completion hook succeeded.
	// steps is the length of the final sequence.
	OnWizardCompleted(ctx context.Context, wizard, instance string, steps int)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnWizardStart(ctx context.Context, wizard, instance string) {}
func (NoopObserver) OnStepValidated(ctx context.Context, wizard, instance string, step StepID, valid bool, d time.Duration) {
}
func (NoopObserver) OnNavigate(ctx context.Context, wizard, instance string, from, to StepID) {}
func (NoopObserver) OnRevalidationFailed(ctx context.Context, wizard, instance string, step StepID) {
}
func (NoopObserver) OnWizardCompleted(ctx context.Context, wizard, instance string, steps int) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnWizardStart(ctx context.Context, wizard, instance string) {
	for _, o := range c.observers {
		o.OnWizardStart(ctx, wizard, instance)
	}
}

func (c *CompositeObserver) OnStepValidated(ctx context.Context, wizard, instance string, step StepID, valid bool, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepValidated(ctx, wizard, instance, step, valid, d)
	}
}

func (c *CompositeObserver) OnNavigate(ctx context.Context, wizard, instance string, from, to StepID) {
	for _, o := range c.observers {
		o.OnNavigate(ctx, wizard, instance, from, to)
	}
}

func (c *CompositeObserver) OnRevalidationFailed(ctx context.Context, wizard, instance string, step StepID) {
	for _, o := range c.observers {
		o.OnRevalidationFailed(ctx, wizard, instance, step)
	}
}

func (c *CompositeObserver) OnWizardCompleted(ctx context.Context, wizard, instance string, steps int) {
	for _, o := range c.observers {
		o.OnWizardCompleted(ctx, wizard, instance, steps)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs wizard lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnWizardStart(ctx context.Context, wizard, instance string) {
	o.Logger.InfoContext(ctx, "wizard_start",
		slog.String("wizard", wizard),
		slog.String("instance", instance),
	)
}

func (o *LoggingObserver) OnStepValidated(ctx context.Context, wizard, instance string, step StepID, valid bool, d time.Duration) {
	level := slog.LevelDebug
	if !valid {
		level = slog.LevelInfo
	}
	o.Logger.Log(ctx, level, "step_validated",
		slog.String("wizard", wizard),
		slog.String("instance", instance),
		slog.String("step", string(step)),
		slog.Bool("valid", valid),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnNavigate(ctx context.Context, wizard, instance string, from, to StepID) {
	o.Logger.DebugContext(ctx, "navigate",
		slog.String("wizard", wizard),
		slog.String("instance", instance),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

func (o *LoggingObserver) OnRevalidationFailed(ctx context.Context, wizard, instance string, step StepID) {
	o.Logger.WarnContext(ctx, "revalidation_failed",
		slog.String("wizard", wizard),
		slog.String("instance", instance),
		slog.String("step", string(step)),
	)
}

func (o *LoggingObserver) OnWizardCompleted(ctx context.Context, wizard, instance string, steps int) {
	o.Logger.InfoContext(ctx, "wizard_completed",
		slog.String("wizard", wizard),
		slog.String("instance", instance),
		slog.Int("steps", steps),
	)
}

// BasicMetrics collects simple counters and aggregate validation durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	wizardsStarted       atomic.Int64
	wizardsCompleted     atomic.Int64
	stepsValidated       atomic.Int64
	validationFailures   atomic.Int64
	revalidationFailures atomic.Int64
	totalValidation      atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	WizardsStarted   int64
	WizardsCompleted int64
	WizardsInFlight  int64

	StepsValidated       int64
	ValidationFailures   int64
	RevalidationFailures int64
	AvgValidation        time.Duration
}

func (m *BasicMetrics) OnWizardStart(ctx context.Context, wizard, instance string) {
	m.wizardsStarted.Add(1)
}

func (m *BasicMetrics) OnStepValidated(ctx context.Context, wizard, instance string, step StepID, valid bool, d time.Duration) {
	if valid {
		m.stepsValidated.Add(1)
		m.totalValidation.Add(d.Nanoseconds())
	} else {
		m.validationFailures.Add(1)
	}
}

func (m *BasicMetrics) OnRevalidationFailed(ctx context.Context, wizard, instance string, step StepID) {
	m.revalidationFailures.Add(1)
}

func (m *BasicMetrics) OnWizardCompleted(ctx context.Context, wizard, instance string, steps int) {
	m.wizardsCompleted.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.wizardsStarted.Load()
	completed := m.wizardsCompleted.Load()
	steps := m.stepsValidated.Load()
	totalNs := m.totalValidation.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		WizardsStarted:       started,
		WizardsCompleted:     completed,
		WizardsInFlight:      started - completed,
		StepsValidated:       steps,
		ValidationFailures:   m.validationFailures.Load(),
		RevalidationFailures: m.revalidationFailures.Load(),
		AvgValidation:        avg,
	}
}
