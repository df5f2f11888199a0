package wizard

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/petrijr/wizard/internal/engine"
	"github.com/petrijr/wizard/internal/persistence"
	"github.com/petrijr/wizard/pkg/api"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine           = api.Engine
	HistoryReader    = api.HistoryReader
	StateStore       = api.StateStore
	EventStore       = api.EventStore
	WizardDefinition = api.WizardDefinition
	StepDefinition   = api.StepDefinition
	StepID           = api.StepID
	Condition        = api.Condition
	Form             = api.Form
	FormFactory      = api.FormFactory
	FormFactoryFunc  = api.FormFactoryFunc
	CompletionHook   = api.CompletionHook
	RenderHook       = api.RenderHook
	Request          = api.Request
	Response         = api.Response
	ResponseKind     = api.ResponseKind
	Intent           = api.Intent
	Reason           = api.Reason
	FileRef          = api.FileRef
	ValidatedStep    = api.ValidatedStep
	WizardState      = api.WizardState
	WizardEvent      = api.WizardEvent
	EventType        = api.EventType
	Error            = api.Error

	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export common observer and error helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	ErrorCode           = api.ErrorCode
	ErrStoreUnavailable = api.ErrStoreUnavailable
)

// Re-export intent and response values for convenience.

const (
	IntentRender = api.IntentRender
	IntentSubmit = api.IntentSubmit
	IntentGoTo   = api.IntentGoTo
	IntentDone   = api.IntentDone

	KindRender = api.KindRender
	KindDone   = api.KindDone

	ReasonValidationFailed   = api.ReasonValidationFailed
	ReasonRevalidationFailed = api.ReasonRevalidationFailed
)

// Re-export error codes for callers that switch on ErrorCode.

const (
	ErrCodeUnknownWizard    = api.ErrCodeUnknownWizard
	ErrCodeUnknownStep      = api.ErrCodeUnknownStep
	ErrCodeEmptySequence    = api.ErrCodeEmptySequence
	ErrCodeStoreUnavailable = api.ErrCodeStoreUnavailable
	ErrCodeBadDefinition    = api.ErrCodeBadDefinition
	ErrCodeCompletionFailed = api.ErrCodeCompletionFailed
	ErrCodeBadRequest       = api.ErrCodeBadRequest
)

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEngine returns an Engine backed entirely by in-memory state.
func NewInMemoryEngine() Engine {
	return engine.NewInMemoryEngine()
}

// NewInMemoryEngineWithObserver returns an in-memory Engine with the given Observer.
func NewInMemoryEngineWithObserver(obs Observer) Engine {
	return engine.NewInMemoryEngineWithObserver(obs)
}

// NewInMemoryEngineWithHistory returns an in-memory Engine that also records
// wizard events, readable through the History helper.
func NewInMemoryEngineWithHistory() Engine {
	return engine.NewInMemoryEngineWithHistory()
}

// NewSQLiteEngine returns an Engine that persists instance state
// in a SQLite database. Wizard definitions are kept in-memory.
func NewSQLiteEngine(db *sql.DB) (Engine, error) {
	return engine.NewSQLiteEngine(db)
}

// NewSQLiteEngineWithObserver returns a SQLite-backed Engine with the given Observer.
func NewSQLiteEngineWithObserver(db *sql.DB, obs Observer) (Engine, error) {
	return engine.NewSQLiteEngineWithObserver(db, obs)
}

// NewSQLiteEngineWithHistory returns a SQLite-backed Engine that also records
// wizard events in the same database.
func NewSQLiteEngineWithHistory(db *sql.DB) (Engine, error) {
	return engine.NewSQLiteEngineWithHistory(db)
}

// NewPostgresEngine returns an Engine that persists instance state in PostgreSQL.
func NewPostgresEngine(db *sql.DB) (Engine, error) {
	return engine.NewPostgresEngine(db)
}

// NewPostgresEngineWithObserver returns a Postgres-backed Engine with the given Observer.
func NewPostgresEngineWithObserver(db *sql.DB, obs Observer) (Engine, error) {
	return engine.NewPostgresEngineWithObserver(db, obs)
}

// NewRedisEngine returns an Engine that persists instance state in Redis.
func NewRedisEngine(client *redis.Client) Engine {
	return engine.NewRedisEngine(client)
}

// NewRedisEngineWithObserver returns a Redis-backed Engine with the given Observer.
func NewRedisEngineWithObserver(client *redis.Client, obs Observer) Engine {
	return engine.NewRedisEngineWithObserver(client, obs)
}

// NewRedisEngineTTL returns a Redis-backed Engine whose instance state
// expires after ttl of inactivity. Abandoned wizards clean themselves up.
func NewRedisEngineTTL(client *redis.Client, ttl time.Duration) Engine {
	return engine.NewRedisEngineTTL(client, ttl)
}

// NewMongoEngine returns an Engine that persists instance state in MongoDB.
func NewMongoEngine(client *mongo.Client) Engine {
	return engine.NewMongoEngine(client)
}

// NewMongoEngineWithObserver returns a Mongo-backed Engine with the given Observer.
func NewMongoEngineWithObserver(client *mongo.Client, obs Observer) Engine {
	return engine.NewMongoEngineWithObserver(client, obs)
}

// NewEngineWithStore returns an Engine on a caller-provided StateStore.
// Use this to plug in a custom persistence backend.
func NewEngineWithStore(store StateStore, obs Observer) Engine {
	return engine.NewEngineWithStore(store, obs)
}

// EngineConfig assembles an Engine from parts when the backend
// constructors above don't fit. Zero-valued fields fall back to an
// in-memory store, no history, and no observer.
type EngineConfig struct {
	// Store persists instance state.
	Store StateStore

	// Events, when set, records wizard history readable through the
	// History helper.
	Events EventStore

	// Observer receives lifecycle callbacks.
	Observer Observer
}

// NewEngine returns an Engine built from cfg.
func NewEngine(cfg EngineConfig) Engine {
	return engine.NewEngineWithConfig(engine.Config{
		Store:    cfg.Store,
		Events:   cfg.Events,
		Observer: cfg.Observer,
	})
}

// Event store constructors for EngineConfig.Events.

// NewMemoryEventStore returns an in-memory event store.
func NewMemoryEventStore() EventStore {
	return persistence.NewMemoryEventStore()
}

// NewSQLiteEventStore returns an event store persisting in a SQLite
// database. It can share the database of NewSQLiteEngine.
func NewSQLiteEventStore(db *sql.DB) (EventStore, error) {
	return persistence.NewSQLiteEventStore(db)
}

// Convenience helpers that just forward to the underlying Engine.

// Handle performs one navigation intent against a wizard instance.
func Handle(ctx context.Context, eng Engine, name, instance string, req Request) (*Response, error) {
	return eng.Handle(ctx, name, instance, req)
}

// State fetches the persisted state of a wizard instance.
func State(ctx context.Context, eng Engine, name, instance string) (*WizardState, error) {
	return eng.State(ctx, name, instance)
}

// Reset deletes the persisted state of a wizard instance.
func Reset(ctx context.Context, eng Engine, name, instance string) error {
	return eng.Reset(ctx, name, instance)
}

// ErrNoHistory is returned by History when the engine was not built with
// event recording.
var ErrNoHistory = errors.New("wizard: engine does not record history")

// History returns the recorded events of a wizard instance.
//
// Only engines constructed with a history variant (for example
// NewInMemoryEngineWithHistory or NewSQLiteEngineWithHistory) record
// events; for any other engine History returns ErrNoHistory.
func History(ctx context.Context, eng Engine, name, instance string) ([]WizardEvent, error) {
	hr, ok := eng.(HistoryReader)
	if !ok {
		return nil, ErrNoHistory
	}
	return hr.History(ctx, name, instance)
}
