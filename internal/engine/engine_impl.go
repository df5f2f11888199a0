package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/wizard/internal/persistence"
	"github.com/petrijr/wizard/pkg/api"
)

// engineImpl is the synchronous, in-process engine implementation. It owns
// no per-request state; every Handle call builds a requestHandler that
// loads, resolves, dispatches, and saves.
type engineImpl struct {
	registry *wizardRegistry
	store    api.StateStore
	events   api.EventStore
	observer api.Observer
}

// Config describes how to construct an engineImpl.
// Only used inside this package; external callers use the constructors in
// the wizard package.
type Config struct {
	Store    api.StateStore
	Events   api.EventStore
	Observer api.Observer
}

// NewEngineWithConfig creates a new Engine using the given configuration.
// Zero-valued fields fall back to an in-memory store, no history, and no
// observer.
func NewEngineWithConfig(cfg Config) api.Engine {
	store := cfg.Store
	if store == nil {
		store = persistence.NewMemoryStateStore()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}

	impl := &engineImpl{
		registry: newWizardRegistry(),
		store:    store,
		events:   persistence.NoopEventStore{},
		observer: obs,
	}
	if cfg.Events != nil {
		impl.events = cfg.Events
		return &historyEngine{engineImpl: impl}
	}
	return impl
}

// NewEngineWithStore creates an Engine on a caller-supplied StateStore.
func NewEngineWithStore(store api.StateStore, obs api.Observer) api.Engine {
	return NewEngineWithConfig(Config{Store: store, Observer: obs})
}

func NewInMemoryEngine() api.Engine {
	return NewEngineWithConfig(Config{})
}

func NewInMemoryEngineWithObserver(obs api.Observer) api.Engine {
	return NewEngineWithConfig(Config{Observer: obs})
}

// NewInMemoryEngineWithHistory keeps state and the event history in
// memory. Mostly useful in tests and examples.
func NewInMemoryEngineWithHistory() api.Engine {
	return NewEngineWithConfig(Config{Events: persistence.NewMemoryEventStore()})
}

func NewSQLiteEngine(db *sql.DB) (api.Engine, error) {
	return NewSQLiteEngineWithObserver(db, nil)
}

func NewSQLiteEngineWithObserver(db *sql.DB, obs api.Observer) (api.Engine, error) {
	store, err := persistence.NewSQLiteStateStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfig(Config{Store: store, Observer: obs}), nil
}

// NewSQLiteEngineWithHistory persists both state and the event history in
// the given SQLite database. The returned engine implements
// api.HistoryReader.
func NewSQLiteEngineWithHistory(db *sql.DB) (api.Engine, error) {
	store, err := persistence.NewSQLiteStateStore(db)
	if err != nil {
		return nil, err
	}
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfig(Config{Store: store, Events: events}), nil
}

func NewPostgresEngine(db *sql.DB) (api.Engine, error) {
	return NewPostgresEngineWithObserver(db, nil)
}

func NewPostgresEngineWithObserver(db *sql.DB, obs api.Observer) (api.Engine, error) {
	store, err := persistence.NewPostgresStateStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfig(Config{Store: store, Observer: obs}), nil
}

func NewRedisEngine(client *redis.Client) api.Engine {
	return NewRedisEngineWithObserver(client, nil)
}

func NewRedisEngineWithObserver(client *redis.Client, obs api.Observer) api.Engine {
	store := persistence.NewRedisStateStore(client, "wizard:")
	return NewEngineWithConfig(Config{Store: store, Observer: obs})
}

// NewRedisEngineTTL expires abandoned instances after ttl of inactivity.
// An expired instance restarts from its first step on the next request.
func NewRedisEngineTTL(client *redis.Client, ttl time.Duration) api.Engine {
	store := persistence.NewRedisStateStoreTTL(client, "wizard:", ttl)
	return NewEngineWithConfig(Config{Store: store})
}

func NewMongoEngine(client *mongo.Client) api.Engine {
	return NewMongoEngineWithObserver(client, nil)
}

func NewMongoEngineWithObserver(client *mongo.Client, obs api.Observer) api.Engine {
	store := persistence.NewMongoStateStore(client, "", "")
	return NewEngineWithConfig(Config{Store: store, Observer: obs})
}

func (e *engineImpl) Register(def api.WizardDefinition) error {
	return e.registry.Register(def)
}

func (e *engineImpl) Handle(ctx context.Context, wizard, instance string, req api.Request) (*api.Response, error) {
	def, err := e.registry.Get(wizard)
	if err != nil {
		return nil, err
	}

	h := &requestHandler{
		e:        e,
		def:      def,
		wizard:   wizard,
		instance: instance,
		prefix:   api.StatePrefix(wizard, instance),
	}
	return h.handle(ctx, req)
}

func (e *engineImpl) State(ctx context.Context, wizard, instance string) (*api.WizardState, error) {
	prefix := api.StatePrefix(wizard, instance)
	st, err := e.store.Load(ctx, prefix)
	if err != nil {
		return nil, storeError("load", prefix, err)
	}
	return st, nil
}

func (e *engineImpl) Reset(ctx context.Context, wizard, instance string) error {
	prefix := api.StatePrefix(wizard, instance)
	if err := e.store.Reset(ctx, prefix); err != nil {
		return storeError("reset", prefix, err)
	}
	e.appendEvent(ctx, api.WizardEvent{
		Prefix: prefix,
		Type:   api.EventWizardReset,
		Wizard: wizard,
		At:     time.Now(),
	})
	return nil
}

// appendEvent records history best-effort: a failing event store must not
// fail the request it annotates.
func (e *engineImpl) appendEvent(ctx context.Context, ev api.WizardEvent) {
	_ = e.events.AppendEvent(ctx, ev)
}

// historyEngine is returned by constructors configured with an event
// store; it adds the api.HistoryReader capability.
type historyEngine struct {
	*engineImpl
}

func (e *historyEngine) History(ctx context.Context, wizard, instance string) ([]api.WizardEvent, error) {
	return e.events.ListEvents(ctx, api.StatePrefix(wizard, instance))
}

// requestHandler carries the per-request context: the definition, the
// loaded state, and the sequence resolved from it. The flow is strictly
// load, resolve, dispatch, save; there is no intra-request concurrency.
type requestHandler struct {
	e        *engineImpl
	def      api.WizardDefinition
	wizard   string
	instance string
	prefix   string

	st    *api.WizardState
	seq   []api.StepID
	dirty bool
}

func (h *requestHandler) handle(ctx context.Context, req api.Request) (*api.Response, error) {
	st, err := h.e.store.Load(ctx, h.prefix)
	if err != nil {
		return nil, storeError("load", h.prefix, err)
	}
	h.st = st
	fresh := st.Current == "" && len(st.Steps) == 0

	if err := h.resolve(); err != nil {
		return nil, err
	}

	// Position the instance inside the freshly resolved sequence. A
	// condition change since the last request may have evicted Current.
	if h.st.Current == "" {
		h.st.Current = h.seq[0]
		h.dirty = true
	} else if api.StepIndex(h.seq, h.st.Current) < 0 {
		h.st.Current = h.firstUnvalidated()
		h.dirty = true
	}

	if fresh {
		h.dirty = true
		h.e.observer.OnWizardStart(ctx, h.wizard, h.instance)
		h.event(ctx, api.EventWizardStarted, "", "")
	}

	if len(req.Extra) > 0 {
		h.st.MergeExtra(req.Extra)
		h.dirty = true
	}

	var resp *api.Response
	switch req.Intent {
	case api.IntentRender, "":
		resp, err = h.render(ctx, req)
	case api.IntentSubmit:
		resp, err = h.submit(ctx, req)
	case api.IntentGoTo:
		resp, err = h.goTo(ctx, req)
	case api.IntentDone:
		resp, err = h.finalize(ctx)
	default:
		return nil, api.NewErrorf(api.ErrCodeBadRequest, "unknown intent %q", req.Intent)
	}
	if err != nil {
		return nil, err
	}

	if h.dirty {
		if err := h.e.store.Save(ctx, h.prefix, h.st); err != nil {
			return nil, storeError("save", h.prefix, err)
		}
	}
	return resp, nil
}

func (h *requestHandler) resolve() error {
	seq, err := api.ResolveSequence(h.def.Steps, h.st.CleanData())
	if err != nil {
		return err
	}
	h.seq = seq
	return nil
}

// firstUnvalidated picks the landing step after Current was excluded by a
// condition change: the first step without stored data, or the last step
// when every remaining step already has some.
func (h *requestHandler) firstUnvalidated() api.StepID {
	for _, s := range h.seq {
		if _, ok := h.st.Validated(s); !ok {
			return s
		}
	}
	return h.seq[len(h.seq)-1]
}

func (h *requestHandler) render(ctx context.Context, req api.Request) (*api.Response, error) {
	step := h.st.Current
	if req.Step != "" {
		if api.StepIndex(h.seq, req.Step) < 0 {
			return nil, api.NewErrorf(api.ErrCodeUnknownStep, "not part of the resolved sequence").WithStep(req.Step)
		}
		step = req.Step
	}
	form, err := h.buildStored(ctx, step)
	if err != nil {
		return nil, err
	}
	return h.renderResponse(ctx, step, form, "", nil), nil
}

func (h *requestHandler) submit(ctx context.Context, req api.Request) (*api.Response, error) {
	step := h.st.Current

	data := req.Data
	if data == nil {
		// A submit with no fields at all is still a bound, empty form.
		data = map[string][]string{}
	}

	start := time.Now()
	form, err := h.buildForm(ctx, step, data, req.Files)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	if !form.IsValid() {
		h.e.observer.OnStepValidated(ctx, h.wizard, h.instance, step, false, elapsed)
		h.event(ctx, api.EventValidationFailed, step, fieldList(form.Errors()))
		return h.renderResponse(ctx, step, form, api.ReasonValidationFailed, form.Errors()), nil
	}

	h.e.observer.OnStepValidated(ctx, h.wizard, h.instance, step, true, elapsed)
	h.st.SetValidated(api.ValidatedStep{
		Step:   step,
		Values: data,
		Clean:  form.CleanedData(),
		Files:  form.CleanedFiles(),
	})
	h.dirty = true
	h.event(ctx, api.EventStepValidated, step, "")

	// The new data may change which later steps are included. The prefix
	// up to the submitted step is stable, so the step keeps its position.
	if err := h.resolve(); err != nil {
		return nil, err
	}
	idx := api.StepIndex(h.seq, step)
	if idx == len(h.seq)-1 {
		return h.finalize(ctx)
	}

	next := h.seq[idx+1]
	h.navigate(ctx, next)
	form, err = h.buildStored(ctx, next)
	if err != nil {
		return nil, err
	}
	return h.renderResponse(ctx, next, form, "", nil), nil
}

func (h *requestHandler) goTo(ctx context.Context, req api.Request) (*api.Response, error) {
	if req.Step == "" {
		return nil, api.NewError(api.ErrCodeBadRequest, "go-to requires a target step")
	}
	if api.StepIndex(h.seq, req.Step) < 0 {
		return nil, api.NewErrorf(api.ErrCodeUnknownStep, "not part of the resolved sequence").WithStep(req.Step)
	}

	h.navigate(ctx, req.Step)
	form, err := h.buildStored(ctx, req.Step)
	if err != nil {
		return nil, err
	}
	return h.renderResponse(ctx, req.Step, form, "", nil), nil
}

// finalize re-validates every step of the final sequence from the store
// and, only when all of them pass, runs the completion hook exactly once.
// The first failure repositions the instance on the failing step.
func (h *requestHandler) finalize(ctx context.Context) (*api.Response, error) {
	if err := h.resolve(); err != nil {
		return nil, err
	}

	validated := make([]api.ValidatedStep, 0, len(h.seq))
	for _, step := range h.seq {
		vs, ok := h.st.Validated(step)
		if !ok {
			// Never submitted: validate an empty bound submission so the
			// response carries the step's real "required" errors.
			vs = api.ValidatedStep{Step: step, Values: map[string][]string{}}
		}

		form, err := h.buildForm(ctx, step, vs.Values, refsToLists(vs.Files))
		if err != nil {
			return nil, err
		}
		if !form.IsValid() {
			h.navigate(ctx, step)
			h.e.observer.OnRevalidationFailed(ctx, h.wizard, h.instance, step)
			h.event(ctx, api.EventRevalidationFailed, step, fieldList(form.Errors()))
			return h.renderResponse(ctx, step, form, api.ReasonRevalidationFailed, form.Errors()), nil
		}

		validated = append(validated, api.ValidatedStep{
			Step:   step,
			Values: vs.Values,
			Clean:  form.CleanedData(),
			Files:  form.CleanedFiles(),
		})
	}

	// Persist the final submission before side effects run, so a failing
	// hook never loses validated data.
	if h.dirty {
		if err := h.e.store.Save(ctx, h.prefix, h.st); err != nil {
			return nil, storeError("save", h.prefix, err)
		}
		h.dirty = false
	}

	var result any = validated
	if h.def.OnComplete != nil {
		out, err := h.def.OnComplete(ctx, validated, h.st.Extra)
		if err != nil {
			return nil, api.NewErrorf(api.ErrCodeCompletionFailed, "wizard %q completion hook", h.wizard).WithCause(err)
		}
		result = out
	}

	h.e.observer.OnWizardCompleted(ctx, h.wizard, h.instance, len(h.seq))
	h.event(ctx, api.EventWizardCompleted, "", fmt.Sprintf("steps=%d", len(h.seq)))

	return &api.Response{
		Kind:     api.KindDone,
		Wizard:   h.wizard,
		Instance: h.instance,
		Sequence: h.seq,
		Index:    -1,
		Result:   result,
	}, nil
}

// navigate repositions Current, notifying the observer when the position
// actually changes.
func (h *requestHandler) navigate(ctx context.Context, to api.StepID) {
	from := h.st.Current
	if from == to {
		return
	}
	h.st.Current = to
	h.dirty = true
	h.e.observer.OnNavigate(ctx, h.wizard, h.instance, from, to)
	h.event(ctx, api.EventNavigated, to, "from="+string(from))
}

// buildForm wraps the factory call; factory faults are definition bugs,
// not user errors.
func (h *requestHandler) buildForm(ctx context.Context, step api.StepID, data map[string][]string, files map[string][]api.FileRef) (api.Form, error) {
	form, err := h.def.Forms.Build(ctx, step, data, files, h.initial(step))
	if err != nil {
		return nil, api.NewErrorf(api.ErrCodeBadDefinition, "form factory failed for wizard %q", h.wizard).
			WithStep(step).
			WithCause(err)
	}
	return form, nil
}

// buildStored renders a step the way the user last left it: bound with the
// stored submission when one exists, unbound otherwise.
func (h *requestHandler) buildStored(ctx context.Context, step api.StepID) (api.Form, error) {
	if vs, ok := h.st.Validated(step); ok {
		return h.buildForm(ctx, step, vs.Values, refsToLists(vs.Files))
	}
	return h.buildForm(ctx, step, nil, nil)
}

func (h *requestHandler) initial(step api.StepID) map[string]any {
	if sd, ok := h.def.Step(step); ok {
		return sd.Initial
	}
	return nil
}

func (h *requestHandler) renderResponse(ctx context.Context, step api.StepID, form api.Form, reason api.Reason, errs map[string][]string) *api.Response {
	resp := &api.Response{
		Kind:     api.KindRender,
		Wizard:   h.wizard,
		Instance: h.instance,
		Step:     step,
		Form:     form,
		Errors:   errs,
		Reason:   reason,
		Sequence: h.seq,
		Index:    api.StepIndex(h.seq, step),
	}
	if h.def.OnRender != nil {
		h.def.OnRender(ctx, resp)
	}
	return resp
}

func (h *requestHandler) event(ctx context.Context, typ api.EventType, step api.StepID, detail string) {
	h.e.appendEvent(ctx, api.WizardEvent{
		Prefix: h.prefix,
		Type:   typ,
		Wizard: h.wizard,
		Step:   step,
		At:     time.Now(),
		Detail: detail,
	})
}

func storeError(op, prefix string, err error) error {
	return api.NewErrorf(api.ErrCodeStoreUnavailable, "%s state for %q", op, prefix).
		WithCause(errors.Join(api.ErrStoreUnavailable, err))
}

func refsToLists(files map[string]api.FileRef) map[string][]api.FileRef {
	if len(files) == 0 {
		return nil
	}
	out := make(map[string][]api.FileRef, len(files))
	for field, ref := range files {
		out[field] = []api.FileRef{ref}
	}
	return out
}

// fieldList summarizes failed fields for event details without leaking
// submitted values.
func fieldList(errs map[string][]string) string {
	if len(errs) == 0 {
		return ""
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "fields=" + strings.Join(fields, ",")
}
