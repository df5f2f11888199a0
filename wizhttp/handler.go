// Package wizhttp serves a wizard over HTTP.
//
// Handler maps plain form traffic onto engine intents: GET renders the
// current step (or ?step= for another step of the sequence), POST submits
// the posted fields against the current step. Two reserved fields turn a
// POST into a navigation request instead:
//
//	<button name="_wizard_goto" value="shipping">Back</button>
//	<button name="_wizard_done" value="1">Finish</button>
//
// Instances are tracked with an HMAC-signed session cookie, so a visitor
// resumes their wizard on the step they left. How responses are drawn is
// up to the caller: plug template rendering into Config.Render and
// Config.Done, or leave both nil for a JSON representation that suits
// API-style clients.
//
//	h, err := wizhttp.NewHandler(wizhttp.Config{
//	    Engine:   eng,
//	    Wizard:   "signup",
//	    Sessions: wizhttp.NewCookieSessions(key),
//	    Render:   drawForm,
//	})
//	mux.Handle("/signup", wizhttp.Chain(
//	    wizhttp.Recovery(logger),
//	    wizhttp.Logging(logger),
//	)(h))
package wizhttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/petrijr/wizard/pkg/api"
)

// Reserved POST fields that turn a submission into a navigation request.
// They are stripped from the data before it reaches the form factory.
const (
	FieldGoTo = "_wizard_goto"
	FieldDone = "_wizard_done"
)

// DefaultMaxMemory bounds the in-memory part of multipart parsing.
const DefaultMaxMemory = 10 << 20

// Config wires a Handler.
type Config struct {
	// Engine handles the mapped intents. Required.
	Engine api.Engine

	// Wizard is the registered wizard name this handler serves. Required.
	Wizard string

	// Sessions issues and verifies instance cookies. When nil, the
	// handler generates an ephemeral signing key; sessions then do not
	// survive a process restart, which is fine for development only.
	Sessions *CookieSessions

	// Render draws a step form. When nil, a JSON representation of the
	// response is written instead.
	Render func(w http.ResponseWriter, r *http.Request, resp *api.Response)

	// Done presents the completion result. When nil, a JSON
	// representation is written instead.
	Done func(w http.ResponseWriter, r *http.Request, resp *api.Response)

	// OnError overrides the default error writer, which maps engine
	// error codes onto HTTP status codes.
	OnError func(w http.ResponseWriter, r *http.Request, err error)

	// SaveUpload stores one uploaded file and returns its reference.
	// When nil, file parts are dropped with a warning.
	SaveUpload func(ctx context.Context, fh *multipart.FileHeader) (api.FileRef, error)

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// MaxMemory bounds multipart parsing. Defaults to DefaultMaxMemory.
	MaxMemory int64
}

// Handler is an http.Handler serving one wizard.
type Handler struct {
	cfg      Config
	sessions *CookieSessions
	logger   *slog.Logger
}

// NewHandler validates cfg and returns the handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Engine == nil {
		return nil, api.NewError(api.ErrCodeBadDefinition, "wizhttp: Config.Engine is required")
	}
	if cfg.Wizard == "" {
		return nil, api.NewError(api.ErrCodeBadDefinition, "wizhttp: Config.Wizard is required")
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewCookieSessions(randomKey())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxMemory <= 0 {
		cfg.MaxMemory = DefaultMaxMemory
	}

	return &Handler{cfg: cfg, sessions: sessions, logger: logger}, nil
}

// Sessions returns the handler's session manager, so callers can clear
// the cookie after completion.
func (h *Handler) Sessions() *CookieSessions { return h.sessions }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	instance, issued := h.sessions.Instance(r)
	if issued {
		h.sessions.Set(w, instance)
	}

	var req api.Request
	switch r.Method {
	case http.MethodGet:
		req = api.Request{Intent: api.IntentRender, Step: api.StepID(r.URL.Query().Get("step"))}
	case http.MethodPost:
		var ok bool
		req, ok = h.parsePost(w, r)
		if !ok {
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp, err := h.cfg.Engine.Handle(r.Context(), h.cfg.Wizard, instance, req)
	if err != nil {
		h.error(w, r, err)
		return
	}

	if resp.Kind == api.KindDone {
		if h.cfg.Done != nil {
			h.cfg.Done(w, r, resp)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"wizard": resp.Wizard,
			"done":   true,
			"result": resp.Result,
		})
		return
	}

	if h.cfg.Render != nil {
		h.cfg.Render(w, r, resp)
		return
	}
	writeJSON(w, http.StatusOK, renderBody(resp))
}

// parsePost maps a form POST onto an intent. The reported bool is false
// when the response has already been written.
func (h *Handler) parsePost(w http.ResponseWriter, r *http.Request) (api.Request, bool) {
	var (
		data  map[string][]string
		files map[string][]api.FileRef
	)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.cfg.MaxMemory); err != nil {
			http.Error(w, "bad multipart form", http.StatusBadRequest)
			return api.Request{}, false
		}
		data = r.MultipartForm.Value

		var ok bool
		files, ok = h.saveUploads(w, r)
		if !ok {
			return api.Request{}, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return api.Request{}, false
		}
		data = r.PostForm
	}

	if target := first(data[FieldGoTo]); target != "" {
		return api.Request{Intent: api.IntentGoTo, Step: api.StepID(target)}, true
	}
	if _, done := data[FieldDone]; done {
		return api.Request{Intent: api.IntentDone}, true
	}

	delete(data, FieldGoTo)
	delete(data, FieldDone)
	return api.Request{Intent: api.IntentSubmit, Data: data, Files: files}, true
}

// saveUploads runs every multipart file part through Config.SaveUpload.
func (h *Handler) saveUploads(w http.ResponseWriter, r *http.Request) (map[string][]api.FileRef, bool) {
	if r.MultipartForm == nil || len(r.MultipartForm.File) == 0 {
		return nil, true
	}
	if h.cfg.SaveUpload == nil {
		h.logger.Warn("wizhttp: upload dropped, no SaveUpload configured",
			"wizard", h.cfg.Wizard, "path", r.URL.Path)
		return nil, true
	}

	files := make(map[string][]api.FileRef, len(r.MultipartForm.File))
	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			ref, err := h.cfg.SaveUpload(r.Context(), fh)
			if err != nil {
				h.logger.Error("wizhttp: save upload failed",
					"wizard", h.cfg.Wizard, "field", field, "error", err)
				http.Error(w, "upload failed", http.StatusInternalServerError)
				return nil, false
			}
			files[field] = append(files[field], ref)
		}
	}
	return files, true
}

func (h *Handler) error(w http.ResponseWriter, r *http.Request, err error) {
	if h.cfg.OnError != nil {
		h.cfg.OnError(w, r, err)
		return
	}

	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("wizhttp: request failed",
			"wizard", h.cfg.Wizard, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

// errorStatus maps engine error codes onto HTTP status codes.
func errorStatus(err error) int {
	switch api.ErrorCode(err) {
	case api.ErrCodeUnknownWizard, api.ErrCodeUnknownStep:
		return http.StatusNotFound
	case api.ErrCodeBadRequest:
		return http.StatusBadRequest
	case api.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// renderBody is the JSON shape written when no Render func is configured.
// Forms do not marshal; cleaned data stands in for the bound form.
func renderBody(resp *api.Response) map[string]any {
	body := map[string]any{
		"wizard":   resp.Wizard,
		"step":     resp.Step,
		"sequence": resp.Sequence,
		"index":    resp.Index,
	}
	if resp.Reason != "" {
		body["reason"] = resp.Reason
	}
	if len(resp.Errors) > 0 {
		body["errors"] = resp.Errors
	}
	if resp.Form != nil {
		body["data"] = resp.Form.CleanedData()
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
