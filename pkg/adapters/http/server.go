package http

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
)

//go:embed openapi.yaml
var rawSpec []byte

// SubjectHeader carries the caller identity when the request body does not.
const SubjectHeader = "X-Tendril-Subject"

// Dispatcher is the subset of *tendril.Dispatcher the server needs.
type Dispatcher interface {
	Dispatch(cc *domain.CommandContext, line string) error
	Suggest(cc *domain.CommandContext, line string) []string
	Syntax(line string) string
	Commands() []*domain.Command
}

// Server exposes a Dispatcher over HTTP.
type Server struct {
	Dispatcher Dispatcher
	Streams    *StreamManager
	Logger     *slog.Logger
	MaxInput   int

	spec *openapi3.T
}

type Option func(*Server)

// WithStreams serves /events from sm. Without it /events is not routed.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMaxInput bounds the byte length of command lines. Zero or less disables the check.
func WithMaxInput(n int) Option {
	return func(s *Server) {
		s.MaxInput = n
	}
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
}

// NewHandler creates a new HTTP handler for the dispatcher.
func NewHandler(d Dispatcher, opts ...Option) (http.Handler, error) {
	spec, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}

	s := &Server{
		Dispatcher: d,
		Logger:     slog.New(slog.DiscardHandler),
		MaxInput:   input.MaxInputSize(),
		spec:       spec,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Post("/dispatch", s.Dispatch)
	r.Get("/suggest", s.Suggest)
	r.Get("/syntax", s.Syntax)
	r.Get("/commands", s.ListCommands)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.Streams != nil {
		r.Get("/events", s.SubscribeEvents)
	}
	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SubjectHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DispatchRequest is the body of POST /dispatch.
type DispatchRequest struct {
	Line    string `json:"line"`
	Subject string `json:"subject,omitempty"`
}

// DispatchResponse reports a successful dispatch.
type DispatchResponse struct {
	DispatchID string         `json:"dispatch_id"`
	Route      string         `json:"route"`
	Async      bool           `json:"async,omitempty"`
	Output     string         `json:"output,omitempty"`
	Arguments  map[string]any `json:"arguments,omitempty"`
}

// ErrorResponse reports a failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	Closest    string `json:"closest,omitempty"`
	DispatchID string `json:"dispatch_id,omitempty"`
}

// CommandInfo describes one registered command.
type CommandInfo struct {
	Route       string `json:"route"`
	Usage       string `json:"usage"`
	Description string `json:"description,omitempty"`
	Permission  string `json:"permission,omitempty"`
	Async       bool   `json:"async,omitempty"`
}

// Dispatch handles the POST /dispatch request.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	var body DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Kind: "request"})
		s.Logger.Warn("dispatch: invalid request body", "error", err)
		return
	}
	line, err := input.SanitizeWithLimit(body.Line, s.MaxInput)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "input"})
		return
	}

	subject := body.Subject
	if subject == "" {
		subject = r.Header.Get(SubjectHeader)
	}
	cc := s.newContext(r.Context(), subject)
	out := &lockedBuffer{}
	domain.Replace[io.Writer](cc, domain.OutputKey, out)

	if err := s.Dispatcher.Dispatch(cc, line); err != nil {
		code, resp := describe(err)
		resp.DispatchID = cc.ID()
		s.Logger.Debug("dispatch failed", "line", line, "dispatch_id", cc.ID(), "error", err)
		s.writeJSON(w, code, resp)
		return
	}

	resp := DispatchResponse{DispatchID: cc.ID(), Arguments: domain.Arguments(cc)}
	code := http.StatusOK
	if cmd, ok := domain.Get(cc, domain.CommandKey); ok {
		resp.Route = cmd.Route
		resp.Async = cmd.Async
	}
	if resp.Async {
		code = http.StatusAccepted
	} else {
		resp.Output = out.String()
	}
	s.writeJSON(w, code, resp)
}

// Suggest handles the GET /suggest request.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	var line, subject string
	if err := runtime.BindQueryParameter("form", true, false, "line", r.URL.Query(), &line); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "request"})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "subject", r.URL.Query(), &subject); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "request"})
		return
	}
	if subject == "" {
		subject = r.Header.Get(SubjectHeader)
	}
	line, err := input.SanitizeWithLimit(line, s.MaxInput)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "input"})
		return
	}

	cc := s.newContext(r.Context(), subject)
	s.writeJSON(w, http.StatusOK, map[string][]string{"suggestions": s.Dispatcher.Suggest(cc, line)})
}

// Syntax handles the GET /syntax request.
func (s *Server) Syntax(w http.ResponseWriter, r *http.Request) {
	var line string
	if err := runtime.BindQueryParameter("form", true, false, "line", r.URL.Query(), &line); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "request"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"syntax": s.Dispatcher.Syntax(line)})
}

// ListCommands handles the GET /commands request.
func (s *Server) ListCommands(w http.ResponseWriter, r *http.Request) {
	cmds := s.Dispatcher.Commands()
	out := make([]CommandInfo, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, CommandInfo{
			Route:       c.Route,
			Usage:       s.Dispatcher.Syntax(c.Name()),
			Description: c.Description,
			Permission:  c.Permission,
			Async:       c.Async,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec != nil && s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "tendril-http",
		"version":     strings.TrimSpace(tendril.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) newContext(ctx context.Context, subject string) *domain.CommandContext {
	cc := domain.NewCommandContext(ctx)
	if subject != "" {
		domain.Replace(cc, domain.SubjectKey, subject)
	}
	return cc
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

// describe maps dispatch failures onto HTTP statuses.
func describe(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error(), Kind: domain.Kind(err)}

	var routeErr *domain.RoutingError
	if errors.As(err, &routeErr) {
		resp.Closest = routeErr.Closest
	}

	switch resp.Kind {
	case "routing":
		if routeErr.Reason == domain.NoSuchCommand {
			return http.StatusNotFound, resp
		}
		return http.StatusBadRequest, resp
	case "syntax", "mapping", "duplicate_flag":
		return http.StatusBadRequest, resp
	case "authorization":
		return http.StatusForbidden, resp
	case "condition":
		return http.StatusPreconditionFailed, resp
	}
	if errors.Is(err, tendril.ErrClosed) {
		resp.Kind = "closed"
		return http.StatusServiceUnavailable, resp
	}
	return http.StatusInternalServerError, resp
}

// lockedBuffer lets async handlers keep writing after the response is sent.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
