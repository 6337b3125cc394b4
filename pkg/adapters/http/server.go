package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/vemulator/pkg/bus"
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/scenario"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

const maxBodyBytes = 1 << 20

// Engine is the part of the emulator the control API drives.
type Engine interface {
	Status() domain.Status
	Pause()
	Resume()
	Stop()
	Values() map[string]domain.Value
	Lookup(name string) (domain.FieldKey, bool)
	Overwrite(key domain.FieldKey, queue []scenario.Scenario) error
}

// Builder turns scenario nodes into a queue for Overwrite.
type Builder interface {
	BuildList(nodes []any, fp scenario.FieldProps) ([]scenario.Scenario, error)
}

// Server serves the control API.
type Server struct {
	Engine  Engine
	Builder Builder
	Bus     *bus.Bus
	Info    map[string]string

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithBuilder enables PUT /fields/{name}.
func WithBuilder(b Builder) Option {
	return func(s *Server) { s.Builder = b }
}

// WithBus enables the GET /events stream.
func WithBus(b *bus.Bus) Option {
	return func(s *Server) { s.Bus = b }
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithInfo sets the document returned by GET /info.
func WithInfo(info map[string]string) Option {
	return func(s *Server) { s.Info = info }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine: engine,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Post("/pause", s.control(engine.Pause))
	r.Post("/resume", s.control(engine.Resume))
	r.Post("/stop", s.control(engine.Stop))
	r.Route("/fields", func(r chi.Router) {
		r.Get("/", s.GetFields)
		r.Get("/{name}", s.GetField)
		r.Put("/{name}", s.PutField)
	})
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]string{"app": "vemulator-http"}
	for k, v := range s.Info {
		info[k] = v
	}
	s.writeJSON(w, http.StatusOK, info)
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]domain.Status{"status": s.Engine.Status()})
}

// control wraps a lifecycle call and answers with the resulting status.
func (s *Server) control(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn()
		s.logger.Info("control request", "path", r.URL.Path, "status", s.Engine.Status())
		s.writeJSON(w, http.StatusAccepted, map[string]domain.Status{"status": s.Engine.Status()})
	}
}

// GetFields handles the GET /fields request.
func (s *Server) GetFields(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Values())
}

// GetField handles the GET /fields/{name} request. A field that has not
// produced a value yet reports null.
func (s *Server) GetField(w http.ResponseWriter, r *http.Request) {
	key, ok := s.Engine.Lookup(chi.URLParam(r, "name"))
	if !ok {
		http.Error(w, "Unknown field", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, fieldResponse{
		Key:   key.String(),
		Value: s.Engine.Values()[key.DisplayName()],
	})
}

type fieldResponse struct {
	Key   string       `json:"key"`
	Value domain.Value `json:"value"`
}

// overwriteRequest is decoded with yaml.v3, so JSON and YAML bodies both work
// and integers stay integers.
type overwriteRequest struct {
	Values []any `yaml:"values"`
}

// PutField handles the PUT /fields/{name} request by replacing the field's
// scenario queue.
func (s *Server) PutField(w http.ResponseWriter, r *http.Request) {
	if s.Builder == nil {
		http.Error(w, "Overwrite not enabled", http.StatusNotImplemented)
		return
	}
	key, ok := s.Engine.Lookup(chi.URLParam(r, "name"))
	if !ok {
		http.Error(w, "Unknown field", http.StatusNotFound)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	var body overwriteRequest
	if err := yaml.Unmarshal(data, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PutField: invalid request body", "err", err)
		return
	}
	if len(body.Values) == 0 {
		http.Error(w, "values must not be empty", http.StatusBadRequest)
		return
	}

	queue, err := s.Builder.BuildList(body.Values, scenario.FieldProps{Key: key})
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid scenarios: %v", err), http.StatusBadRequest)
		return
	}
	if err := s.Engine.Overwrite(key, queue); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUnknownField) {
			code = http.StatusNotFound
		}
		http.Error(w, fmt.Sprintf("Overwrite error: %v", err), code)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"key": key.String(), "scenarios": len(queue)})
}

type streamEvent struct {
	Topic bus.Topic     `json:"topic"`
	Key   string        `json:"key"`
	Value *domain.Value `json:"value,omitempty"`
	Hex   string        `json:"hex,omitempty"`
}

var watchTopics = map[string]bus.Topic{
	"field":     bus.TopicFieldUpdate,
	"hex":       bus.TopicHexUpdate,
	"overwrite": bus.TopicOverwrite,
}

// SubscribeEvents handles the GET /events request (SSE). The optional watch
// parameter is a comma separated subset of field, hex and overwrite.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if s.Bus == nil {
		http.Error(w, "Event stream not enabled", http.StatusNotImplemented)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	topics := []bus.Topic{bus.TopicFieldUpdate, bus.TopicHexUpdate, bus.TopicOverwrite}
	if watch := r.URL.Query().Get("watch"); watch != "" {
		topics = topics[:0]
		for _, name := range strings.Split(watch, ",") {
			t, ok := watchTopics[strings.TrimSpace(name)]
			if !ok {
				http.Error(w, fmt.Sprintf("Unknown watch topic %q", name), http.StatusBadRequest)
				return
			}
			topics = append(topics, t)
		}
	}

	sub := s.Bus.Subscribe(topics...)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Ready():
			for _, e := range sub.Drain() {
				se := streamEvent{Topic: e.Topic, Key: e.Key.String(), Hex: e.Hex}
				if e.Topic == bus.TopicFieldUpdate {
					se.Value = &e.Value
				}
				data, err := json.Marshal(se)
				if err != nil {
					s.logger.Error("SSE: event encode failed", "err", err)
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Topic, data)
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
