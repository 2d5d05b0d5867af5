// Package api exposes the broker's nine HTTP endpoints over net/http,
// translating Broker method calls into the response schemas
// front-ends and workers expect.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/gradewatch-queue/application/broker"
	"github.com/felixgeelhaar/gradewatch-queue/infrastructure/logging"
	"github.com/felixgeelhaar/gradewatch-queue/infrastructure/worker"
)

// Config configures the HTTP surface.
type Config struct {
	// Addr is the listen address, e.g. ":9000".
	Addr string

	// Broker is the single shared broker instance every handler calls
	// into, passed explicitly rather than reached through a global.
	Broker *broker.Broker

	// ReadHeaderTimeout bounds how long a handler waits to read request
	// headers before the connection is dropped.
	ReadHeaderTimeout time.Duration
}

// Server is the broker's HTTP surface.
type Server struct {
	cfg      Config
	sessions *worker.Sessions
	httpSrv  *http.Server
}

// NewServer builds a Server wired to its Broker. It does not start
// listening until Start is called.
func NewServer(cfg Config) *Server {
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}

	s := &Server{cfg: cfg, sessions: worker.NewSessions()}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /client_model_create", s.handleClientModelCreate)
	mux.HandleFunc("GET /client_queue_has_workers", s.handleClientQueueHasWorkers)
	mux.HandleFunc("GET /client_confirm/{code}", s.handleClientConfirm)
	mux.HandleFunc("GET /worker_info", s.handleWorkerInfo)
	mux.HandleFunc("GET /worker_work_task", s.handleWorkerWorkTask)
	mux.HandleFunc("GET /worker_keep_alive_task/{id}", s.handleWorkerKeepAliveTask)
	mux.HandleFunc("GET /worker_has_task/{id}", s.handleWorkerHasTask)
	mux.HandleFunc("GET /worker_succeed_task/{id}", s.handleWorkerSucceedTask)
	mux.HandleFunc("GET /worker_failed_task/{id}", s.handleWorkerFailedTask)

	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.logRequests(mux),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s
}

// Start begins serving and blocks until the listener stops. It returns
// http.ErrServerClosed on a clean Shutdown.
func (s *Server) Start() error {
	logging.Info().Add(logging.Component("api")).Add(logging.Str("addr", s.cfg.Addr)).Msg("http surface listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debug().
			Add(logging.Component("api")).
			Add(logging.Method(r.Method)).
			Add(logging.Path(r.URL.Path)).
			Add(logging.Duration(time.Since(start))).
			Msg("request handled")
	})
}

// touchWorkerSession assigns a worker a log-correlation session id on
// first sight. Purely observational and changes no response schema.
func (s *Server) touchWorkerSession(r *http.Request) {
	id := s.sessions.IDFor(r.RemoteAddr)
	logging.Debug().Add(logging.Component("api")).Add(logging.Session(id)).Msg("worker touch")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleClientModelCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{"type": "invalid_request"}})
		return
	}
	raw := r.FormValue("task_json")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{"type": "invalid_request"}})
		return
	}

	dict, code, err := s.cfg.Broker.Submit(json.RawMessage(raw))
	if err != nil {
		logging.Warn().Add(logging.Component("api")).Add(logging.ErrorField(err)).Msg("submission rejected")
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{"type": "validation_failure"}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": map[string]any{"task": dict, "code": code},
	})
}

func (s *Server) handleClientQueueHasWorkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"response": map[string]any{"has_workers": s.cfg.Broker.HasWorkers()},
	})
}

func (s *Server) handleClientConfirm(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	status, err := s.cfg.Broker.Confirm(code)
	if err != nil {
		if errors.Is(err, broker.ErrUnknownCode) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": status})
}

func (s *Server) handleWorkerInfo(w http.ResponseWriter, r *http.Request) {
	s.touchWorkerSession(r)
	s.cfg.Broker.WorkerInfo()
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleWorkerWorkTask(w http.ResponseWriter, r *http.Request) {
	s.touchWorkerSession(r)

	t, ok := s.cfg.Broker.Poll()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"status": "empty_queue"})
		return
	}
	dict, err := t.Encode()
	if err != nil {
		logging.Error().Add(logging.Component("api")).Add(logging.TaskID(t.ID)).Add(logging.ErrorField(err)).Msg("failed to encode polled task")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]string{"type": "encode_failure"}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": dict})
}

func (s *Server) handleWorkerKeepAliveTask(w http.ResponseWriter, r *http.Request) {
	s.touchWorkerSession(r)

	id, err := parseTaskID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusOK, badIDResponse())
		return
	}
	if err := s.cfg.Broker.Heartbeat(id); err != nil {
		writeJSON(w, http.StatusOK, badIDResponse())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleWorkerHasTask(w http.ResponseWriter, r *http.Request) {
	s.touchWorkerSession(r)

	id, err := parseTaskID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"response": "no"})
		return
	}
	if s.cfg.Broker.HasTask(id) {
		writeJSON(w, http.StatusOK, map[string]any{"response": "yes"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": "no"})
}

func (s *Server) handleWorkerSucceedTask(w http.ResponseWriter, r *http.Request) {
	s.touchWorkerSession(r)

	id, err := parseTaskID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusOK, badIDResponse())
		return
	}
	if err := s.cfg.Broker.Succeed(id); err != nil {
		writeJSON(w, http.StatusOK, badIDResponse())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "okay"})
}

func (s *Server) handleWorkerFailedTask(w http.ResponseWriter, r *http.Request) {
	s.touchWorkerSession(r)

	id, err := parseTaskID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusOK, badIDResponse())
		return
	}
	if err := s.cfg.Broker.Fail(id); err != nil {
		writeJSON(w, http.StatusOK, badIDResponse())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "okay"})
}

func parseTaskID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func badIDResponse() map[string]any {
	return map[string]any{"error": map[string]string{"type": "bad_id"}}
}
