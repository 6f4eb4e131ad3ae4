package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"

	"serfdom/internal/api"
	"serfdom/internal/config"
	"serfdom/internal/ledger"
	"serfdom/internal/logging"
	"serfdom/internal/overseer"
	"serfdom/internal/task"
)

type apiServer struct {
	bind     string
	token    string
	logger   *slog.Logger
	daemon   *Daemon
	tasks    *api.TaskService
	upgrader websocket.Upgrader

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		token:  cfg.Paths.APIToken,
		logger: logger,
		daemon: d,
		tasks:  api.NewTaskService(d.store),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux.HandleFunc("/api/status", srv.authenticated(srv.handleStatus))
	mux.HandleFunc("/api/process", srv.authenticated(srv.handleProcess))
	mux.HandleFunc("/api/tasks", srv.authenticated(srv.handleTasks))
	mux.HandleFunc("/api/tasks/", srv.authenticated(srv.handleTask))
	mux.HandleFunc("/api/metrics", srv.authenticated(srv.handleMetrics))
	mux.HandleFunc("/api/queue", srv.authenticated(srv.handleQueue))
	mux.HandleFunc("/api/delegate", srv.authenticated(srv.handleDelegate))
	mux.HandleFunc("/api/delegations", srv.authenticated(srv.handleDelegations))
	mux.HandleFunc("/api/strategize", srv.authenticated(srv.handleStrategize))
	mux.HandleFunc("/api/interact", srv.authenticated(srv.handleInteract))
	mux.HandleFunc("/api/events", srv.authenticated(srv.handleEvents))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	queue := api.QueueStatusView{Active: status.Queue, Length: len(status.Queue)}
	s.writeJSON(w, http.StatusOK, api.StatusSnapshot{
		Running:      status.Running,
		PID:          status.PID,
		LedgerPath:   status.LedgerPath,
		LockFilePath: status.LockFilePath,
		LLMReady:     status.LLMReady,
		Metrics:      api.FromMetrics(status.Metrics),
		Queue:        queue,
	})
}

func (s *apiServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body api.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json payload")
		return
	}
	if strings.TrimSpace(body.RequestType) == "" {
		s.writeError(w, http.StatusBadRequest, "request_type is required")
		return
	}

	// Unknown kinds are accepted: the pipeline records a warning and
	// passes the payload through.
	kind, _ := task.ParseKind(body.RequestType)
	request := task.NewRequest(body.RequestID, kind, body.Payload, body.Priority, body.Requester, body.Metadata)

	if body.Async {
		go s.daemon.engine.ProcessRequest(s.daemon.runContext(), request)
		s.writeJSON(w, http.StatusAccepted, api.TaskView{
			RequestID: request.ID,
			Status:    string(task.StatusPending),
		})
		return
	}

	result := s.daemon.engine.ProcessRequest(r.Context(), request)
	s.writeJSON(w, http.StatusOK, api.FromResult(result))
}

func (s *apiServer) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	views, err := s.tasks.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.TaskListResponse{Tasks: views})
}

func (s *apiServer) handleTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	requestID := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if requestID == "" || strings.Contains(requestID, "/") {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	view, err := s.daemon.engine.Status(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if view.Result != nil {
		s.writeJSON(w, http.StatusOK, api.FromResult(view.Result))
		return
	}
	s.writeJSON(w, http.StatusOK, api.TaskView{
		RequestID:       view.RequestID,
		Status:          string(view.Status),
		CurrentStage:    view.CurrentStage,
		StagesCompleted: view.StagesCompleted,
	})
}

func (s *apiServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromMetrics(s.daemon.engine.Metrics()))
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	active := s.daemon.engine.QueueStatus()
	s.writeJSON(w, http.StatusOK, api.QueueStatusView{Active: active, Length: len(active)})
}

func (s *apiServer) handleDelegate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.overseer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "overseer unavailable")
		return
	}
	var body api.DelegateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json payload")
		return
	}
	if strings.TrimSpace(body.TaskDescription) == "" {
		s.writeError(w, http.StatusBadRequest, "task_description is required")
		return
	}
	record, err := s.daemon.overseer.DelegateTask(r.Context(), body.AgentType, body.TaskDescription, body.Priority, body.Context)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromDelegation(record))
}

func (s *apiServer) handleDelegations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	views, err := s.tasks.Delegations(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.DelegationListResponse{Delegations: views})
}

func (s *apiServer) handleStrategize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.overseer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "overseer unavailable")
		return
	}
	var body api.StrategizeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json payload")
		return
	}
	if strings.TrimSpace(body.Objective) == "" {
		s.writeError(w, http.StatusBadRequest, "objective is required")
		return
	}
	plan, err := s.daemon.overseer.Strategize(r.Context(), body.Objective, body.Context)
	if err != nil {
		if errors.Is(err, overseer.ErrNoModel) {
			s.writeError(w, http.StatusServiceUnavailable, "llm not configured")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

func (s *apiServer) handleInteract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.agent == nil || s.daemon.model == nil {
		s.writeError(w, http.StatusServiceUnavailable, "llm not configured")
		return
	}
	var body api.InteractRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json payload")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	response, err := s.daemon.agent.HandleInteraction(r.Context(), body.UserID, body.SessionID, body.Message)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.hub == nil {
		s.writeError(w, http.StatusNotFound, "event stream disabled")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}
	s.daemon.hub.Serve(conn)
}

// authenticated wraps next with a bearer token check. An unset token leaves
// the API open; that is the default for loopback-only deployments.
func (s *apiServer) authenticated(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || presented != s.token {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
