package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/kapu/competitor-intel-go/internal/constants"
	"github.com/kapu/competitor-intel-go/internal/domain"
	"github.com/kapu/competitor-intel-go/internal/service"
	apperrors "github.com/kapu/competitor-intel-go/pkg/errors"
	"go.uber.org/zap"
)

// Server exposes report generation as two separable resources: a progress
// feed (SSE or websocket) and a download resource for the finished PDF. This
// replaces the single-connection design where one response switched from
// event-stream headers to PDF headers mid-flight.
type Server struct {
	httpServer *http.Server
	jobs       *JobManager
	health     healthChecker
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// healthChecker reports whether the backing cache is reachable.
type healthChecker interface {
	IsConnected(ctx context.Context) bool
}

func New(addr string, jobs *JobManager, health healthChecker, logger *zap.Logger) *Server {
	s := &Server{
		jobs:   jobs,
		health: health,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/reports", s.handleCreateReport).Methods(http.MethodPost)
	router.HandleFunc("/api/reports/{id}/events", s.handleEvents).Methods(http.MethodGet)
	router.HandleFunc("/api/reports/{id}/ws", s.handleWebSocket).Methods(http.MethodGet)
	router.HandleFunc("/api/reports/{id}/download", s.handleDownload).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req domain.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.NewValidationError("malformed request body", "body", nil).AppError)
		return
	}

	// Reject before any job or progress channel exists.
	if err := service.ValidateRequest(req); err != nil {
		s.writeAnyError(w, err)
		return
	}

	// The job outlives this request; it is bounded by the pipeline itself,
	// not the creation call.
	job := s.jobs.Start(context.Background(), req)

	s.logger.Info("Report job accepted",
		zap.String("job_id", job.ID),
		zap.Int("competitors", len(req.Competitors)),
		zap.String("format", req.Format.String()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"jobId":       job.ID,
		"eventsUrl":   fmt.Sprintf("/api/reports/%s/events", job.ID),
		"wsUrl":       fmt.Sprintf("/api/reports/%s/ws", job.ID),
		"downloadUrl": fmt.Sprintf("/api/reports/%s/download", job.ID),
	})
}

type eventFrame struct {
	Message string `json:"message"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(mux.Vars(r)["id"])
	if !ok {
		s.writeError(w, apperrors.NewAppError("unknown report job", apperrors.CodeAppError, http.StatusNotFound, nil))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, apperrors.NewAppError("streaming not supported", apperrors.CodeAppError, http.StatusInternalServerError, nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for message := range job.Sink.Subscribe(r.Context()) {
		payload, err := json.Marshal(eventFrame{Message: message})
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}

	// End-of-stream marker carrying the terminal state.
	fmt.Fprintf(w, "data: {\"done\":true,\"state\":%q}\n\n", job.State())
	flusher.Flush()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(mux.Vars(r)["id"])
	if !ok {
		s.writeError(w, apperrors.NewAppError("unknown report job", apperrors.CodeAppError, http.StatusNotFound, nil))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for message := range job.Sink.Subscribe(r.Context()) {
		if err := conn.WriteJSON(eventFrame{Message: message}); err != nil {
			return
		}
	}

	_ = conn.WriteJSON(map[string]any{"done": true, "state": job.State()})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(mux.Vars(r)["id"])
	if !ok {
		s.writeError(w, apperrors.NewAppError("unknown report job", apperrors.CodeAppError, http.StatusNotFound, nil))
		return
	}

	switch job.State() {
	case JobStateComplete:
		document, _ := job.Result()
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename="+constants.ReportFilename)
		w.Header().Set("Content-Length", strconv.Itoa(len(document)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(document)

	case JobStateFailed:
		_, err := job.Result()
		s.writeAnyError(w, err)

	default:
		s.writeError(w, apperrors.NewAppError("report not ready", apperrors.CodeAppError, http.StatusConflict,
			map[string]any{"state": job.State()}))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.health != nil && !s.health.IsConnected(r.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "cache": "disconnected"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "cache": "connected"})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/reports" {
		w.Header().Set("Allow", http.MethodPost)
	} else {
		w.Header().Set("Allow", http.MethodGet)
	}
	s.writeError(w, apperrors.NewAppError("method not allowed", apperrors.CodeAppError, http.StatusMethodNotAllowed, nil))
}

// writeAnyError maps pipeline errors onto the transport: validation failures
// keep their field context, everything upstream collapses to a generic 500.
func (s *Server) writeAnyError(w http.ResponseWriter, err error) {
	var validationErr *apperrors.ValidationError
	if stderrors.As(err, &validationErr) {
		s.writeError(w, validationErr.AppError)
		return
	}

	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) && appErr.StatusCode >= 400 && appErr.StatusCode < 500 {
		s.writeError(w, appErr)
		return
	}

	s.logger.Error("Request failed", zap.Error(err))
	s.writeError(w, apperrors.NewAppError("report generation failed", apperrors.CodeService, http.StatusInternalServerError, nil))
}

func (s *Server) writeError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}
