// Package gateway is the HTTP front door standing in for the chat host:
// it accepts paint commands over REST and exposes the metrics snapshot and
// the generation history.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"paintbot/bot"
	"paintbot/db"
	"paintbot/logging"
	"paintbot/metrics"
	"paintbot/reply"
)

// CommandRunner drives one paint command. Implemented by *bot.Bot.
type CommandRunner interface {
	HandleCommand(ctx context.Context, req bot.Request, ch bot.Channel) error
}

// HistorySource serves recent generation records. Implemented by
// *db.Repository; nil disables the history endpoint.
type HistorySource interface {
	RecentGenerations(ctx context.Context, limit int) ([]db.GenerationRecord, error)
}

// ServerConfig configures the gateway server.
type ServerConfig struct {
	// Host to bind to (default "localhost").
	Host string

	// Port to listen on (default 3080).
	Port int

	// ReadTimeout for requests (default 30s).
	ReadTimeout time.Duration

	// WriteTimeout for responses. Commands block until generation
	// finishes, so this exceeds the backend timeout (default 150s).
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown (default 15s).
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns a ServerConfig with defaults applied.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "localhost",
		Port:            3080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    150 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Server wires the command runner, metrics store, and history repository
// behind a plain ServeMux.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig
	runner     CommandRunner
	metrics    *metrics.Store
	history    HistorySource
	logger     *logging.Logger
}

// NewServer creates a configured gateway server. history may be nil.
func NewServer(config ServerConfig, runner CommandRunner, store *metrics.Store, history HistorySource, logger *logging.Logger) *Server {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 3080
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 150 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 15 * time.Second
	}

	s := &Server{
		mux:     http.NewServeMux(),
		config:  config,
		runner:  runner,
		metrics: store,
		history: history,
		logger:  logger.Named("gateway"),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.loggingHandler(s.mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/v1/messages", s.handleMessages)
	s.mux.HandleFunc("/v1/stats", s.handleStats)
	s.mux.HandleFunc("/v1/history", s.handleHistory)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until Shutdown. Blocks.
func (s *Server) Start() error {
	s.logger.Infow("Gateway listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// loggingHandler logs method, path, status, and duration for every request.
func (s *Server) loggingHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// messageRequest is one inbound paint command.
type messageRequest struct {
	ConversationID string `json:"conversation_id"`
	ChannelID      string `json:"channel_id"`
	Text           string `json:"text"`
}

// messageResponse carries the reply messages the bot produced, minus any
// it deleted before the command finished.
type messageResponse struct {
	Messages []messagePayload `json:"messages"`
}

type messagePayload struct {
	ID       string           `json:"id"`
	Segments []segmentPayload `json:"segments"`
}

type segmentPayload struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Image    string `json:"image,omitempty"`
	Censored bool   `json:"censored,omitempty"`
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ConversationID == "" || req.Text == "" {
		http.Error(w, "conversation_id and text are required", http.StatusBadRequest)
		return
	}
	if req.ChannelID == "" {
		req.ChannelID = req.ConversationID
	}

	ch := newResponseChannel()
	// Pipeline failures become user-facing messages on the channel; the
	// HTTP exchange itself still succeeds.
	if err := s.runner.HandleCommand(r.Context(), bot.Request{
		ConversationID: req.ConversationID,
		ChannelID:      req.ChannelID,
		Text:           req.Text,
	}, ch); err != nil {
		s.logger.Warnw("Command failed", "conversationId", req.ConversationID, "error", err)
	}

	resp := messageResponse{Messages: []messagePayload{}}
	for _, m := range ch.remaining() {
		payload := messagePayload{ID: m.id}
		for _, seg := range m.segments {
			payload.Segments = append(payload.Segments, encodeSegment(seg))
		}
		resp.Messages = append(resp.Messages, payload)
	}
	writeJSON(w, http.StatusOK, resp)
}

func encodeSegment(seg reply.Segment) segmentPayload {
	out := segmentPayload{Type: string(seg.Type), Censored: seg.Censored}
	switch seg.Type {
	case reply.SegmentText:
		out.Text = seg.Text
	case reply.SegmentImage:
		out.Image = base64.StdEncoding.EncodeToString(seg.Image)
	}
	return out
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	records, err := s.history.RecentGenerations(r.Context(), limit)
	if err != nil {
		s.logger.Errorw("Failed to load history", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
