// Package rpc exposes the token over HTTP: JSON-RPC on /rpc, a websocket
// event stream on /ws and Prometheus metrics on /metrics.
package rpc

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/LeJamon/goFST/internal/observability"
	"github.com/LeJamon/goFST/internal/storage/eventlog"
	"github.com/LeJamon/goFST/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodySize bounds a request body.
const maxBodySize = 1 << 20

// Config wires a Server to its dependencies. EventLog and Hub are
// optional.
type Config struct {
	Token    *token.Token
	EventLog *eventlog.Log
	Hub      *Hub
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Server handles JSON-RPC requests against a token.
type Server struct {
	registry *MethodRegistry
	token    *token.Token
	events   *eventlog.Log
	hub      *Hub
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewServer creates a server with every method registered.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		registry: NewMethodRegistry(),
		token:    cfg.Token,
		events:   cfg.EventLog,
		hub:      cfg.Hub,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With("component", "rpc"),
	}
	s.registerAllMethods()
	return s
}

// Registry returns the method registry.
func (s *Server) Registry() *MethodRegistry {
	return s.registry
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Post("/rpc", s.ServeHTTP)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.hub != nil {
		r.Get("/ws", s.hub.ServeHTTP)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP processes a POST with a JSON-RPC payload.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeResponse(w, nil, nil, ErrorInternal("Failed to read request body"))
		return
	}
	defer r.Body.Close()

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeResponse(w, nil, nil, NewError(CodeJSONInvalid, "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeResponse(w, nil, nil, NewError(CodeUnknownCommand, "missingCommand", "Missing method field"))
		return
	}

	// Params is an array holding one object.
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx := &Context{
		Context:  r.Context(),
		ClientIP: clientIP(r),
	}
	result, rpcErr := s.Execute(ctx, request.Method, params)

	requestObj := map[string]any{"command": request.Method}
	if params != nil {
		var reqMap map[string]any
		if err := json.Unmarshal(params, &reqMap); err == nil {
			reqMap["command"] = request.Method
			requestObj = reqMap
		}
	}
	s.writeResponse(w, requestObj, result, rpcErr)
}

// Execute runs a method and records its outcome.
func (s *Server) Execute(ctx *Context, method string, params json.RawMessage) (any, *Error) {
	start := time.Now()
	handler, exists := s.registry.Get(method)
	if !exists {
		s.metrics.RecordRPC("unknown", false, time.Since(start))
		return nil, ErrorMethodNotFound(method)
	}

	result, rpcErr := handler.Handle(ctx, params)
	s.metrics.RecordRPC(method, rpcErr == nil, time.Since(start))
	if rpcErr != nil {
		s.logger.Debug("rpc failed", "method", method, "client", ctx.ClientIP, "error", rpcErr.ErrorString)
	}
	return result, rpcErr
}

// writeResponse writes {"result": {...}} with status "success" or
// "error" inside result.
func (s *Server) writeResponse(w http.ResponseWriter, request any, result any, rpcErr *Error) {
	var resultObj map[string]any
	if rpcErr != nil {
		resultObj = map[string]any{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
		if request != nil {
			resultObj["request"] = request
		}
	} else if m, ok := result.(map[string]any); ok {
		resultObj = m
		resultObj["status"] = "success"
	} else {
		resultObj = map[string]any{"status": "success", "data": result}
	}

	data, err := json.Marshal(map[string]any{"result": resultObj})
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
