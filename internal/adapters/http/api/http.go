// Package api declares the HTTP contracts and route registration helpers
// for the GraphQL game API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/holotrumps/pkg/logger"
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	graphqlHandler *GraphQLHandler
	logger         logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxBodyBytes int64
	logger       logger.Logger
}

// WithMaxBodyBytes caps the size of a POST /graphql body.
func WithMaxBodyBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithLogger logs requests and GraphQL errors to l.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// NewServer creates a new API server with all handlers. It fails only if
// the GraphQL schema cannot be built.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) (*Server, error) {
	o := serverOptions{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}

	schema, err := NewSchema(deps)
	if err != nil {
		return nil, err
	}

	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		graphqlHandler: NewGraphQLHandler(schema, o.maxBodyBytes, o.logger),
		logger:         o.logger,
	}, nil
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/graphql", instrument("graphql", s.logger, s.graphqlHandler.HandleGraphQL))
	mux.HandleFunc("/healthz", instrument("healthz", s.logger, s.healthHandler.HandleHealth))
	mux.HandleFunc("/stats", instrument("stats", s.logger, s.statsHandler.HandleStats))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
