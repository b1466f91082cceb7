// Package server is a small HTTP service that renders posted models, for
// editors and build tools that would rather not shell out to the CLI.
package server

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/rs/zerolog"

	"github.com/tsdefgen/tsdefgen/config"
	"github.com/tsdefgen/tsdefgen/internal/errors"
	"github.com/tsdefgen/tsdefgen/provider"
	"github.com/tsdefgen/tsdefgen/typescript"
)

// DefaultMaxBodySize bounds POST /emit bodies.
const DefaultMaxBodySize = 4 << 20

// TypesHeader reports how many declarations a response contains.
const TypesHeader = "X-Tsdefgen-Types"

var schemaDecoder = schema.NewDecoder()

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// Server renders models posted to /emit.
type Server struct {
	logger       zerolog.Logger
	settings     config.Settings
	maxBody      int64
	maskInternal bool
	origins      []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSettings sets the settings query parameters start from.
func WithSettings(settings config.Settings) Option {
	return func(s *Server) { s.settings = settings }
}

// WithMaxBodySize bounds request bodies.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// WithMaskInternalErrors hides internal error messages from clients.
func WithMaskInternalErrors() Option {
	return func(s *Server) { s.maskInternal = true }
}

// WithAllowedOrigins enables CORS for browser clients on the given origins.
// "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// New returns a server with default settings and a no-op logger.
func New(opts ...Option) *Server {
	s := &Server{
		logger:   zerolog.Nop(),
		settings: config.Defaults(),
		maxBody:  DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes wrapped in CORS handling and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /emit", s.handleEmit)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/emit", "/healthz":
			s.fail(w, Errorf(CodeMethodNotAllowed, "method %s not allowed on %s", r.Method, r.URL.Path))
		default:
			s.fail(w, Errorf(CodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
		}
	})
	return s.logRequests(cors(s.origins, mux))
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "listen on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// handleEmit renders the posted model. Settings start from the server's
// and are overridden by query parameters such as ?globalScope=true.
// An empty document answers 204.
func (s *Server) handleEmit(w http.ResponseWriter, r *http.Request) {
	settings := s.settings
	if err := schemaDecoder.Decode(&settings, r.URL.Query()); err != nil {
		s.fail(w, Errorf(CodeInvalidArgument, "failed to decode query: %v", err))
		return
	}
	if err := settings.Validate(); err != nil {
		s.fail(w, invalid(err))
		return
	}

	format := provider.FormatJSON
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.Contains(mt, "yaml") {
		format = provider.FormatYAML
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.fail(w, toError(err))
		return
	}
	model, err := provider.DecodeModel(bytes.NewReader(body), format)
	if err != nil {
		s.fail(w, invalid(err))
		return
	}

	doc, err := typescript.Emit(model.Declarations, settings.Options())
	if err != nil {
		s.fail(w, toError(err))
		return
	}

	w.Header().Set(TypesHeader, strconv.Itoa(len(model.Declarations)))
	if strings.TrimSpace(doc) == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, doc); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) fail(w http.ResponseWriter, svcErr *Error) {
	if s.maskInternal && svcErr.Code == CodeInternal {
		svcErr = NewError(CodeInternal, "internal server error")
	}
	writeError(w, svcErr, s.logger)
}
