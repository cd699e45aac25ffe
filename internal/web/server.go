// Package web serves the library over HTTP and JSON-RPC.
package web

import (
	"context"
	"errors"
	"net/http"

	"iarchive/internal/archive"
	"iarchive/internal/library"
	"iarchive/internal/logger"
	"iarchive/internal/models"
	"iarchive/internal/query"
	"iarchive/internal/translator"
	"iarchive/internal/uri"
)

// Library is the set of library operations the server exposes.
type Library interface {
	Root() models.Ref
	Browse(ctx context.Context, uri string) ([]models.Ref, error)
	Search(ctx context.Context, fields map[string][]string, uris []string, exact bool) (*models.SearchResult, error)
	Lookup(ctx context.Context, uri string) ([]models.Track, error)
	Images(ctx context.Context, uris []string) (map[string][]models.Image, error)
	Refresh() error
}

var _ Library = (*library.Provider)(nil)

type Server struct {
	library Library
	logger  *logger.Logger
}

func NewServer(lib Library, log *logger.Logger) *Server {
	return &Server{
		library: lib,
		logger:  log,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/browse", s.handleBrowse)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/lookup", s.handleLookup)
	mux.HandleFunc("/api/images", s.handleImages)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// statusFor maps a library error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, query.ErrEmptyQuery),
		errors.Is(err, query.ErrInvalidField),
		errors.Is(err, query.ErrMissingValue),
		errors.Is(err, translator.ErrInvalidURI),
		errors.Is(err, translator.ErrExactNotSupported),
		errors.Is(err, uri.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, archive.ErrNotFound),
		errors.Is(err, library.ErrTrackNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
