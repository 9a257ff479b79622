package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// ListenAndServe runs the given servers until ctx is done, then gives them
// shutdownTimeout to drain in-flight requests. It returns the first error that
// stopped a server for another reason than a shutdown.
func ListenAndServe(ctx context.Context, shutdownTimeout time.Duration, servers ...*http.Server) error {
	errs := make(chan error, len(servers))

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("starting server")

			err := s.ListenAndServe()
			if err == nil || errors.Is(err, http.ErrServerClosed) {
				logs.WithTag("addr", s.Addr).Info("server stopped")
				return
			}

			errs <- errors.New("server stopped unexpectedly").
				WithTag("addr", s.Addr).
				Wrap(err)
		}(s)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			logs.Warn(errors.New("shutting down the server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}

	wg.Wait()
	return err
}

// MetricsPathFormatter returns the path used to label request metrics. It
// returns an empty string on HTTP 301, 400, 404 or 405 status codes, and
// replaces index ids with a placeholder to keep label cardinality bounded.
func MetricsPathFormatter(statusCode int, path string) string {
	if statusCode == http.StatusMovedPermanently ||
		statusCode == http.StatusBadRequest ||
		statusCode == http.StatusNotFound ||
		statusCode == http.StatusMethodNotAllowed {
		return ""
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 && parts[1] == "indexes" && parts[2] != "" {
		parts[2] = "{id}"
	}
	return strings.Join(parts, "/")
}
