package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/pointquad/models"
)

type ReadyResponse struct {
	Indexes int `json:"indexes"`
	Points  int `json:"points"`
}

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HandleReadyCheck replies with the number of indexes and stored points while
// readinessCheck returns nil, and with a 503 carrying its error otherwise.
func HandleReadyCheck(indexes *models.IndexStore, readinessCheck func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := readinessCheck(); err != nil {
			writeError(w, errors.New("server is not ready").
				WithType(ErrTypeNotReady).
				Wrap(err))
			return
		}

		var res ReadyResponse
		for _, index := range indexes.Indexes() {
			res.Indexes++
			res.Points += index.Size()
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(version))
	}
}
