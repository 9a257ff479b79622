package smoketest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/pointquad/featureflag"
	pqhttp "github.com/aukilabs/pointquad/http"
	"github.com/aukilabs/pointquad/models"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, token string, flags ...string) (*httptest.Server, *models.IndexStore) {
	store := &models.IndexStore{}
	h := &pqhttp.IndexHandler{
		Indexes:      store,
		FeatureFlags: featureflag.New(flags),
	}

	mux := http.NewServeMux()
	h.Register(mux)

	server := httptest.NewServer(pqhttp.VerifyToken(token, mux))
	t.Cleanup(server.Close)
	return server, store
}

func TestRunSmokeTest(t *testing.T) {
	t.Run("smoke test success", func(t *testing.T) {
		server, store := newTestServer(t, "secret")

		res, err := RunSmokeTest(context.Background(), Options{
			Endpoint: "http://localhost:4000",
			Token:    "secret",
		}, Request{
			Endpoint: server.URL,
			Timeout:  2,
		})
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Empty(t, res.Error)
		require.Equal(t, "http://localhost:4000", res.FromEndpoint)
		require.Equal(t, server.URL, res.ToEndpoint)
		require.NotZero(t, res.Duration)

		// the smoke test index is deleted:
		require.Empty(t, store.Indexes())
	})

	t.Run("smoke test fails without token", func(t *testing.T) {
		server, _ := newTestServer(t, "secret")

		res, err := RunSmokeTest(context.Background(), Options{}, Request{
			Endpoint: server.URL,
		})
		require.Error(t, err)
		require.Equal(t, ErrTypeSmokeTestFailed, errors.Type(err))
		require.False(t, res.Success)
		require.NotEmpty(t, res.Error)
	})

	t.Run("smoke test fails on read only server", func(t *testing.T) {
		server, store := newTestServer(t, "", string(featureflag.FlagReadOnly))

		res, err := RunSmokeTest(context.Background(), Options{}, Request{
			Endpoint: server.URL,
		})
		require.Error(t, err)
		require.False(t, res.Success)
		require.Empty(t, store.Indexes())
	})

	t.Run("smoke test fails on unexpected results", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/indexes":
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id":"tedx1"}`))
			case r.Method == http.MethodDelete:
				w.WriteHeader(http.StatusNoContent)
			default:
				w.Write([]byte(`{"inserted":[],"dropped":[]}`))
			}
		}))
		defer server.Close()

		res, err := RunSmokeTest(context.Background(), Options{}, Request{
			Endpoint: server.URL,
		})
		require.Error(t, err)
		require.False(t, res.Success)
	})
}

func TestHandleSmokeTest(t *testing.T) {
	t.Run("result is sent", func(t *testing.T) {
		server, _ := newTestServer(t, "")

		results := make(chan Results, 1)
		h := HandleSmokeTest(context.Background(), Options{
			Endpoint: "http://localhost:4000",
			SendResult: func(ctx context.Context, res Results) error {
				results <- res
				return nil
			},
		})

		body, err := json.Marshal(Request{Endpoint: server.URL, Timeout: 1})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/smoke-test", bytes.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)

		select {
		case res := <-results:
			require.True(t, res.Success)
			require.Equal(t, server.URL, res.ToEndpoint)
		case <-time.After(5 * time.Second):
			t.Fatal("smoke test result not sent")
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		h := HandleSmokeTest(context.Background(), Options{
			SendResult: func(ctx context.Context, res Results) error {
				t.Error("no result should be sent")
				return nil
			},
		})

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/smoke-test", bytes.NewReader([]byte("{"))))
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/smoke-test", bytes.NewReader([]byte(`{"endpoint":"nope"}`))))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRequestTimeout(t *testing.T) {
	for _, test := range []struct {
		body     string
		expected time.Duration
	}{
		{body: `{"endpoint":"http://localhost","timeout":5}`, expected: 5 * time.Second},
		{body: `{"endpoint":"http://localhost","timeout":0.5}`, expected: 500 * time.Millisecond},
		{body: `{"endpoint":"http://localhost"}`, expected: defaultTimeout},
		{body: `{"endpoint":"http://localhost","timeout":-3}`, expected: defaultTimeout},
	} {
		t.Run(test.body, func(t *testing.T) {
			var req Request
			require.NoError(t, json.Unmarshal([]byte(test.body), &req))
			require.Equal(t, test.expected, req.timeout())
		})
	}
}
