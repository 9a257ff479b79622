package smoketest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	pqhttp "github.com/aukilabs/pointquad/http"
	"github.com/aukilabs/pointquad/models"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

const (
	defaultTimeout = 10 * time.Second

	ErrTypeSmokeTestFailed = "smoke_test_failed"
)

type Options struct {
	// The endpoint of the server running the smoke test.
	Endpoint  string
	UserAgent string

	// The bearer token sent to the tested endpoint.
	Token     string
	Transport http.RoundTripper

	SendResult func(context.Context, Results) error
}

type Request struct {
	Endpoint string `json:"endpoint"`

	// The smoke test timeout in seconds. Defaults to 10.
	Timeout float64 `json:"timeout"`
}

func (r Request) timeout() time.Duration {
	if !(r.Timeout > 0) {
		return defaultTimeout
	}
	return time.Duration(r.Timeout * float64(time.Second))
}

type Results struct {
	FromEndpoint string        `json:"from_endpoint"`
	ToEndpoint   string        `json:"to_endpoint"`
	Success      bool          `json:"success"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
}

// HandleSmokeTest starts a smoke test against the endpoint given in the
// request body. The result is reported with opts.SendResult once the test is
// over.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var req Request
		if err := json.Unmarshal(b, &req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, err := url.ParseRequestURI(req.Endpoint); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		go func() {
			res, err := RunSmokeTest(ctx, opts, req)
			if err != nil {
				logs.Warn(err)
			}

			if err := opts.SendResult(ctx, res); err != nil {
				logs.WithTag("from_endpoint", opts.Endpoint).
					WithTag("to_endpoint", req.Endpoint).
					Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusOK)
	}
}

// RunSmokeTest creates a temporary index on the requested endpoint, fills it
// with a known set of points and checks that a circle query returns the
// expected ones. The index is deleted before returning.
func RunSmokeTest(ctx context.Context, opts Options, req Request) (Results, error) {
	start := time.Now()
	res := Results{
		FromEndpoint: opts.Endpoint,
		ToEndpoint:   req.Endpoint,
	}

	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	c := client{
		endpoint:  req.Endpoint,
		userAgent: opts.UserAgent,
		token:     opts.Token,
		http:      &http.Client{Transport: opts.Transport},
	}

	err := c.run(ctx)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res, errors.New("smoke test failed").
			WithType(ErrTypeSmokeTestFailed).
			WithTag("to_endpoint", req.Endpoint).
			Wrap(err)
	}

	res.Success = true
	return res, nil
}

type client struct {
	endpoint  string
	userAgent string
	token     string
	http      *http.Client
}

func (c client) run(ctx context.Context) error {
	var index pqhttp.IndexResponse
	err := c.do(ctx, http.MethodPost, "/indexes", pqhttp.CreateIndexRequest{
		Name: "smoketest-" + uuid.NewString(),
		X2:   100,
		Y2:   100,
	}, http.StatusCreated, &index)
	if err != nil {
		return err
	}
	defer func() {
		// the request context may be over at this point:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.do(ctx, http.MethodDelete, "/indexes/"+index.ID, nil, http.StatusNoContent, nil); err != nil {
			logs.WithTag("index_id", index.ID).
				Warn(errors.New("deleting smoke test index failed").Wrap(err))
		}
	}()

	var inserted pqhttp.InsertPointsResponse
	err = c.do(ctx, http.MethodPost, "/indexes/"+index.ID+"/points", pqhttp.InsertPointsRequest{
		Points: []pqhttp.InsertPoint{
			{X: 50, Y: 50},
			{X: 60, Y: 40},
			{X: 40, Y: 30},
			{X: 200, Y: 200},
		},
	}, http.StatusOK, &inserted)
	if err != nil {
		return err
	}
	if len(inserted.Inserted) != 3 || len(inserted.Dropped) != 1 {
		return errors.New("unexpected insertion result").
			WithTag("inserted", len(inserted.Inserted)).
			WithTag("dropped", len(inserted.Dropped))
	}

	var found pqhttp.PointsResponse
	err = c.do(ctx, http.MethodGet, "/indexes/"+index.ID+"/circle?x=50&y=50&r=15", nil, http.StatusOK, &found)
	if err != nil {
		return err
	}
	if !samePositions(found.Points, [][2]float64{{50, 50}, {60, 40}}) {
		return errors.New("unexpected circle query result").
			WithTag("points", found.Points)
	}
	return nil
}

func (c client) do(ctx context.Context, method, path string, body any, expectedStatus int, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.New("encoding request failed").Wrap(err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reqBody)
	if err != nil {
		return errors.New("creating request failed").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errors.New("sending request failed").
			WithTag("method", method).
			WithTag("path", path).
			Wrap(err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.New("reading response failed").Wrap(err)
	}

	if res.StatusCode != expectedStatus {
		return errors.Newf("unexpected status code %d", res.StatusCode).
			WithTag("method", method).
			WithTag("path", path).
			WithTag("body", string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return errors.New("decoding response failed").Wrap(err)
	}
	return nil
}

func samePositions(points []models.Point, positions [][2]float64) bool {
	if len(points) != len(positions) {
		return false
	}

	remaining := make(map[[2]float64]int, len(positions))
	for _, p := range positions {
		remaining[p]++
	}
	for _, p := range points {
		pos := [2]float64{p.PX, p.PY}
		if remaining[pos] == 0 {
			return false
		}
		remaining[pos]--
	}
	return true
}
