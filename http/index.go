package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/pointquad/featureflag"
	"github.com/aukilabs/pointquad/models"
	"github.com/aukilabs/pointquad/quadtree"
	"github.com/segmentio/encoding/json"
)

const (
	defaultMaxPointsPerRequest = 10000
	maxBodySize                = 32 << 20
)

// IndexHandler serves the JSON API to create, fill and query indexes.
type IndexHandler struct {
	Indexes      *models.IndexStore
	FeatureFlags featureflag.FeatureFlag

	// The maximum number of points accepted by a single insertion request.
	// Defaults to 10000.
	MaxPointsPerRequest int
}

// Register adds the index routes to mux.
func (h *IndexHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /indexes", h.HandleCreateIndex)
	mux.HandleFunc("GET /indexes", h.HandleListIndexes)
	mux.HandleFunc("GET /indexes/{id}", h.HandleGetIndex)
	mux.HandleFunc("DELETE /indexes/{id}", h.HandleDeleteIndex)
	mux.HandleFunc("POST /indexes/{id}/points", h.HandleInsertPoints)
	mux.HandleFunc("GET /indexes/{id}/points", h.HandleAllPoints)
	mux.HandleFunc("GET /indexes/{id}/circle", h.HandleFindInCircle)
	mux.HandleFunc("GET /indexes/{id}/stats", h.HandleStats)
}

type CreateIndexRequest struct {
	Name string  `json:"name"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

type IndexResponse struct {
	ID     string        `json:"id"`
	UUID   string        `json:"uuid"`
	Name   string        `json:"name"`
	Bounds quadtree.Rect `json:"bounds"`
	Size   int           `json:"size"`
}

type InsertPoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Data string  `json:"data,omitempty"`
}

type InsertPointsRequest struct {
	Points []InsertPoint `json:"points"`
}

type InsertPointsResponse struct {
	Inserted []models.Point `json:"inserted"`
	Dropped  []InsertPoint  `json:"dropped"`
}

type PointsResponse struct {
	Points []models.Point `json:"points"`
}

func (h *IndexHandler) HandleCreateIndex(w http.ResponseWriter, r *http.Request) {
	if h.FeatureFlags.IsSet(featureflag.FlagDisableIndexMutation) {
		writeError(w, errFeatureDisabled(featureflag.FlagDisableIndexMutation))
		return
	}

	var req CreateIndexRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.Name == "" {
		writeError(w, errors.New("index name is empty").WithType(ErrTypeBadRequest))
		return
	}

	id := h.Indexes.NewID()
	index, err := models.NewIndex(id, req.Name, quadtree.NewRect(req.X1, req.Y1, req.X2, req.Y2))
	if err != nil {
		h.Indexes.ReleaseID(id)
		writeError(w, err)
		return
	}

	if err := h.Indexes.Add(r.Context(), index); err != nil {
		h.Indexes.ReleaseID(index.ID)
		writeError(w, err)
		return
	}

	logs.WithTag("index_id", h.Indexes.GlobalIndexID(index.ID)).
		WithTag("index_name", index.Name).
		WithTag("bounds", index.Bounds()).
		Info("index created")

	writeJSON(w, http.StatusCreated, h.indexResponse(index))
}

func (h *IndexHandler) HandleListIndexes(w http.ResponseWriter, r *http.Request) {
	indexes := h.Indexes.Indexes()

	res := make([]IndexResponse, len(indexes))
	for i, index := range indexes {
		res[i] = h.indexResponse(index)
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *IndexHandler) HandleGetIndex(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.indexResponse(index))
}

func (h *IndexHandler) HandleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	if h.FeatureFlags.IsSet(featureflag.FlagDisableIndexMutation) {
		writeError(w, errFeatureDisabled(featureflag.FlagDisableIndexMutation))
		return
	}

	index, err := h.index(r)
	if err != nil {
		writeError(w, err)
		return
	}

	h.Indexes.Remove(r.Context(), index)

	logs.WithTag("index_id", h.Indexes.GlobalIndexID(index.ID)).
		WithTag("index_name", index.Name).
		Info("index deleted")

	w.WriteHeader(http.StatusNoContent)
}

func (h *IndexHandler) HandleInsertPoints(w http.ResponseWriter, r *http.Request) {
	if h.FeatureFlags.IsSet(featureflag.FlagReadOnly) {
		writeError(w, errFeatureDisabled(featureflag.FlagReadOnly))
		return
	}

	index, err := h.index(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req InsertPointsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if limit := h.maxPointsPerRequest(); len(req.Points) > limit {
		writeError(w, errors.New("too many points").
			WithType(ErrTypeBadRequest).
			WithTag("count", len(req.Points)).
			WithTag("max", limit))
		return
	}

	res := InsertPointsResponse{
		Inserted: make([]models.Point, 0, len(req.Points)),
		Dropped:  []InsertPoint{},
	}
	for _, p := range req.Points {
		point, ok := index.Insert(p.X, p.Y, p.Data)
		if !ok {
			res.Dropped = append(res.Dropped, p)
			continue
		}
		res.Inserted = append(res.Inserted, point)
	}

	if len(res.Dropped) != 0 {
		h.FeatureFlags.IfSet(featureflag.FlagLogDroppedPoints, func() {
			logs.WithTag("index_name", index.Name).
				WithTag("bounds", index.Bounds()).
				WithTag("dropped", res.Dropped).
				Info("points outside of index bounds are dropped")
		})
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *IndexHandler) HandleAllPoints(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PointsResponse{
		Points: nonNil(index.Points()),
	})
}

func (h *IndexHandler) HandleFindInCircle(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var x, y, radius float64
	for _, param := range []struct {
		name  string
		value *float64
	}{
		{name: "x", value: &x},
		{name: "y", value: &y},
		{name: "r", value: &radius},
	} {
		if *param.value, err = queryFloat(r, param.name); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, PointsResponse{
		Points: nonNil(index.FindInCircle(x, y, radius)),
	})
}

func (h *IndexHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, index.Stats())
}

// index returns the index designated by the id path value, which is either a
// global index id or an index name.
func (h *IndexHandler) index(r *http.Request) (*models.Index, error) {
	id := r.PathValue("id")

	if index, ok := h.Indexes.GetByGlobalID(id); ok {
		return index, nil
	}
	if index, ok := h.Indexes.GetByName(id); ok {
		return index, nil
	}

	return nil, errors.New("index not found").
		WithType(ErrTypeIndexNotFound).
		WithTag("id", id)
}

func (h *IndexHandler) indexResponse(index *models.Index) IndexResponse {
	return IndexResponse{
		ID:     h.Indexes.GlobalIndexID(index.ID),
		UUID:   index.IndexUUID,
		Name:   index.Name,
		Bounds: index.Bounds(),
		Size:   index.Size(),
	}
}

func (h *IndexHandler) maxPointsPerRequest() int {
	if h.MaxPointsPerRequest <= 0 {
		return defaultMaxPointsPerRequest
	}
	return h.MaxPointsPerRequest
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return errors.New("reading body failed").
			WithType(ErrTypeBadRequest).
			Wrap(err)
	}

	if err := json.Unmarshal(b, v); err != nil {
		return errors.New("decoding body failed").
			WithType(ErrTypeBadRequest).
			Wrap(err)
	}
	return nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, errors.New("missing query parameter").
			WithType(ErrTypeBadRequest).
			WithTag("name", name)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("invalid query parameter").
			WithType(ErrTypeBadRequest).
			WithTag("name", name).
			Wrap(err)
	}
	return v, nil
}

func errFeatureDisabled(flag featureflag.Flag) error {
	return errors.New("feature is disabled").
		WithType(ErrTypeFeatureDisabled).
		WithTag("flag", flag)
}

func nonNil(points []models.Point) []models.Point {
	if points == nil {
		return []models.Point{}
	}
	return points
}
