package models

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/pointquad/quadtree"
	"github.com/google/uuid"
)

// Index is a named point quadtree that can be used from multiple goroutines.
// Inserts are exclusive, queries are shared.
type Index struct {
	ID        uint32
	IndexUUID string
	Name      string

	pointIDs SequentialIDGenerator

	mutex sync.RWMutex
	tree  *quadtree.Tree[Point]
}

// NewIndex returns an empty index over the given bounds.
func NewIndex(id uint32, name string, bounds quadtree.Rect) (*Index, error) {
	if err := validateBounds(bounds); err != nil {
		return nil, err
	}

	return &Index{
		ID:        id,
		IndexUUID: uuid.New().String(),
		Name:      name,
		tree:      quadtree.NewTree[Point](bounds.X1, bounds.Y1, bounds.X2, bounds.Y2),
	}, nil
}

func validateBounds(r quadtree.Rect) error {
	for _, v := range []float64{r.X1, r.Y1, r.X2, r.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("index bounds are not finite").
				WithType(ErrTypeBadBounds).
				WithTag("bounds", r)
		}
	}

	if !r.Valid() {
		return errors.New("index bounds are inverted").
			WithType(ErrTypeBadBounds).
			WithTag("bounds", r)
	}
	return nil
}

func (i *Index) Bounds() quadtree.Rect {
	return i.tree.Rect()
}

// Insert stores a point at (x, y). It returns the stored point and whether it
// was stored: points outside of the index bounds are dropped.
func (i *Index) Insert(x, y float64, data string) (Point, bool) {
	p := Point{
		ID:   i.pointIDs.New(),
		PX:   x,
		PY:   y,
		Data: data,
	}

	i.mutex.Lock()
	inserted := i.tree.Insert(p)
	i.mutex.Unlock()

	instrumentInsert(i.Name, inserted)

	if !inserted {
		i.pointIDs.Reuse(p.ID)
		p.ID = 0

		logs.WithTag("index", i.Name).
			WithTag("x", x).
			WithTag("y", y).
			Debug("point outside of index bounds is dropped")
	}
	return p, inserted
}

func (i *Index) Size() int {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	return i.tree.Size()
}

// Points returns all the points stored in the index.
func (i *Index) Points() []Point {
	start := time.Now()

	i.mutex.RLock()
	points := i.tree.AllPoints()
	i.mutex.RUnlock()

	instrumentQuery(i.Name, queryAll, start, len(points))
	return points
}

// FindInCircle returns the points whose distance to (cx, cy) is at most cr,
// sorted by id.
func (i *Index) FindInCircle(cx, cy, cr float64) []Point {
	start := time.Now()

	i.mutex.RLock()
	points := i.tree.FindInCircle(cx, cy, cr)
	i.mutex.RUnlock()

	sort.Slice(points, func(a, b int) bool {
		return points[a].ID < points[b].ID
	})

	instrumentQuery(i.Name, queryCircle, start, len(points))
	return points
}

func (i *Index) Stats() quadtree.Stats {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	return i.tree.Stats()
}

// IndexStore holds the indexes of a server.
type IndexStore struct {
	// The id of the server, used as a prefix of global index ids.
	ServerID string

	initOnce sync.Once
	mutex    sync.RWMutex
	indexes  map[string]*Index
	names    map[string]*Index
	ids      SequentialIDGenerator
}

func (s *IndexStore) init() {
	s.indexes = make(map[string]*Index)
	s.names = make(map[string]*Index)

	if s.ServerID == "" {
		s.ServerID = "ted"
	}
}

func (s *IndexStore) NewID() uint32 {
	return s.ids.New()
}

// ReleaseID makes an id returned by NewID available again. It is meant for
// ids of indexes that could not be added.
func (s *IndexStore) ReleaseID(id uint32) {
	s.ids.Reuse(id)
}

// Add registers an index. Index names are unique and cannot take the form of
// a global index id.
func (s *IndexStore) Add(ctx context.Context, index *Index) error {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isGlobalIndexID(index.Name) {
		return errors.New("index name is shaped like a global index id").
			WithType(ErrTypeBadIndexName).
			WithTag("name", index.Name)
	}

	if _, ok := s.names[index.Name]; ok {
		return errors.New("index already exists").
			WithType(ErrTypeIndexAlreadyExists).
			WithTag("name", index.Name)
	}

	s.indexes[s.GlobalIndexID(index.ID)] = index
	s.names[index.Name] = index

	instrumentIncreaseIndexGauge()
	return nil
}

func (s *IndexStore) Remove(ctx context.Context, index *Index) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// The id of a removed index can be handed to a new one, so a stale
	// handle must not remove its successor.
	globalID := s.GlobalIndexID(index.ID)
	if s.indexes[globalID] != index {
		return
	}

	delete(s.indexes, globalID)
	delete(s.names, index.Name)
	s.ids.Reuse(index.ID)

	instrumentDecreaseIndexGauge()
	instrumentRemoveIndex(index.Name)
}

func (s *IndexStore) GetByGlobalID(v string) (*Index, bool) {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	index, ok := s.indexes[v]
	return index, ok
}

func (s *IndexStore) GetByName(name string) (*Index, bool) {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	index, ok := s.names[name]
	return index, ok
}

// Indexes returns the registered indexes ordered by id.
func (s *IndexStore) Indexes() []*Index {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	indexes := make([]*Index, 0, len(s.indexes))
	for _, index := range s.indexes {
		indexes = append(indexes, index)
	}
	s.mutex.RUnlock()

	sort.Slice(indexes, func(i, j int) bool {
		return indexes[i].ID < indexes[j].ID
	})
	return indexes
}

func (s *IndexStore) GlobalIndexID(indexID uint32) string {
	s.initOnce.Do(s.init)
	return fmt.Sprintf("%sx%x", s.ServerID, indexID)
}

func (s *IndexStore) isGlobalIndexID(v string) bool {
	hexID, ok := strings.CutPrefix(v, s.ServerID+"x")
	if !ok || hexID == "" {
		return false
	}
	_, err := strconv.ParseUint(hexID, 16, 32)
	return err == nil
}
