package geoviz

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
)

// pointTol is the tolerance used to express points as degenerate
// rectangles in the R-tree.
const pointTol = 1e-9

// tieSlack is how many extra neighbors are fetched beyond the requested
// count so that equal-distance ties can be broken by data index.
const tieSlack = 8

// indexEntry is one indexed data point. It satisfies rtreego.Spatial.
type indexEntry struct {
	index int
	pos   Point
}

// Bounds converts the point to an R-tree rectangle.
func (e *indexEntry) Bounds() rtreego.Rect {
	p := rtreego.Point{e.pos.X - pointTol, e.pos.Y - pointTol}
	rect, _ := rtreego.NewRect(p, []float64{2 * pointTol, 2 * pointTol})
	return rect
}

// SpatialIndex provides nearest-neighbor queries over a plotted
// dataset's 2D coordinates.
//
// The index is built once per dataset snapshot and never mutated: when
// the dataset or its plot coordinates change, the owner builds a fresh
// index and drops this one. Queries are O(log N) via an R-tree.
//
// Example:
//
//	idx, err := geoviz.BuildIndex(xs, ys)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := idx.Pick(geoviz.Pt(12.5, 48.1), geoviz.PickN(3))
type SpatialIndex struct {
	rtree   *rtreego.Rtree
	entries []*indexEntry
	values  []float64 // optional, index-aligned with the source dataset

	// autoRadius caches the estimated search radius; 0 means not yet
	// computed, since a valid estimate is always positive or +Inf.
	autoRadius float64
}

// IndexOption configures index construction.
type IndexOption func(*SpatialIndex)

// IndexValues attaches per-point data values to the index. Pick results
// report the value for each hit; without this option values are NaN.
// The slice must be index-aligned with the coordinate arrays.
func IndexValues(values []float64) IndexOption {
	return func(si *SpatialIndex) {
		si.values = values
	}
}

// BuildIndex constructs a spatial index over plot-space coordinates.
//
// Non-finite entries (NaN or Inf in either coordinate, the usual
// encoding for masked data) are excluded from the index but keep their
// original data index, so pick results refer back to the source arrays.
//
// Returns ErrEmptyDataset when no finite coordinate pair remains.
func BuildIndex(xs, ys []float64, opts ...IndexOption) (*SpatialIndex, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("build index: coordinate lengths differ (%d x, %d y)", len(xs), len(ys))
	}

	si := &SpatialIndex{}
	for _, opt := range opts {
		opt(si)
	}

	for i := range xs {
		p := Pt(xs[i], ys[i])
		if !p.IsFinite() {
			continue
		}
		si.entries = append(si.entries, &indexEntry{index: i, pos: p})
	}
	if len(si.entries) == 0 {
		return nil, fmt.Errorf("build index: %w", ErrEmptyDataset)
	}

	// 2D tree, 25..50 children per node.
	si.rtree = rtreego.NewTree(2, 25, 50)
	for _, e := range si.entries {
		si.rtree.Insert(e)
	}

	Logger().Debug("spatial index built",
		"points", len(si.entries),
		"excluded", len(xs)-len(si.entries))
	return si, nil
}

// Len returns the number of indexed (finite) points.
func (si *SpatialIndex) Len() int {
	if si == nil {
		return 0
	}
	return len(si.entries)
}

// PickHit is one picked data point.
type PickHit struct {
	Index    int     // index into the source dataset arrays
	Distance float64 // Euclidean distance from the query point
	Pos      Point   // plot-space position of the point
	Value    float64 // data value, NaN when the index carries no values
}

// PickResult is the ordered outcome of a pick query. Hits are sorted by
// distance from the effective search center, ties broken by ascending
// data index. An empty result means no point lay within the radius.
type PickResult struct {
	Query Point
	Hits  []PickHit
}

// Empty reports whether the pick found no points.
func (r PickResult) Empty() bool {
	return len(r.Hits) == 0
}

// pickConfig holds resolved pick options.
type pickConfig struct {
	n         int
	radius    float64
	radiusSet bool
	relative  bool
}

// PickOption configures a single pick query.
type PickOption func(*pickConfig)

// PickN sets the maximum number of neighbors returned. Default 1.
func PickN(n int) PickOption {
	return func(c *pickConfig) {
		c.n = n
	}
}

// PickRadius sets the search radius in plot units. Without this option
// the radius is estimated from the dataset's median nearest-neighbor
// spacing.
func PickRadius(r float64) PickOption {
	return func(c *pickConfig) {
		c.radius = r
		c.radiusSet = true
	}
}

// PickRelativeToClosest controls whether neighbors beyond the first are
// searched around the closest point's location instead of the original
// query point. Default true; this changes which points count as
// "nearest" when points cluster asymmetrically around the click.
func PickRelativeToClosest(rel bool) PickOption {
	return func(c *pickConfig) {
		c.relative = rel
	}
}

// Pick returns the nearest data points to query within the search
// radius. Returns ErrIndexNotReady when no index has been built; an
// exhausted radius yields an empty result, not an error.
func (si *SpatialIndex) Pick(query Point, opts ...PickOption) (PickResult, error) {
	if si == nil || si.rtree == nil {
		return PickResult{}, fmt.Errorf("pick: %w", ErrIndexNotReady)
	}

	cfg := pickConfig{n: 1, relative: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.n < 1 {
		cfg.n = 1
	}
	radius := cfg.radius
	if !cfg.radiusSet {
		radius = si.AutoRadius()
	}

	result := PickResult{Query: query}

	// The search center: the query itself, or the single closest point
	// when picking relative to it. The closest point is selected with
	// the same index-ascending tie-break as the result ordering.
	anchor := query
	if cfg.relative {
		closest, ok := si.closestTo(query, radius)
		if !ok {
			return result, nil
		}
		anchor = closest.pos
	}

	k := cfg.n + tieSlack
	if k > len(si.entries) {
		k = len(si.entries)
	}
	neighbors := si.rtree.NearestNeighbors(k, rtreego.Point{anchor.X, anchor.Y})

	hits := make([]PickHit, 0, len(neighbors))
	for _, sp := range neighbors {
		if sp == nil {
			continue
		}
		e := sp.(*indexEntry)
		if anchor.Distance(e.pos) > radius {
			continue
		}
		hits = append(hits, PickHit{
			Index:    e.index,
			Distance: query.Distance(e.pos),
			Pos:      e.pos,
			Value:    si.valueAt(e.index),
		})
	}

	anchorDist := func(h PickHit) float64 { return anchor.Distance(h.Pos) }
	sort.Slice(hits, func(i, j int) bool {
		di, dj := anchorDist(hits[i]), anchorDist(hits[j])
		if di != dj {
			return di < dj
		}
		return hits[i].Index < hits[j].Index
	})
	if len(hits) > cfg.n {
		hits = hits[:cfg.n]
	}
	result.Hits = hits
	return result, nil
}

// closestTo returns the single nearest indexed point to q within
// radius, ties broken by ascending data index.
func (si *SpatialIndex) closestTo(q Point, radius float64) (*indexEntry, bool) {
	k := 1 + tieSlack
	if k > len(si.entries) {
		k = len(si.entries)
	}
	neighbors := si.rtree.NearestNeighbors(k, rtreego.Point{q.X, q.Y})

	var best *indexEntry
	var bestDist float64
	for _, sp := range neighbors {
		if sp == nil {
			continue
		}
		e := sp.(*indexEntry)
		d := q.Distance(e.pos)
		if d > radius {
			continue
		}
		if best == nil || d < bestDist || (d == bestDist && e.index < best.index) {
			best, bestDist = e, d
		}
	}
	return best, best != nil
}

// valueAt returns the data value for a source index, NaN when the index
// carries no values.
func (si *SpatialIndex) valueAt(i int) float64 {
	if i < 0 || i >= len(si.values) {
		return math.NaN()
	}
	return si.values[i]
}

// AutoRadius returns the estimated pick radius: twice the median
// nearest-neighbor spacing of the dataset. Datasets with fewer than two
// distinct positions get an unbounded radius. The estimate is computed
// once and cached.
func (si *SpatialIndex) AutoRadius() float64 {
	if si.autoRadius != 0 {
		return si.autoRadius
	}
	if len(si.entries) < 2 {
		si.autoRadius = math.Inf(1)
		return si.autoRadius
	}

	// Sample at most 512 points; pan/zoom-scale datasets make the full
	// scan needlessly expensive for what is only an estimate.
	const maxSample = 512
	stride := 1
	if len(si.entries) > maxSample {
		stride = len(si.entries) / maxSample
	}

	var spacings []float64
	for i := 0; i < len(si.entries); i += stride {
		e := si.entries[i]
		nn := si.rtree.NearestNeighbors(2, rtreego.Point{e.pos.X, e.pos.Y})
		for _, sp := range nn {
			if sp == nil {
				continue
			}
			other := sp.(*indexEntry)
			if other.index == e.index {
				continue
			}
			spacings = append(spacings, e.pos.Distance(other.pos))
			break
		}
	}
	if len(spacings) == 0 {
		si.autoRadius = math.Inf(1)
		return si.autoRadius
	}

	sort.Float64s(spacings)
	median := spacings[len(spacings)/2]
	if median == 0 {
		// Degenerate dataset (all points coincident).
		si.autoRadius = math.Inf(1)
		return si.autoRadius
	}
	si.autoRadius = 2 * median
	return si.autoRadius
}
