package geoviz

import "sync"

// pixmapPool is a pool for reusing Pixmap instances.
//
// The pool groups pixmaps by dimensions, allowing efficient reuse of
// identically-sized snapshots. Pan/zoom interactions invalidate every
// background snapshot at once; without pooling each rebuild would
// reallocate the full raster and churn the GC.
//
// Thread safety: all methods are safe for concurrent use.
type pixmapPool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*Pixmap
	maxSize int // max pixmaps per bucket
}

// poolKey identifies a bucket of identically-sized pixmaps.
type poolKey struct {
	width  int
	height int
}

// newPixmapPool creates a pool with the given maximum pixmaps per bucket.
// A maxPerBucket of 0 means unlimited.
func newPixmapPool(maxPerBucket int) *pixmapPool {
	return &pixmapPool{
		buckets: make(map[poolKey][]*Pixmap),
		maxSize: maxPerBucket,
	}
}

// Get retrieves a pixmap from the pool or creates a new one. A reused
// pixmap is cleared before it is returned.
func (p *pixmapPool) Get(width, height int) *Pixmap {
	key := poolKey{width: width, height: height}

	p.mu.Lock()
	bucket := p.buckets[key]
	if len(bucket) > 0 {
		pm := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		pm.Clear()
		return pm
	}
	p.mu.Unlock()

	return NewPixmap(width, height)
}

// Put returns a pixmap to the pool for reuse. If the bucket is at
// capacity the pixmap is discarded and left to the GC.
func (p *pixmapPool) Put(pm *Pixmap) {
	if pm == nil {
		return
	}

	key := poolKey{width: pm.width, height: pm.height}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, pm)
}
