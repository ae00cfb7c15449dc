package tessel

import "gonum.org/v1/gonum/spatial/r3"

// primeTab is the fixed table of bucket-array sizes a midpoint cache is
// created with, mirroring spec.md §3's "next prime >= requested capacity,
// drawn from a fixed prime table" note. A cache never resizes after
// creation; a request exceeding the largest entry clamps to it.
var primeTab = []int{
	127, 251, 509, 1021, 2039, 4093, 8191, 16381, 32749, 65521,
	131071, 262139, 524287, 1048573, 2097143, 4194301, 8388593,
	16777213, 33554393, 67108859, 134217689, 268435399, 536870909,
	1073741789, 2147483647,
}

func nextPrimeCap(n int) int {
	for _, p := range primeTab {
		if p >= n {
			return p
		}
	}
	return primeTab[len(primeTab)-1]
}

// midpointEntry is one chained-hash bucket entry: an unordered vertex
// triple, stored sorted, mapping to a cached surface-evaluated
// centroid and whether that centroid lies close to a boundary edge.
type midpointEntry struct {
	i0, i1, i2 int
	close      bool
	xyz        r3.Vec
	next       *midpointEntry
}

// midpointCache memoises surface-evaluated centroids keyed by a
// triangle's unordered vertex-index triple, independent of which
// triangle currently owns that triple. Tessellate creates a fresh one
// for each of Phases A, C and 1 (see tessellate.go); there is no
// resize, matching spec.md §4.3. Those phases call find and remove but
// never add, so every find in Tessellate misses.
type midpointCache struct {
	buckets []*midpointEntry
	n       int
}

func newMidpointCache(capacityHint int) *midpointCache {
	size := nextPrimeCap(capacityHint)
	return &midpointCache{buckets: make([]*midpointEntry, size)}
}

func sortTriple(a, b, c int) (lo, mid, hi int) {
	lo, mid, hi = a, b, c
	if lo > mid {
		lo, mid = mid, lo
	}
	if mid > hi {
		mid, hi = hi, mid
	}
	if lo > mid {
		lo, mid = mid, lo
	}
	return
}

func (c *midpointCache) bucketOf(i0, i1, i2 int) int {
	sum := i0 + i1 + i2
	b := sum % len(c.buckets)
	if b < 0 {
		b += len(c.buckets)
	}
	return b
}

// find looks up the cached centroid for the triangle with this vertex
// triple. ok is false on a miss.
func (c *midpointCache) find(a, b, c2 int) (close bool, xyz r3.Vec, ok bool) {
	lo, mid, hi := sortTriple(a, b, c2)
	for e := c.buckets[c.bucketOf(lo, mid, hi)]; e != nil; e = e.next {
		if e.i0 == lo && e.i1 == mid && e.i2 == hi {
			return e.close, e.xyz, true
		}
	}
	return false, r3.Vec{}, false
}

// add inserts or overwrites the cached centroid for this vertex
// triple.
func (c *midpointCache) add(a, b, c2 int, close bool, xyz r3.Vec) {
	lo, mid, hi := sortTriple(a, b, c2)
	bucket := c.bucketOf(lo, mid, hi)
	for e := c.buckets[bucket]; e != nil; e = e.next {
		if e.i0 == lo && e.i1 == mid && e.i2 == hi {
			e.close, e.xyz = close, xyz
			return
		}
	}
	c.buckets[bucket] = &midpointEntry{i0: lo, i1: mid, i2: hi, close: close, xyz: xyz, next: c.buckets[bucket]}
	c.n++
}

// remove deletes any cached entry for this vertex triple, used when a
// triangle's vertex triple is about to be invalidated by a topology
// edit.
func (c *midpointCache) remove(a, b, c2 int) {
	lo, mid, hi := sortTriple(a, b, c2)
	bucket := c.bucketOf(lo, mid, hi)
	var prev *midpointEntry
	for e := c.buckets[bucket]; e != nil; e = e.next {
		if e.i0 == lo && e.i1 == mid && e.i2 == hi {
			if prev == nil {
				c.buckets[bucket] = e.next
			} else {
				prev.next = e.next
			}
			c.n--
			return
		}
		prev = e
	}
}
