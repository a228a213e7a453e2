// Package pipeline implements a composable, lazily-evaluated collection
// algebra: a chain of map/filter/skip/take/batch/flatten/distinct
// operations recorded against a source and only driven to completion by
// a terminal operation (ToList, Reduce, Sum, ...).
package pipeline

// Item is the opaque element type the algebra operates over. The
// algebra itself never inspects an Item's shape; only user-supplied
// map/filter/reduce functions and the numeric/comparison helpers used
// by a handful of terminals do.
type Item = interface{}

// Iterator pulls items one at a time. Once Next returns ok=false it
// must keep returning ok=false; callers never call Next again after
// that, but implementations should be defensive anyway.
type Iterator interface {
	Next() (item Item, ok bool)
}

// Source produces a fresh Iterator for a pipeline to drive. A source
// may be restartable (Iterator replays the full sequence on every
// call) or single-pass (a second call to Iterator resumes or repeats
// whatever the underlying generator has left). The pipeline records
// neither fact and does not enforce either discipline; callers pairing
// Paginate or a cached pipeline with a single-pass source are
// responsible for the consequences (see §9 of the design notes this
// package implements).
type Source interface {
	Iterator() Iterator
}

type opKind int

const (
	opMap opKind = iota
	opFilter
	opSkip
	opTake
	opBatch
	opFlatten
	opDistinct
)

// operation is a tagged variant: one entry in a Pipeline's op list.
// Only the fields relevant to kind are populated.
type operation struct {
	kind   opKind
	mapFn  func(Item) Item
	predFn func(Item) bool
	n      int
}

// cacheState is the mutable, append-only memo shared by every copy of
// the Pipeline value one Cache() call returns; pipelines chained from
// that value start without a cache (see withOp). It is not safe for
// concurrent use; see the package-level concurrency note in driver.go.
type cacheState struct {
	items     []Item
	exhausted bool
	upstream  Iterator
}

// Pipeline is an immutable sequence of operations plus a source
// reference and a cache flag. Every chainable method returns a new
// Pipeline; none of them drive any iteration. Pipeline is cheap to
// copy (it holds only a source reference, an op slice, and a cache
// pointer) and is intended to be passed by value.
type Pipeline struct {
	source Source
	ops    []operation
	cached bool
	cache  *cacheState
}

// New builds a Pipeline over source with no operations and caching
// disabled.
func New(source Source) Pipeline {
	return Pipeline{source: source}
}

// withOp appends one operation and returns a new Pipeline. Per §9,
// chaining past a cached pipeline starts a fresh, uncached one unless
// Cache is called again afterward.
func (p Pipeline) withOp(op operation) Pipeline {
	ops := make([]operation, len(p.ops)+1)
	copy(ops, p.ops)
	ops[len(p.ops)] = op
	return Pipeline{source: p.source, ops: ops}
}

// Map applies fn to every item, preserving order and cardinality.
func (p Pipeline) Map(fn func(Item) Item) Pipeline {
	return p.withOp(operation{kind: opMap, mapFn: fn})
}

// Filter drops items for which pred returns false, preserving order.
func (p Pipeline) Filter(pred func(Item) bool) Pipeline {
	return p.withOp(operation{kind: opFilter, predFn: pred})
}

// Skip drops the first n items. Negative n is treated as 0.
func (p Pipeline) Skip(n int) Pipeline {
	if n < 0 {
		n = 0
	}
	return p.withOp(operation{kind: opSkip, n: n})
}

// Take yields at most the first n items, then ends. n<=0 yields none.
func (p Pipeline) Take(n int) Pipeline {
	if n < 0 {
		n = 0
	}
	return p.withOp(operation{kind: opTake, n: n})
}

// Batch groups consecutive items into []Item tuples of size size; the
// final tuple may be shorter. size must be >= 1.
func (p Pipeline) Batch(size int) (Pipeline, error) {
	if size < 1 {
		return Pipeline{}, ErrInvalidBatchSize
	}
	return p.withOp(operation{kind: opBatch, n: size}), nil
}

// Chunk is an alias for Batch.
func (p Pipeline) Chunk(size int) (Pipeline, error) {
	return p.Batch(size)
}

// Flatten is the inverse of Batch: each upstream []Item tuple is
// expanded back into its individual items, in order. Non-[]Item
// upstream values pass through as singleton chunks.
func (p Pipeline) Flatten() Pipeline {
	return p.withOp(operation{kind: opFlatten})
}

// Distinct drops items already seen, preserving first occurrence. It
// holds an unbounded set of every distinct item observed so far, so
// memory grows with the number of distinct values, not with stream
// length; non-comparable items panic when used as a map key, mirroring
// the original's reliance on hashability for set membership.
func (p Pipeline) Distinct() Pipeline {
	return p.withOp(operation{kind: opDistinct})
}

// Cache returns a clone of p with caching enabled and a fresh,
// independent cache. The first terminal operation driven against the
// returned pipeline populates the cache as it produces items; later
// terminals driven against the *same* Pipeline value replay the cache
// before resuming the source, so a handler is invoked at most once per
// item across repeated terminal calls.
func (p Pipeline) Cache() Pipeline {
	return Pipeline{source: p.source, ops: p.ops, cached: true, cache: &cacheState{}}
}
