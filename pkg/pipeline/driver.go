package pipeline

// driver.go builds the per-iteration chain of single-pass transducers
// described in §4.6/§9: one Iterator wrapper per recorded operation,
// pulled lazily from a terminal operation. No op buffers more than it
// strictly needs (batch holds the in-flight tuple; skip holds a
// counter; take holds a counter); none of this package's types launch
// goroutines, so a Pipeline and its Cache are single-threaded and not
// safe for concurrent iteration, matching §5's lazy-pipeline model.

// iterator returns the Iterator a terminal operation should drive: the
// raw operation chain, or (when caching is enabled) a view that
// replays the cache before resuming the chain.
func (p Pipeline) iterator() Iterator {
	if p.cached {
		return &cachedIterator{state: p.cache, build: p.buildChain}
	}
	return p.buildChain()
}

// buildChain wraps a fresh source Iterator in one transducer per
// recorded operation, in declared order.
func (p Pipeline) buildChain() Iterator {
	it := p.source.Iterator()
	for _, op := range p.ops {
		it = applyOp(op, it)
	}
	return it
}

func applyOp(op operation, upstream Iterator) Iterator {
	switch op.kind {
	case opMap:
		return &mapIterator{upstream: upstream, fn: op.mapFn}
	case opFilter:
		return &filterIterator{upstream: upstream, pred: op.predFn}
	case opSkip:
		return &skipIterator{upstream: upstream, remaining: op.n}
	case opTake:
		return &takeIterator{upstream: upstream, remaining: op.n}
	case opBatch:
		return &batchIterator{upstream: upstream, size: op.n}
	case opFlatten:
		return &flattenIterator{upstream: upstream}
	case opDistinct:
		return &distinctIterator{upstream: upstream, seen: make(map[Item]struct{})}
	default:
		panic("pipeline: unknown operation")
	}
}

// cachedIterator replays state's realized prefix, then pulls the
// underlying chain (building it lazily, once, on first use past the
// cache) and appends each new item to state before yielding it.
type cachedIterator struct {
	state *cacheState
	build func() Iterator
	pos   int
}

func (c *cachedIterator) Next() (Item, bool) {
	if c.pos < len(c.state.items) {
		item := c.state.items[c.pos]
		c.pos++
		return item, true
	}
	if c.state.exhausted {
		return nil, false
	}
	if c.state.upstream == nil {
		c.state.upstream = c.build()
	}
	item, ok := c.state.upstream.Next()
	if !ok {
		c.state.exhausted = true
		return nil, false
	}
	c.state.items = append(c.state.items, item)
	c.pos = len(c.state.items)
	return item, true
}

type mapIterator struct {
	upstream Iterator
	fn       func(Item) Item
}

func (m *mapIterator) Next() (Item, bool) {
	item, ok := m.upstream.Next()
	if !ok {
		return nil, false
	}
	return m.fn(item), true
}

type filterIterator struct {
	upstream Iterator
	pred     func(Item) bool
}

func (f *filterIterator) Next() (Item, bool) {
	for {
		item, ok := f.upstream.Next()
		if !ok {
			return nil, false
		}
		if f.pred(item) {
			return item, true
		}
	}
}

type skipIterator struct {
	upstream  Iterator
	remaining int
}

func (s *skipIterator) Next() (Item, bool) {
	for s.remaining > 0 {
		if _, ok := s.upstream.Next(); !ok {
			return nil, false
		}
		s.remaining--
	}
	return s.upstream.Next()
}

type takeIterator struct {
	upstream  Iterator
	remaining int
}

func (t *takeIterator) Next() (Item, bool) {
	if t.remaining <= 0 {
		return nil, false
	}
	item, ok := t.upstream.Next()
	if !ok {
		t.remaining = 0
		return nil, false
	}
	t.remaining--
	return item, true
}

type batchIterator struct {
	upstream Iterator
	size     int
	done     bool
}

func (b *batchIterator) Next() (Item, bool) {
	if b.done {
		return nil, false
	}
	bucket := make([]Item, 0, b.size)
	for len(bucket) < b.size {
		item, ok := b.upstream.Next()
		if !ok {
			b.done = true
			break
		}
		bucket = append(bucket, item)
	}
	if len(bucket) == 0 {
		return nil, false
	}
	return bucket, true
}

type flattenIterator struct {
	upstream Iterator
	current  []Item
	idx      int
}

func (f *flattenIterator) Next() (Item, bool) {
	for {
		if f.idx < len(f.current) {
			item := f.current[f.idx]
			f.idx++
			return item, true
		}
		next, ok := f.upstream.Next()
		if !ok {
			return nil, false
		}
		if chunk, ok := next.([]Item); ok {
			f.current = chunk
		} else {
			f.current = []Item{next}
		}
		f.idx = 0
	}
}

type distinctIterator struct {
	upstream Iterator
	seen     map[Item]struct{}
}

func (d *distinctIterator) Next() (Item, bool) {
	for {
		item, ok := d.upstream.Next()
		if !ok {
			return nil, false
		}
		if _, dup := d.seen[item]; dup {
			continue
		}
		d.seen[item] = struct{}{}
		return item, true
	}
}
