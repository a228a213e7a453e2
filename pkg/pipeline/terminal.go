package pipeline

// terminal.go implements §4.7: the operations that drive a Pipeline's
// operation chain to produce a value. Each one calls p.iterator() to
// get the outermost transducer and pulls from it directly, so the
// short-circuit contract (stop pulling the instant the answer is
// known) falls out of returning early rather than continuing the
// loop — there is no separate cancellation signal to thread through.

// ToList realizes every item in order. O(output) memory.
func (p Pipeline) ToList() []Item {
	it := p.iterator()
	var out []Item
	for {
		item, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

// Reduce left-folds fn over the items. With no init, an empty source
// fails with ErrEmptyReduction; with init given, fn is applied
// starting from init even over an empty source (returning init
// unchanged).
func (p Pipeline) Reduce(fn func(acc, item Item) Item, init ...Item) (Item, error) {
	it := p.iterator()
	if len(init) > 0 {
		acc := init[0]
		for {
			item, ok := it.Next()
			if !ok {
				return acc, nil
			}
			acc = fn(acc, item)
		}
	}
	first, ok := it.Next()
	if !ok {
		return nil, ErrEmptyReduction
	}
	acc := first
	for {
		item, ok := it.Next()
		if !ok {
			return acc, nil
		}
		acc = fn(acc, item)
	}
}

// Sum folds items numerically, starting from start (default 0, via a
// variadic so SumFrom-style overloads aren't needed).
func (p Pipeline) Sum(start ...float64) (float64, error) {
	total := 0.0
	if len(start) > 0 {
		total = start[0]
	}
	it := p.iterator()
	for {
		item, ok := it.Next()
		if !ok {
			return total, nil
		}
		f, ok := toFloat64(item)
		if !ok {
			return 0, ErrNotNumeric(item)
		}
		total += f
	}
}

// Count returns the cardinality of the realized sequence.
func (p Pipeline) Count() int {
	it := p.iterator()
	n := 0
	for {
		if _, ok := it.Next(); !ok {
			return n
		}
		n++
	}
}

// Min returns the smallest item by natural ordering. An empty source
// fails with ErrEmptySequence unless a default is given.
func (p Pipeline) Min(defaultValue ...Item) (Item, error) {
	return p.extremum(-1, defaultValue)
}

// Max returns the largest item by natural ordering. An empty source
// fails with ErrEmptySequence unless a default is given.
func (p Pipeline) Max(defaultValue ...Item) (Item, error) {
	return p.extremum(1, defaultValue)
}

func (p Pipeline) extremum(sign int, defaultValue []Item) (Item, error) {
	it := p.iterator()
	best, ok := it.Next()
	if !ok {
		if len(defaultValue) > 0 {
			return defaultValue[0], nil
		}
		return nil, ErrEmptySequence
	}
	for {
		item, ok := it.Next()
		if !ok {
			return best, nil
		}
		if compare(item, best)*sign > 0 {
			best = item
		}
	}
}

// First returns the first item, short-circuiting after it, or default
// if the source is empty.
func (p Pipeline) First(defaultValue ...Item) Item {
	it := p.iterator()
	item, ok := it.Next()
	if !ok {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return nil
	}
	return item
}

// Last requires a full traversal; returns default if the source is
// empty.
func (p Pipeline) Last(defaultValue ...Item) Item {
	it := p.iterator()
	var last Item
	if len(defaultValue) > 0 {
		last = defaultValue[0]
	}
	for {
		item, ok := it.Next()
		if !ok {
			return last
		}
		last = item
	}
}

// Any reports whether at least one item satisfies pred (default:
// truthiness), short-circuiting on the first match.
func (p Pipeline) Any(pred ...func(Item) bool) bool {
	test := defaultPred(pred)
	it := p.iterator()
	for {
		item, ok := it.Next()
		if !ok {
			return false
		}
		if test(item) {
			return true
		}
	}
}

// All reports whether every item satisfies pred (default: truthiness),
// short-circuiting on the first counterexample.
func (p Pipeline) All(pred ...func(Item) bool) bool {
	test := defaultPred(pred)
	it := p.iterator()
	for {
		item, ok := it.Next()
		if !ok {
			return true
		}
		if !test(item) {
			return false
		}
	}
}

// Find returns the first item satisfying pred, short-circuiting, or
// ok=false if none does.
func (p Pipeline) Find(pred func(Item) bool) (Item, bool) {
	it := p.iterator()
	for {
		item, ok := it.Next()
		if !ok {
			return nil, false
		}
		if pred(item) {
			return item, true
		}
	}
}

// GroupBy realizes every item and buckets it by keyFn(item). Not
// lazy; O(output) memory.
func (p Pipeline) GroupBy(keyFn func(Item) Item) map[Item][]Item {
	it := p.iterator()
	groups := make(map[Item][]Item)
	for {
		item, ok := it.Next()
		if !ok {
			return groups
		}
		k := keyFn(item)
		groups[k] = append(groups[k], item)
	}
}

// Page returns skip((n-1)*size).take(size), failing with ErrInvalidPage
// for n < 1.
func (p Pipeline) Page(n, size int) (Pipeline, error) {
	if n < 1 {
		return Pipeline{}, ErrInvalidPage
	}
	offset := (n - 1) * size
	return p.Skip(offset).Take(size), nil
}

// Paginator lazily realizes one page at a time from a single shared
// iterator over p's chain; it does not re-traverse the source per
// page, so it is correct over single-pass sources as well as
// restartable ones.
type Paginator struct {
	it   Iterator
	size int
}

// Paginate returns a Paginator yielding pages of up to size items each,
// ending when the source is exhausted.
func (p Pipeline) Paginate(size int) *Paginator {
	return &Paginator{it: p.iterator(), size: size}
}

// Next realizes the next page, or returns ok=false once the source is
// exhausted (an empty final page is never returned).
func (pg *Paginator) Next() (page []Item, ok bool) {
	page = make([]Item, 0, pg.size)
	for len(page) < pg.size {
		item, ok := pg.it.Next()
		if !ok {
			break
		}
		page = append(page, item)
	}
	if len(page) == 0 {
		return nil, false
	}
	return page, true
}
