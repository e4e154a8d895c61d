package cpool

import (
	"github.com/deepnoodle-ai/javabinary/errors"
)

// maxEntries is the largest pool count representable in the u2 header.
const maxEntries = 0xFFFF

// Pool is a constant pool. Slot 0 is reserved and the slot after a Long or
// Double is an unusable padding slot.
//
// A Pool is not safe for concurrent use. Each class read or written owns
// its own pool.
type Pool struct {
	entries   []Entry
	lookup    map[Entry]uint16
	closed    bool
	cache     map[cacheKey]any
	bootstrap []BootstrapMethod
}

type cacheKey struct {
	index uint16
	as    uint8
}

// New returns an empty, editable pool.
func New() *Pool {
	return &Pool{
		entries: []Entry{nil},
		lookup:  map[Entry]uint16{},
		cache:   map[cacheKey]any{},
	}
}

// Len returns the pool count as written in the class-file header: one more
// than the highest usable index.
func (p *Pool) Len() int {
	return len(p.entries)
}

// Closed reports whether the pool has been frozen by Read or Write.
func (p *Pool) Closed() bool {
	return p.closed
}

// Close freezes the pool. Put calls for entries not already present fail
// afterwards.
func (p *Pool) Close() {
	p.closed = true
}

// Get returns the entry at index.
func (p *Pool) Get(index uint16) (Entry, bool) {
	if int(index) >= len(p.entries) {
		return nil, false
	}
	e := p.entries[index]
	return e, e != nil
}

// Entries calls fn for each occupied slot in index order.
func (p *Pool) Entries(fn func(index uint16, e Entry)) {
	for i, e := range p.entries {
		if e != nil {
			fn(uint16(i), e)
		}
	}
}

// Put returns the index of an entry structurally equal to e, appending e
// if there is none.
func (p *Pool) Put(e Entry) (uint16, error) {
	if index, ok := p.lookup[e]; ok {
		return index, nil
	}
	if p.closed {
		return 0, errors.New(errors.E2002, "constant pool is not editable")
	}
	width := 1
	if e.Tag().Wide() {
		width = 2
	}
	if len(p.entries)+width > maxEntries {
		return 0, errors.New(errors.E3008, "too many constants (limit %d)", maxEntries-1)
	}
	index := uint16(len(p.entries))
	p.entries = append(p.entries, e)
	if width == 2 {
		p.entries = append(p.entries, nil)
	}
	p.lookup[e] = index
	return index, nil
}

// Lookup returns the entry at index as a T, failing with a reference error
// if the slot is empty or holds another kind of entry.
func Lookup[T Entry](p *Pool, index uint16) (T, error) {
	var zero T
	e, ok := p.Get(index)
	if !ok {
		return zero, errors.New(errors.E2001, "constant #%d is empty, expected %s", index, expected(zero))
	}
	t, ok := e.(T)
	if !ok {
		return zero, errors.New(errors.E2001, "constant #%d is %s, expected %s", index, e.Tag(), expected(zero))
	}
	return t, nil
}

func expected(e Entry) string {
	if _, ok := e.(MemberEntry); ok {
		return "member reference"
	}
	return e.Tag().String()
}

// memo returns the cached resolution of index under the given role,
// computing and storing it on first use.
func memo[T any](p *Pool, index uint16, as uint8, resolve func() (T, error)) (T, error) {
	key := cacheKey{index: index, as: as}
	if v, ok := p.cache[key]; ok {
		return v.(T), nil
	}
	v, err := resolve()
	if err != nil {
		return v, err
	}
	p.cache[key] = v
	return v, nil
}
