package market

import (
	"bytes"

	"github.com/google/btree"
)

// SymbolNameLen is the fixed width of a symbol name.
const SymbolNameLen = 8

type Symbol struct {
	ID   uint32
	Name [SymbolNameLen]byte
}

// NewSymbol builds a symbol, truncating name to SymbolNameLen bytes.
func NewSymbol(id uint32, name string) Symbol {
	s := Symbol{ID: id}
	copy(s.Name[:], name)
	return s
}

func (s Symbol) String() string {
	return string(bytes.TrimRight(s.Name[:], "\x00"))
}

const symbolTreeDegree = 16

// symbolRegistry keeps registered symbols by id and in name order.
type symbolRegistry struct {
	byID   map[uint32]Symbol
	byName *btree.BTreeG[Symbol]
}

func symbolLess(a, b Symbol) bool {
	if c := bytes.Compare(a.Name[:], b.Name[:]); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

func newSymbolRegistry() *symbolRegistry {
	return &symbolRegistry{
		byID:   make(map[uint32]Symbol),
		byName: btree.NewG(symbolTreeDegree, symbolLess),
	}
}

func (r *symbolRegistry) add(s Symbol) {
	r.byID[s.ID] = s
	r.byName.ReplaceOrInsert(s)
}

func (r *symbolRegistry) remove(id uint32) {
	s, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	r.byName.Delete(s)
}

func (r *symbolRegistry) get(id uint32) (Symbol, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// lookup returns the lowest-id symbol registered under name.
func (r *symbolRegistry) lookup(name string) (Symbol, bool) {
	pivot := NewSymbol(0, name)
	var (
		found Symbol
		ok    bool
	)
	r.byName.AscendGreaterOrEqual(pivot, func(s Symbol) bool {
		ok = s.Name == pivot.Name
		found = s
		return false
	})
	return found, ok
}

func (r *symbolRegistry) list() []Symbol {
	out := make([]Symbol, 0, r.byName.Len())
	r.byName.Ascend(func(s Symbol) bool {
		out = append(out, s)
		return true
	})
	return out
}

func (r *symbolRegistry) len() int { return len(r.byID) }
