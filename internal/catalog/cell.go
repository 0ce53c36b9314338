package catalog

import "github.com/danmuck/recwire/internal/record"

// NewKey returns an insert key for row/family/qualifier with the default flag.
func NewKey(row, family, qualifier string) *record.Record {
	k := record.New(KeyDesc)
	mustSet(k, 1, row)
	mustSet(k, 2, family)
	mustSet(k, 3, qualifier)
	return k
}

// NewCell returns a cell for key holding value. A nil value leaves it unset.
func NewCell(key *record.Record, value []byte) *record.Record {
	c := record.New(CellDesc)
	mustSet(c, 1, key)
	if value != nil {
		mustSet(c, 2, value)
	}
	return c
}

// NewNamespaceListing returns a listing entry with both required fields set.
func NewNamespaceListing(name string, isNamespace bool) *record.Record {
	l := record.New(NamespaceListingDesc)
	mustSet(l, 1, name)
	mustSet(l, 2, isNamespace)
	return l
}

func mustSet(r *record.Record, id int16, v any) {
	if err := r.Set(id, v); err != nil {
		panic(err)
	}
}
