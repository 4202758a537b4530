package querysql

import "strconv"

// AliasAllocator hands out table aliases (table_1, table_2, ...) for one
// compilation pass.
//
// Every SELECT level allocates one alias, so nested and self-referential
// subqueries never collide. The allocator is request-scoped: each
// compilation creates its own and discards it afterwards, so concurrent
// requests never observe each other's counters. It is not safe for
// concurrent use.
type AliasAllocator struct {
	seq int
}

// NewAliasAllocator creates an allocator whose first alias is table_1.
func NewAliasAllocator() *AliasAllocator {
	return &AliasAllocator{}
}

// Next returns a fresh alias and advances the allocator.
func (a *AliasAllocator) Next() string {
	a.seq++
	return aliasName(a.seq)
}

// Peek returns the alias the next call to Next will return, without
// consuming it. The relationship resolver uses it to name the inner alias
// of a correlated subquery before the recursive compile allocates it.
func (a *AliasAllocator) Peek() string {
	return aliasName(a.seq + 1)
}

func aliasName(n int) string {
	return "table_" + strconv.Itoa(n)
}
