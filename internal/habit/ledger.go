package habit

import "maps"

// Ledger maps canonical dates to the amount logged that day. Binary
// completions are stored as 1. Non-positive amounts are never stored.
type Ledger map[string]float64

// Amount returns the value logged on key, or 0.
func (l Ledger) Amount(key string) float64 {
	return l[key]
}

// Has reports whether anything is logged on key.
func (l Ledger) Has(key string) bool {
	_, ok := l[key]
	return ok
}

// Clone returns a copy of the ledger; nil stays an empty ledger.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return Ledger{}
	}
	return maps.Clone(l)
}

// Add accumulates amount on key and deletes the entry once it drops to 0 or below.
func (l Ledger) Add(key string, amount float64) {
	v := l[key] + amount
	if v <= 0 {
		delete(l, key)
		return
	}
	l[key] = v
}

// Flip marks key completed if it is absent and clears it otherwise.
func (l Ledger) Flip(key string) {
	if l.Has(key) {
		delete(l, key)
		return
	}
	l[key] = 1
}
