package market

import "slices"

// ListingStore is the ordered set of listings, newest first. Only the Engine
// changes it.
type ListingStore struct {
	items []Listing
}

func newListingStore(items []Listing) *ListingStore {
	return &ListingStore{items: slices.Clone(items)}
}

// Snapshot returns a copy of all listings, newest first.
func (s *ListingStore) Snapshot() []Listing {
	return slices.Clone(s.items)
}

func (s *ListingStore) Len() int {
	return len(s.items)
}

func (s *ListingStore) Get(id string) (Listing, bool) {
	i := s.index(id)
	if i < 0 {
		return Listing{}, false
	}

	return s.items[i], true
}

func (s *ListingStore) index(id string) int {
	return slices.IndexFunc(s.items, func(l Listing) bool { return l.ID == id })
}

// withCreated returns the listings with l inserted at the head. The store
// itself is unchanged until set is called.
func (s *ListingStore) withCreated(l Listing) []Listing {
	next := make([]Listing, 0, len(s.items)+1)
	next = append(next, l)

	return append(next, s.items...)
}

// withReplaced returns the listings with the entry sharing l's id swapped
// for l, keeping its position.
func (s *ListingStore) withReplaced(l Listing) []Listing {
	next := slices.Clone(s.items)
	if i := s.index(l.ID); i >= 0 {
		next[i] = l
	}

	return next
}

func (s *ListingStore) set(items []Listing) {
	s.items = items
}

// Ledger is the append-only record of trades, newest first.
type Ledger struct {
	entries []Transaction
}

func newLedger(entries []Transaction) *Ledger {
	return &Ledger{entries: slices.Clone(entries)}
}

// Snapshot returns a copy of all entries, newest first.
func (l *Ledger) Snapshot() []Transaction {
	return slices.Clone(l.entries)
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

func (l *Ledger) withAppended(tx Transaction) []Transaction {
	next := make([]Transaction, 0, len(l.entries)+1)
	next = append(next, tx)

	return append(next, l.entries...)
}

func (l *Ledger) set(entries []Transaction) {
	l.entries = entries
}
