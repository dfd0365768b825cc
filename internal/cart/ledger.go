package cart

import "context"

// Store persists the full cart snapshot for a session. The stored line list is
// overwritten wholesale on every mutation and read once at session start.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]Line, error)
	Save(ctx context.Context, sessionID string, lines []Line) error
	Clear(ctx context.Context, sessionID string) error
}

// Ledger holds the line items of one session's pending order. Every mutating
// operation writes the resulting line list through to the Store before it
// returns; a failed write leaves the in-memory lines unchanged.
type Ledger struct {
	sessionID string
	store     Store
	lines     []Line
}

func NewLedger(sessionID string, store Store) *Ledger {
	return &Ledger{sessionID: sessionID, store: store}
}

// LoadLedger reads the persisted snapshot for the session.
// An absent snapshot yields an empty ledger, not an error.
func LoadLedger(ctx context.Context, sessionID string, store Store) (*Ledger, error) {
	lines, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Ledger{sessionID: sessionID, store: store, lines: lines}, nil
}

// AddLine merges the product into the ledger: an existing line with the same
// product name gains one unit, otherwise a new line with quantity 1 is
// appended. Adding is keyed by name, not id, so a renamed catalog entry makes
// a distinct line.
func (l *Ledger) AddLine(ctx context.Context, p Product) error {
	next := l.copyLines()
	merged := false
	for i := range next {
		if next[i].Name == p.Name {
			next[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  1,
		})
	}
	return l.persist(ctx, next)
}

// RemoveLine deletes the line matching name. Removing an absent name is a
// no-op and still succeeds.
func (l *Ledger) RemoveLine(ctx context.Context, name string) error {
	next := make([]Line, 0, len(l.lines))
	for _, ln := range l.lines {
		if ln.Name != name {
			next = append(next, ln)
		}
	}
	if len(next) == len(l.lines) {
		return nil
	}
	return l.persist(ctx, next)
}

// SetQuantity replaces the quantity of the named line. A quantity of zero or
// less removes the line. Quantities are not bounded against stock here; the
// order service re-validates stock on submission.
func (l *Ledger) SetQuantity(ctx context.Context, name string, qty int) error {
	if qty <= 0 {
		return l.RemoveLine(ctx, name)
	}
	next := l.copyLines()
	for i := range next {
		if next[i].Name == name {
			next[i].Quantity = qty
			return l.persist(ctx, next)
		}
	}
	return nil
}

// Clear empties the ledger and removes the persisted snapshot.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := l.store.Clear(ctx, l.sessionID); err != nil {
		return err
	}
	l.lines = nil
	return nil
}

// Reset empties the in-memory lines without touching the store. It is applied
// when an external authoritative signal (logout in another tab) reports the
// stored cart already cleared, and overrides any concurrent local edit.
func (l *Ledger) Reset() {
	l.lines = nil
}

// Subtotal is the sum of extended line prices, excluding delivery fee and
// discount. Recomputed on every call.
func (l *Ledger) Subtotal() float64 {
	var total float64
	for _, ln := range l.lines {
		total += ln.Extended()
	}
	return total
}

// ItemCount is the total unit count across all lines.
func (l *Ledger) ItemCount() int {
	var count int
	for _, ln := range l.lines {
		count += ln.Quantity
	}
	return count
}

// Lines returns a copy of the current line list.
func (l *Ledger) Lines() []Line {
	return l.copyLines()
}

func (l *Ledger) SessionID() string {
	return l.sessionID
}

func (l *Ledger) persist(ctx context.Context, next []Line) error {
	if err := l.store.Save(ctx, l.sessionID, next); err != nil {
		return err
	}
	l.lines = next
	return nil
}

func (l *Ledger) copyLines() []Line {
	next := make([]Line, len(l.lines))
	copy(next, l.lines)
	return next
}
