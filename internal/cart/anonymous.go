package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/bookstore-backend/pkg/kv"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

const storeAnonymous = "anonymous"

// AnonymousStore keeps a guest cart as one JSON blob in the key-value port.
// Every mutation rewrites the whole list. Mutations are serialized per guest
// within a process; across processes the last writer wins.
type AnonymousStore struct {
	kv        kv.Store
	inventory Inventory
	locks     *stripedLocks
	key       string
	ttl       time.Duration
	fanOut    int
	now       func() time.Time
	newID     func() string
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
}

func anonymousKey(guestID string) string {
	return "cart:anon:" + guestID
}

// List returns the guest cart lines in insertion order.
func (s *AnonymousStore) List(ctx context.Context) ([]Line, error) {
	return s.load(ctx)
}

// Add puts quantity copies of a book in the cart, bumping an existing line.
func (s *AnonymousStore) Add(ctx context.Context, bookID int64, quantity int) (Line, error) {
	if quantity <= 0 {
		return Line{}, errInvalidQuantity(quantity)
	}
	book, err := s.inventory.GetBook(ctx, bookID)
	if err != nil {
		return Line{}, err
	}

	unlock := s.locks.lock(s.key)
	defer unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return Line{}, err
	}

	idx := indexOfBook(lines, bookID)
	inCart := 0
	if idx >= 0 {
		inCart = lines[idx].Quantity
	}
	if err := CheckAdd(book, inCart, quantity); err != nil {
		s.rejected(err)
		return Line{}, err
	}

	snapshot := types.SnapshotOf(book)
	if idx >= 0 {
		lines[idx].Quantity = inCart + quantity
		lines[idx].Book = snapshot
		lines[idx].Warnings = nil
	} else {
		lines = append(lines, Line{
			ID:        s.newID(),
			BookID:    bookID,
			Book:      snapshot,
			Quantity:  quantity,
			CreatedAt: s.now().UTC(),
		})
		idx = len(lines) - 1
	}

	if err := s.save(ctx, lines); err != nil {
		return Line{}, err
	}
	return lines[idx], nil
}

// Update sets the quantity of a line, bounded by its snapshot stock.
func (s *AnonymousStore) Update(ctx context.Context, lineID string, quantity int) (Line, error) {
	unlock := s.locks.lock(s.key)
	defer unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return Line{}, err
	}
	idx := indexOfLine(lines, lineID)
	if idx < 0 {
		return Line{}, ErrLineNotFound(lineID)
	}

	line := lines[idx]
	if err := CheckQuantity(line.BookID, line.Book.Stock, quantity, line.Quantity); err != nil {
		s.rejected(err)
		return Line{}, err
	}
	lines[idx].Quantity = quantity
	lines[idx].Warnings = nil

	if err := s.save(ctx, lines); err != nil {
		return Line{}, err
	}
	return lines[idx], nil
}

// Remove deletes a line; unknown ids are a no-op.
func (s *AnonymousStore) Remove(ctx context.Context, lineID string) error {
	unlock := s.locks.lock(s.key)
	defer unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOfLine(lines, lineID)
	if idx < 0 {
		return nil
	}
	lines = append(lines[:idx], lines[idx+1:]...)
	return s.save(ctx, lines)
}

// Clear drops the guest cart.
func (s *AnonymousStore) Clear(ctx context.Context) error {
	unlock := s.locks.lock(s.key)
	defer unlock()
	return s.kv.Remove(ctx, s.key)
}

// RefreshStock re-reads every line's book in parallel and replaces the
// snapshots. A line whose lookup fails keeps its previous snapshot. Quantities
// are never clamped; lines left above their refreshed stock carry a warning.
func (s *AnonymousStore) RefreshStock(ctx context.Context) ([]Line, error) {
	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return current, nil
	}

	fetched := make([]*types.Book, len(current))
	var g errgroup.Group
	g.SetLimit(s.fanOut)
	for i, line := range current {
		i, line := i, line
		g.Go(func() error {
			book, err := s.inventory.GetBook(ctx, line.BookID)
			if err != nil {
				if s.logg != nil {
					s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
						"book_id": line.BookID,
						"error":   err.Error(),
					}), "cart.refresh.lookup_failed")
				}
				return nil
			}
			fetched[i] = &book
			return nil
		})
	}
	_ = g.Wait()

	byBook := make(map[int64]types.Book, len(fetched))
	for i, book := range fetched {
		if book != nil {
			byBook[current[i].BookID] = *book
		}
	}

	unlock := s.locks.lock(s.key)
	defer unlock()

	// Reload so mutations made while the lookups were in flight are kept.
	lines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if book, ok := byBook[lines[i].BookID]; ok {
			lines[i].Book = types.SnapshotOf(book)
		}
		lines[i].Warnings = StockWarnings(lines[i])
	}
	if err := s.save(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *AnonymousStore) load(ctx context.Context) ([]Line, error) {
	var lines []Line
	err := kv.GetJSON(ctx, s.kv, s.key, &lines)
	if errors.Is(err, kv.ErrNotFound) {
		return []Line{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading guest cart: %w", err)
	}
	return lines, nil
}

func (s *AnonymousStore) save(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return s.kv.Remove(ctx, s.key)
	}
	if err := kv.SetJSON(ctx, s.kv, s.key, lines, s.ttl); err != nil {
		return fmt.Errorf("saving guest cart: %w", err)
	}
	return nil
}

func (s *AnonymousStore) rejected(err error) {
	recordRejection(s.metrics, storeAnonymous, err)
}
