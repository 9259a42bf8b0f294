package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/kv"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

type fakeInventory struct {
	mu     sync.Mutex
	books  map[int64]types.Book
	fail   map[int64]error
	lookup int
}

func newFakeInventory(books ...types.Book) *fakeInventory {
	inv := &fakeInventory{books: map[int64]types.Book{}, fail: map[int64]error{}}
	for _, b := range books {
		inv.books[b.ID] = b
	}
	return inv
}

func (f *fakeInventory) GetBook(_ context.Context, id int64) (types.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookup++
	if err, ok := f.fail[id]; ok {
		return types.Book{}, err
	}
	book, ok := f.books[id]
	if !ok {
		return types.Book{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("book %d not found", id))
	}
	return book, nil
}

func (f *fakeInventory) setStock(id int64, stock int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.books[id]
	b.Stock = stock
	f.books[id] = b
}

func book(id int64, stock int, price string) types.Book {
	return types.Book{
		ID:     id,
		Title:  fmt.Sprintf("Book %d", id),
		Author: "Author",
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
	}
}

// fakeSessionAPI plays the backend cart endpoints against the same stock rules.
type fakeSessionAPI struct {
	mu        sync.Mutex
	inventory *fakeInventory
	lines     []types.CartLine
	listCalls int
	nextID    int
	userID    string
}

func newFakeSessionAPI(inv *fakeInventory, userID string) *fakeSessionAPI {
	return &fakeSessionAPI{inventory: inv, userID: userID}
}

func (f *fakeSessionAPI) ListCart(_ context.Context, _ string) ([]types.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]types.CartLine, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeSessionAPI) AddCartItem(ctx context.Context, _ string, bookID int64, quantity int) (types.CartLine, error) {
	b, err := f.inventory.GetBook(ctx, bookID)
	if err != nil {
		return types.CartLine{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := indexOfBook(f.lines, bookID)
	inCart := 0
	if idx >= 0 {
		inCart = f.lines[idx].Quantity
	}
	if err := CheckAdd(b, inCart, quantity); err != nil {
		return types.CartLine{}, err
	}
	if idx >= 0 {
		f.lines[idx].Quantity += quantity
		f.lines[idx].Book = types.SnapshotOf(b)
		return f.lines[idx], nil
	}
	f.nextID++
	owner := f.userID
	line := types.CartLine{
		ID:        fmt.Sprintf("srv-%d", f.nextID),
		BookID:    bookID,
		Book:      types.SnapshotOf(b),
		Quantity:  quantity,
		OwnerID:   &owner,
		CreatedAt: time.Now().UTC(),
	}
	f.lines = append(f.lines, line)
	return line, nil
}

func (f *fakeSessionAPI) UpdateCartItem(ctx context.Context, _ string, lineID string, quantity int) (types.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := indexOfLine(f.lines, lineID)
	if idx < 0 {
		return types.CartLine{}, ErrLineNotFound(lineID)
	}
	line := f.lines[idx]
	b, err := f.inventory.GetBook(ctx, line.BookID)
	if err != nil {
		return types.CartLine{}, err
	}
	if err := CheckQuantity(line.BookID, b.Stock, quantity, line.Quantity); err != nil {
		return types.CartLine{}, err
	}
	f.lines[idx].Quantity = quantity
	return f.lines[idx], nil
}

func (f *fakeSessionAPI) RemoveCartItem(_ context.Context, _ string, lineID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx := indexOfLine(f.lines, lineID); idx >= 0 {
		f.lines = append(f.lines[:idx], f.lines[idx+1:]...)
	}
	return nil
}

func (f *fakeSessionAPI) ClearCart(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
	return nil
}

type fakeGuard struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{claimed: map[string]bool{}}
}

func (g *fakeGuard) Claim(_ context.Context, scope, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	key := scope + ":" + id
	if g.claimed[key] {
		return false, nil
	}
	g.claimed[key] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, scope, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, scope+":"+id)
	return nil
}

type failingKV struct {
	kv.Store
	err error
}

func (f failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, f.err
}
