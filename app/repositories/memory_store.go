package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/shashiranjanraj/storefront/app/models"
)

// ─── Table ────────────────────────────────────────────────────────────────────

// memTable is a keyed map plus an id counter that only ever grows.
type memTable[T any] struct {
	rows   map[uint]T
	nextID uint
	idOf   func(*T) *uint
	clone  func(T) T
}

func newMemTable[T any](idOf func(*T) *uint, clone func(T) T) *memTable[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &memTable[T]{rows: map[uint]T{}, nextID: 1, idOf: idOf, clone: clone}
}

func (t *memTable[T]) copy() *memTable[T] {
	out := &memTable[T]{rows: make(map[uint]T, len(t.rows)), nextID: t.nextID, idOf: t.idOf, clone: t.clone}
	for id, row := range t.rows {
		out.rows[id] = t.clone(row)
	}
	return out
}

func (t *memTable[T]) get(id uint) (T, error) {
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return t.clone(row), nil
}

// list returns rows in id order.
func (t *memTable[T]) list(keep func(T) bool) []T {
	ids := make([]uint, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		row := t.rows[id]
		if keep == nil || keep(row) {
			out = append(out, t.clone(row))
		}
	}
	return out
}

func (t *memTable[T]) create(entity *T) {
	id := t.nextID
	t.nextID++
	*t.idOf(entity) = id
	t.rows[id] = t.clone(*entity)
}

func (t *memTable[T]) update(id uint, apply func(*T) error) (T, error) {
	row, err := t.get(id)
	if err != nil {
		return row, err
	}
	if err := apply(&row); err != nil {
		var zero T
		return zero, err
	}
	*t.idOf(&row) = id
	t.rows[id] = t.clone(row)
	return row, nil
}

func (t *memTable[T]) delete(id uint) error {
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

// ─── State ────────────────────────────────────────────────────────────────────

type memState struct {
	products   *memTable[models.Product]
	categories *memTable[models.Category]
	orders     *memTable[models.Order]
	users      *memTable[models.User]
}

func newMemState() *memState {
	return &memState{
		products:   newMemTable(func(p *models.Product) *uint { return &p.ID }, models.Product.Clone),
		categories: newMemTable[models.Category](func(c *models.Category) *uint { return &c.ID }, nil),
		orders:     newMemTable(func(o *models.Order) *uint { return &o.ID }, models.Order.Clone),
		users:      newMemTable[models.User](func(u *models.User) *uint { return &u.ID }, nil),
	}
}

func (s *memState) copy() *memState {
	return &memState{
		products:   s.products.copy(),
		categories: s.categories.copy(),
		orders:     s.orders.copy(),
		users:      s.users.copy(),
	}
}

// ─── Store ────────────────────────────────────────────────────────────────────

// MemoryStore keeps every entity in process memory. It is the reference
// backend and the default for tests and local demos.
//
// Transactions hold the store's write lock for their whole duration and work
// on a copy of the state that replaces the live state only on success, so
// concurrent checkouts are serialised and a failed one leaves no trace.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
	// draft is set on the transactional view handed to Transaction callbacks.
	// Callbacks must use that view; touching the outer store would deadlock.
	draft *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (s *MemoryStore) Products() ProductRepository {
	return &memProductRepo{memRepo[models.Product]{s, func(st *memState) *memTable[models.Product] { return st.products }}}
}

func (s *MemoryStore) Categories() CategoryRepository {
	return &memCategoryRepo{memRepo[models.Category]{s, func(st *memState) *memTable[models.Category] { return st.categories }}}
}

func (s *MemoryStore) Orders() OrderRepository {
	return &memOrderRepo{memRepo[models.Order]{s, func(st *memState) *memTable[models.Order] { return st.orders }}}
}

func (s *MemoryStore) Users() UserRepository {
	return &memUserRepo{memRepo[models.User]{s, func(st *memState) *memTable[models.User] { return st.users }}}
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.draft != nil {
		// Already inside a transaction: join it.
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{draft: s.state.copy()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.draft
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// ─── Generic repository ───────────────────────────────────────────────────────

type memRepo[T any] struct {
	s     *MemoryStore
	table func(*memState) *memTable[T]
}

func (r memRepo[T]) read(fn func(*memTable[T]) error) error {
	if r.s.draft != nil {
		return fn(r.table(r.s.draft))
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return fn(r.table(r.s.state))
}

func (r memRepo[T]) write(fn func(*memTable[T]) error) error {
	if r.s.draft != nil {
		return fn(r.table(r.s.draft))
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(r.table(r.s.state))
}

func (r memRepo[T]) Get(ctx context.Context, id uint) (T, error) {
	var out T
	err := r.read(func(t *memTable[T]) error {
		var err error
		out, err = t.get(id)
		return err
	})
	return out, err
}

func (r memRepo[T]) List(ctx context.Context) ([]T, error) {
	return r.filter(nil)
}

func (r memRepo[T]) filter(keep func(T) bool) ([]T, error) {
	var out []T
	err := r.read(func(t *memTable[T]) error {
		out = t.list(keep)
		return nil
	})
	return out, err
}

func (r memRepo[T]) Create(ctx context.Context, entity *T) error {
	return r.write(func(t *memTable[T]) error {
		t.create(entity)
		return nil
	})
}

func (r memRepo[T]) Update(ctx context.Context, id uint, apply func(*T) error) (T, error) {
	var out T
	err := r.write(func(t *memTable[T]) error {
		var err error
		out, err = t.update(id, apply)
		return err
	})
	return out, err
}

func (r memRepo[T]) Delete(ctx context.Context, id uint) error {
	return r.write(func(t *memTable[T]) error { return t.delete(id) })
}

// ─── Entity repositories ──────────────────────────────────────────────────────

type memProductRepo struct{ memRepo[models.Product] }

func (r *memProductRepo) Search(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	return r.filter(f.match)
}

func (r *memProductRepo) DecrementStock(ctx context.Context, id uint, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return r.write(func(t *memTable[models.Product]) error {
		p, ok := t.rows[id]
		if !ok {
			return ErrNotFound
		}
		if p.Stock < qty {
			return ErrInsufficientStock
		}
		p.Stock -= qty
		t.rows[id] = p
		return nil
	})
}

type memCategoryRepo struct{ memRepo[models.Category] }

func (r *memCategoryRepo) Create(ctx context.Context, c *models.Category) error {
	return r.write(func(t *memTable[models.Category]) error {
		for _, row := range t.rows {
			if row.Slug == c.Slug {
				return ErrDuplicate
			}
		}
		t.create(c)
		return nil
	})
}

func (r *memCategoryRepo) Update(ctx context.Context, id uint, apply func(*models.Category) error) (models.Category, error) {
	var out models.Category
	err := r.write(func(t *memTable[models.Category]) error {
		var err error
		out, err = t.update(id, func(c *models.Category) error {
			if err := apply(c); err != nil {
				return err
			}
			for otherID, row := range t.rows {
				if otherID != id && row.Slug == c.Slug {
					return ErrDuplicate
				}
			}
			return nil
		})
		return err
	})
	return out, err
}

func (r *memCategoryRepo) FindBySlug(ctx context.Context, slug string) (models.Category, error) {
	rows, _ := r.filter(func(c models.Category) bool { return c.Slug == slug })
	if len(rows) == 0 {
		return models.Category{}, ErrNotFound
	}
	return rows[0], nil
}

type memOrderRepo struct{ memRepo[models.Order] }

func (r *memOrderRepo) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	rows, err := r.filter(func(o models.Order) bool { return status == "" || o.Status == status })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	return rows, nil
}
