package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"github.com/google/uuid"
)

// fakeTx runs fn without a database. Fakes ignore the executor.
type fakeTx struct {
	calls int
}

func (t *fakeTx) WithinTx(fn func(exec repositories.SQLExecutor) error) error {
	t.calls++
	return fn(nil)
}

func notFound(what string, id interface{}) error {
	return fmt.Errorf("%w: %s %v", repositories.ErrNotFound, what, id)
}

func duplicate(constraint string) error {
	return fmt.Errorf("%w: duplicate (constraint: %s)", repositories.ErrDuplicateKey, constraint)
}

// --- orders ---

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[int64]*models.Order
	nextID int64
	// activeLookups counts FindActiveByTable calls.
	activeLookups int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*models.Order{}, nextID: 1}
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderLine(nil), o.Items...)
	if o.Phone != nil {
		p := *o.Phone
		c.Phone = &p
	}
	if o.FinalizedAt != nil {
		f := *o.FinalizedAt
		c.FinalizedAt = &f
	}
	return &c
}

// checkIndexes mirrors the partial unique indexes on orders.
func (r *fakeOrderRepo) checkIndexes(o *models.Order) error {
	for id, other := range r.orders {
		if id == o.ID || other.TableNumber != o.TableNumber {
			continue
		}
		if o.Status == models.OrderStatusDraft && other.Status == models.OrderStatusDraft {
			return duplicate(repositories.ConstraintOneDraftPerTable)
		}
		if o.Status.IsActive() && other.Status.IsActive() {
			return duplicate(repositories.ConstraintOneActivePerTable)
		}
	}
	return nil
}

// put stores an order directly, bypassing the indexes.
func (r *fakeOrderRepo) put(o models.Order) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == 0 {
		o.ID = r.nextID
		r.nextID++
	}
	r.orders[o.ID] = cloneOrder(&o)
	return o.ID
}

func (r *fakeOrderRepo) get(id int64) *models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		return cloneOrder(o)
	}
	return nil
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func (r *fakeOrderRepo) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkIndexes(order); err != nil {
		return 0, err
	}
	order.ID = r.nextID
	r.nextID++
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = cloneOrder(order)
	return order.ID, nil
}

func (r *fakeOrderRepo) GetOrderByID(_ repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	if o := r.get(orderID); o != nil {
		return o, nil
	}
	return nil, notFound("order", orderID)
}

func (r *fakeOrderRepo) LockOrder(exec repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	return r.GetOrderByID(exec, orderID)
}

func (r *fakeOrderRepo) FindDraftByTable(_ repositories.SQLExecutor, tableNumber int, _ bool) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.TableNumber == tableNumber && o.Status == models.OrderStatusDraft {
			return cloneOrder(o), nil
		}
	}
	return nil, notFound("draft for table", tableNumber)
}

func (r *fakeOrderRepo) FindActiveByTable(_ repositories.SQLExecutor, tableNumber int) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeLookups++
	for _, o := range r.orders {
		if o.TableNumber == tableNumber && o.Status.IsActive() {
			return cloneOrder(o), nil
		}
	}
	return nil, notFound("active order for table", tableNumber)
}

func (r *fakeOrderRepo) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if filters.TableNumber != nil && o.TableNumber != *filters.TableNumber {
			continue
		}
		if len(filters.Statuses) > 0 {
			match := false
			for _, s := range filters.Statuses {
				if o.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *fakeOrderRepo) UpdateOrder(_ repositories.SQLExecutor, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return notFound("order", order.ID)
	}
	if err := r.checkIndexes(order); err != nil {
		return err
	}
	stored := cloneOrder(order)
	stored.UpdatedAt = time.Now()
	r.orders[order.ID] = stored
	return nil
}

func (r *fakeOrderRepo) ReplaceOrderItems(_ repositories.SQLExecutor, orderID int64, items []models.OrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return notFound("order", orderID)
	}
	o.Items = append([]models.OrderLine(nil), items...)
	return nil
}

func (r *fakeOrderRepo) DeleteOrdersByStatus(_ repositories.SQLExecutor, statuses []models.OrderStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, o := range r.orders {
		for _, s := range statuses {
			if o.Status == s {
				delete(r.orders, id)
				n++
				break
			}
		}
	}
	return n, nil
}

// --- menu and stock ---

type fakeMenuRepo struct {
	items  map[int64]*models.MenuItem
	nextID int64
}

func newFakeMenuRepo(items ...models.MenuItem) *fakeMenuRepo {
	r := &fakeMenuRepo{items: map[int64]*models.MenuItem{}, nextID: 100}
	for _, it := range items {
		it := it
		r.items[it.ID] = &it
	}
	return r
}

func (r *fakeMenuRepo) CreateItem(_ repositories.SQLExecutor, item *models.MenuItem) (int64, error) {
	for _, it := range r.items {
		if it.Name == item.Name {
			return 0, duplicate(repositories.ConstraintMenuItemName)
		}
	}
	item.ID = r.nextID
	r.nextID++
	c := *item
	r.items[item.ID] = &c
	return item.ID, nil
}

func (r *fakeMenuRepo) GetItemByID(_ repositories.SQLExecutor, id int64) (*models.MenuItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, notFound("menu item", id)
	}
	c := *it
	return &c, nil
}

func (r *fakeMenuRepo) GetItemsByIDs(_ repositories.SQLExecutor, ids []int64) (map[int64]models.MenuItem, error) {
	out := make(map[int64]models.MenuItem, len(ids))
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			out[id] = *it
		}
	}
	return out, nil
}

func (r *fakeMenuRepo) GetItems(_ *string) ([]models.MenuItem, error) {
	out := make([]models.MenuItem, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeMenuRepo) UpdateItem(_ repositories.SQLExecutor, item *models.MenuItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return notFound("menu item", item.ID)
	}
	c := *item
	r.items[item.ID] = &c
	return nil
}

func (r *fakeMenuRepo) DeleteItem(_ repositories.SQLExecutor, id int64) error {
	if _, ok := r.items[id]; !ok {
		return notFound("menu item", id)
	}
	delete(r.items, id)
	return nil
}

func (r *fakeMenuRepo) AdjustStock(_ repositories.SQLExecutor, itemID int64, quantityChange int) (int, error) {
	it, ok := r.items[itemID]
	if !ok {
		return 0, notFound("menu item", itemID)
	}
	it.Stock += quantityChange
	if it.Stock < 0 {
		it.Stock = 0
	}
	return it.Stock, nil
}

type fakeMovementRepo struct {
	movements []models.StockMovement
}

func (r *fakeMovementRepo) CreateMovement(_ repositories.SQLExecutor, m *models.StockMovement) (int64, error) {
	m.ID = int64(len(r.movements) + 1)
	r.movements = append(r.movements, *m)
	return m.ID, nil
}

func (r *fakeMovementRepo) GetMovements(menuItemID int64, _, _ int) ([]models.StockMovement, int, error) {
	var out []models.StockMovement
	for _, m := range r.movements {
		if m.MenuItemID == menuItemID {
			out = append(out, m)
		}
	}
	return out, len(out), nil
}

// --- users, codes and sessions ---

type fakeAuthRepo struct {
	users  map[int64]*models.User
	otps   []*models.PasswordResetOTP
	nextID int64
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[int64]*models.User{}, nextID: 1}
}

func (r *fakeAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return 0, duplicate(repositories.ConstraintUserEmail)
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.IsActive = true
	c := *user
	c.PasswordHash = hashedPassword
	r.users[user.ID] = &c
	return user.ID, nil
}

func (r *fakeAuthRepo) FindUserByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, notFound("user", email)
}

func (r *fakeAuthRepo) FindUserByID(userID int64) (*models.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	c := *u
	return &c, nil
}

func (r *fakeAuthRepo) UpdatePassword(_ repositories.SQLExecutor, userID int64, hashedPassword string) error {
	u, ok := r.users[userID]
	if !ok {
		return notFound("user", userID)
	}
	u.PasswordHash = hashedPassword
	return nil
}

func (r *fakeAuthRepo) CreateOTP(_ repositories.SQLExecutor, otp *models.PasswordResetOTP) error {
	c := *otp
	r.otps = append(r.otps, &c)
	return nil
}

func (r *fakeAuthRepo) FindLatestOTP(_ repositories.SQLExecutor, userID int64) (*models.PasswordResetOTP, error) {
	for i := len(r.otps) - 1; i >= 0; i-- {
		o := r.otps[i]
		if o.UserID == userID && o.ConsumedAt == nil {
			c := *o
			return &c, nil
		}
	}
	return nil, notFound("otp for user", userID)
}

func (r *fakeAuthRepo) findOTP(id uuid.UUID) *models.PasswordResetOTP {
	for _, o := range r.otps {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (r *fakeAuthRepo) IncrementOTPAttempts(_ repositories.SQLExecutor, otpID uuid.UUID) error {
	o := r.findOTP(otpID)
	if o == nil {
		return notFound("otp", otpID)
	}
	o.Attempts++
	return nil
}

func (r *fakeAuthRepo) ConsumeOTP(_ repositories.SQLExecutor, otpID uuid.UUID) error {
	o := r.findOTP(otpID)
	if o == nil {
		return notFound("otp", otpID)
	}
	now := time.Now()
	o.ConsumedAt = &now
	return nil
}

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*models.LoginSession
	touched  int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*models.LoginSession{}}
}

func (r *fakeSessionRepo) CreateSession(s *models.LoginSession) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.LastSeenAt = s.CreatedAt
	c := *s
	r.sessions[s.ID] = &c
	return nil
}

func (r *fakeSessionRepo) GetSession(id uuid.UUID) (*models.LoginSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, notFound("session", id)
	}
	c := *s
	return &c, nil
}

func (r *fakeSessionRepo) TouchSession(id uuid.UUID, at time.Time) error {
	s, ok := r.sessions[id]
	if !ok {
		return notFound("session", id)
	}
	s.LastSeenAt = at
	r.touched++
	return nil
}

func (r *fakeSessionRepo) ListLatestSessions() ([]models.LoginSession, error) {
	out := make([]models.LoginSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSessionRepo) TerminateSession(id uuid.UUID) error {
	s, ok := r.sessions[id]
	if !ok {
		return notFound("session", id)
	}
	if s.TerminatedAt == nil {
		now := time.Now()
		s.TerminatedAt = &now
	}
	return nil
}

func (r *fakeSessionRepo) TerminateUserSessions(_ repositories.SQLExecutor, userID int64) (int64, error) {
	var n int64
	for _, s := range r.sessions {
		if s.UserID == userID && s.TerminatedAt == nil {
			now := time.Now()
			s.TerminatedAt = &now
			n++
		}
	}
	return n, nil
}

// --- tables and analytics ---

type fakeTableRepo struct {
	tables map[int]*models.Table
}

func newFakeTableRepo(ids ...int) *fakeTableRepo {
	r := &fakeTableRepo{tables: map[int]*models.Table{}}
	for _, id := range ids {
		r.tables[id] = &models.Table{ID: id, Status: models.TableStatusVacant}
	}
	return r
}

func (r *fakeTableRepo) CreateTable(t *models.Table) error {
	if _, ok := r.tables[t.ID]; ok {
		return duplicate(repositories.ConstraintTablePrimaryKey)
	}
	c := *t
	r.tables[t.ID] = &c
	return nil
}

func (r *fakeTableRepo) GetTables() ([]models.Table, error) {
	out := make([]models.Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTableRepo) GetTableByID(_ repositories.SQLExecutor, id int, _ bool) (*models.Table, error) {
	t, ok := r.tables[id]
	if !ok {
		return nil, notFound("table", id)
	}
	c := *t
	return &c, nil
}

func (r *fakeTableRepo) SetStatus(_ repositories.SQLExecutor, id int, status models.TableStatus, occupiedAt *time.Time) error {
	t, ok := r.tables[id]
	if !ok {
		return notFound("table", id)
	}
	t.Status = status
	t.OccupiedAt = occupiedAt
	return nil
}

func (r *fakeTableRepo) DeleteTable(id int) error {
	if _, ok := r.tables[id]; !ok {
		return notFound("table", id)
	}
	delete(r.tables, id)
	return nil
}

type fakeAnalyticsRepo struct {
	mu      sync.Mutex
	sums    []time.Time // from of each SumNetTotal call
	sum     int64
	daily   []models.DailyTotal
	sellers []models.BestSeller
	limit   int
}

func (r *fakeAnalyticsRepo) SumNetTotal(from, _ time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sums = append(r.sums, from)
	return r.sum, nil
}

func (r *fakeAnalyticsRepo) DailyTotals(_, _ time.Time) ([]models.DailyTotal, error) {
	return r.daily, nil
}

func (r *fakeAnalyticsRepo) BestSellers(limit int) ([]models.BestSeller, error) {
	r.limit = limit
	return r.sellers, nil
}

func (r *fakeAnalyticsRepo) HighestSalesDay() (*models.HighestSalesDay, error) {
	return &models.HighestSalesDay{}, nil
}

// --- messaging ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	otps   []events.OTPMessage
	fail   error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, ev events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.fail
}

func (p *recordingPublisher) SendOTP(_ context.Context, msg events.OTPMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.otps = append(p.otps, msg)
	return p.fail
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}
