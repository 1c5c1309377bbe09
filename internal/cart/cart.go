// Package cart holds the working copy of one table's draft order and keeps
// the stored draft in step with it.
//
// Every mutation sends the complete line list, never a delta. The in-memory
// cart stays authoritative when a sync fails: the change is kept, the failure
// is logged and handed back as a *SyncError. A write rejected as stale is
// rebased onto the stored version and sent once more.
package cart

import (
	"errors"
	"fmt"
	"sync"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/pricing"
	"restaurant_pos_backend/pkg/utils"
)

var (
	ErrLineIndex  = errors.New("order line index out of range")
	ErrOutOfStock = errors.New("menu item is out of stock")
	ErrCartLocked = errors.New("order is saved and can no longer be edited")
)

// Snapshot is the full state pushed to storage on every sync.
type Snapshot struct {
	TableNumber int                `json:"table"`
	Items       []models.OrderLine `json:"items"`
	Phone       string             `json:"phone"`
	Status      models.OrderStatus `json:"status"`
	Version     int64              `json:"version"` // version the change was made on top of
}

// Synchronizer persists a draft snapshot and returns the stored version.
type Synchronizer interface {
	SyncDraft(snap Snapshot) (int64, error)
}

// Rebaser is implemented by synchronizers that can tell a write rejected for
// being based on an old version apart from other failures, and can report
// the version currently stored. The cart then moves onto that version and
// sends its lines again, once.
type Rebaser interface {
	IsStale(err error) bool
	StoredVersion(table int) (int64, error)
}

// SyncError wraps a failed sync. The cart change it belongs to was kept.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string { return "draft sync failed: " + e.Err.Error() }
func (e *SyncError) Unwrap() error { return e.Err }

// Cart is the in-progress order of one table. Mutations and their syncs run
// one at a time, in call order.
type Cart struct {
	mu      sync.Mutex
	table   int
	lines   []models.OrderLine
	phone   string
	version int64
	locked  bool
	dirty   bool
	syncer  Synchronizer
}

// New returns an empty cart for a table.
func New(table int, s Synchronizer) *Cart {
	return &Cart{table: table, syncer: s}
}

// Resume rebuilds a cart from a stored draft.
func Resume(order *models.Order, s Synchronizer) *Cart {
	c := &Cart{
		table:   order.TableNumber,
		lines:   cloneLines(order.Items),
		phone:   order.PhoneValue(),
		version: order.Version,
		syncer:  s,
		locked:  order.Status != models.OrderStatusDraft,
	}
	return c
}

// AddItem increments the line for item or appends a new line with qty 1.
func (c *Cart) AddItem(item models.MenuItem) error {
	if !item.InStock() {
		return fmt.Errorf("%w: %s", ErrOutOfStock, item.Name)
	}
	return c.mutate(func() error {
		for i := range c.lines {
			if c.lines[i].MenuItemID == item.ID {
				c.lines[i].Qty++
				return nil
			}
		}
		c.lines = append(c.lines, models.OrderLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			Price:      item.Price,
			Image:      item.Image,
			Qty:        1,
		})
		return nil
	})
}

// IncreaseQty adds one to the line at index.
func (c *Cart) IncreaseQty(index int) error {
	return c.mutate(func() error {
		if err := c.checkIndex(index); err != nil {
			return err
		}
		c.lines[index].Qty++
		return nil
	})
}

// DecreaseQty takes one off the line at index, dropping the line when it was 1.
func (c *Cart) DecreaseQty(index int) error {
	return c.mutate(func() error {
		if err := c.checkIndex(index); err != nil {
			return err
		}
		if c.lines[index].Qty > 1 {
			c.lines[index].Qty--
			return nil
		}
		c.removeAt(index)
		return nil
	})
}

// RemoveItem drops the line at index regardless of quantity.
func (c *Cart) RemoveItem(index int) error {
	return c.mutate(func() error {
		if err := c.checkIndex(index); err != nil {
			return err
		}
		c.removeAt(index)
		return nil
	})
}

// SetPhone keeps the digits of raw, at most 10, and syncs straight away.
func (c *Cart) SetPhone(raw string) error {
	return c.mutate(func() error {
		c.phone = utils.SanitizePhone(raw)
		return nil
	})
}

// Total is the sum of price × qty over the current lines.
func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.OrderTotal(c.lines)
}

// NetTotal is Total with a percentage discount applied.
func (c *Cart) NetTotal(discountPercent int) int64 {
	return pricing.NetTotal(c.Total(), discountPercent)
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []models.OrderLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneLines(c.lines)
}

func (c *Cart) Table() int { return c.table }

func (c *Cart) Phone() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phone
}

// Version is the last version the store acknowledged.
func (c *Cart) Version() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Len is the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Dirty reports whether the last sync failed, so the stored draft may be
// behind the cart.
func (c *Cart) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Rebase moves the cart onto the stored order's version and keeps the local
// lines. The next sync overwrites the stored lines with them.
func (c *Cart) Rebase(stored *models.Order) {
	c.mu.Lock()
	c.version = stored.Version
	c.mu.Unlock()
}

// Flush sends the current lines again without changing them.
func (c *Cart) Flush() error {
	return c.mutate(func() error { return nil })
}

// Lock marks the cart as saved; later mutations fail with ErrCartLocked.
func (c *Cart) Lock() {
	c.mu.Lock()
	c.locked = true
	c.mu.Unlock()
}

func (c *Cart) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// Snapshot returns the state that would be sent on the next sync.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cart) snapshotLocked() Snapshot {
	return Snapshot{
		TableNumber: c.table,
		Items:       cloneLines(c.lines),
		Phone:       c.phone,
		Status:      models.OrderStatusDraft,
		Version:     c.version,
	}
}

func (c *Cart) mutate(apply func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locked {
		return ErrCartLocked
	}
	if err := apply(); err != nil {
		return err
	}
	if c.syncer == nil {
		return nil
	}

	version, err := c.syncer.SyncDraft(c.snapshotLocked())
	if err != nil {
		version, err = c.rebaseAndRetry(err)
	}
	if err != nil {
		c.dirty = true
		utils.LogWarn("Draft sync failed, keeping local cart", map[string]interface{}{
			"table": c.table, "lines": len(c.lines), "error": err.Error(),
		})
		return &SyncError{Err: err}
	}
	c.version = version
	c.dirty = false
	return nil
}

func (c *Cart) rebaseAndRetry(syncErr error) (int64, error) {
	r, ok := c.syncer.(Rebaser)
	if !ok || !r.IsStale(syncErr) {
		return 0, syncErr
	}
	stored, err := r.StoredVersion(c.table)
	if err != nil {
		return 0, fmt.Errorf("%w (reloading stored version: %v)", syncErr, err)
	}
	utils.LogInfo("Draft behind stored version, rebasing", map[string]interface{}{
		"table": c.table, "local_version": c.version, "stored_version": stored,
	})
	c.version = stored
	return c.syncer.SyncDraft(c.snapshotLocked())
}

func (c *Cart) checkIndex(index int) error {
	if index < 0 || index >= len(c.lines) {
		return fmt.Errorf("%w: %d (lines: %d)", ErrLineIndex, index, len(c.lines))
	}
	return nil
}

func (c *Cart) removeAt(index int) {
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
}

func cloneLines(lines []models.OrderLine) []models.OrderLine {
	out := make([]models.OrderLine, len(lines))
	copy(out, lines)
	return out
}
