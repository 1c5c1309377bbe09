package posclient

import (
	"context"
	"errors"
	"time"

	"restaurant_pos_backend/internal/cart"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/pricing"
	"restaurant_pos_backend/pkg/utils"
)

// ErrNothingToFinalize is returned when a session has no stored order yet.
var ErrNothingToFinalize = errors.New("draft has not been stored yet")

const syncTimeout = 10 * time.Second

// httpSyncer pushes cart snapshots to PUT /orders/draft.
type httpSyncer struct {
	client *Client
	last   *models.Order
}

func (s *httpSyncer) SyncDraft(snap cart.Snapshot) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	order, err := s.client.UpsertDraft(ctx, DraftRequest{
		Table:   snap.TableNumber,
		Items:   snap.Items,
		Phone:   snap.Phone,
		Version: snap.Version,
	})
	if err != nil {
		return 0, err
	}
	s.last = order
	return order.Version, nil
}

func (s *httpSyncer) IsStale(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == utils.ErrCodeStaleDraft
}

// StoredVersion reloads the table's draft. A table without one reports 0.
func (s *httpSyncer) StoredVersion(table int) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	order, err := s.client.Draft(ctx, table)
	if err != nil {
		return 0, err
	}
	return order.Version, nil
}

// DraftSession is the working copy of one table's order on a terminal.
// Every cart mutation is mirrored to the server as the full line list.
type DraftSession struct {
	*cart.Cart
	client *Client
	syncer *httpSyncer
	saved  *models.Order
}

// OpenDraft loads the table's stored draft, or starts an empty one.
func OpenDraft(ctx context.Context, client *Client, table int) (*DraftSession, error) {
	order, err := client.Draft(ctx, table)
	if err != nil {
		return nil, err
	}
	if order.TableNumber == 0 {
		order.TableNumber = table
	}
	syncer := &httpSyncer{client: client}
	if order.ID != 0 {
		syncer.last = order
	}
	return &DraftSession{
		Cart:   cart.Resume(order, syncer),
		client: client,
		syncer: syncer,
	}, nil
}

// Order is the last order state the server returned, nil before the first sync.
func (d *DraftSession) Order() *models.Order {
	if d.saved != nil {
		return d.saved
	}
	return d.syncer.last
}

// Save moves the draft to saved and locks the cart. Lines whose sync failed
// are sent first. On a conflict the cart stays editable and the *APIError is
// returned.
func (d *DraftSession) Save(ctx context.Context) (*models.Order, error) {
	if d.Dirty() {
		if err := d.Flush(); err != nil {
			return nil, err
		}
	}
	order, err := d.client.SaveDraft(ctx, d.Table())
	if err != nil {
		return nil, err
	}
	d.saved = order
	d.Lock()
	return order, nil
}

// Finalize freezes the stored order with the current lines and a discount.
func (d *DraftSession) Finalize(ctx context.Context, discount int) (*models.Order, error) {
	stored := d.Order()
	if stored == nil || stored.ID == 0 {
		return nil, ErrNothingToFinalize
	}
	lines := d.Lines()
	total := pricing.OrderTotal(lines)
	net := pricing.NetTotal(total, discount)

	order, err := d.client.Finalize(ctx, stored.ID, FinalizeRequest{
		Items:    lines,
		Discount: discount,
		Phone:    d.Phone(),
		Total:    &total,
		NetTotal: &net,
	})
	if err != nil {
		return nil, err
	}
	d.saved = order
	d.Lock()
	return order, nil
}
