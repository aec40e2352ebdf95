package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"equipment-booking-backend/internal/model"
	"equipment-booking-backend/internal/store"
)

// OrphanPolicy decides what happens to the children of deleted equipment.
type OrphanPolicy string

const (
	// OrphanPromote makes the children of a deleted item top-level items.
	OrphanPromote OrphanPolicy = "promote"
	// OrphanCascade deletes the whole subtree below a deleted item.
	OrphanCascade OrphanPolicy = "cascade"
)

// Valid reports whether p is a known policy.
func (p OrphanPolicy) Valid() bool {
	return p == OrphanPromote || p == OrphanCascade
}

const (
	defaultMaxDepth = 32
	idAttempts      = 8
)

// Options tunes the inventory. The zero value is usable.
type Options struct {
	OrphanPolicy       OrphanPolicy
	MaxDepth           int
	AllowDoubleBooking bool

	// OnPersistError is called for every collection that failed to save.
	OnPersistError func(key string, err error)
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() (string, error)
}

func (o Options) withDefaults() Options {
	if !o.OrphanPolicy.Valid() {
		o.OrphanPolicy = OrphanPromote
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = newUUID
	}
	return o
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Snapshot is a point-in-time copy of both collections.
type Snapshot struct {
	Equipment []model.Equipment `json:"equipment"`
	Bookings  []model.Booking   `json:"bookings"`
}

// Inventory owns the equipment and booking collections. Reads share the lock;
// every mutation goes through mutate and is persisted before the lock is
// released, so one mutation completes before the next begins.
type Inventory struct {
	store  store.Store
	logger *zap.Logger
	opts   Options

	mu    sync.RWMutex
	state *state
}

// New creates an inventory on top of s and loads both collections from it.
func New(ctx context.Context, s store.Store, logger *zap.Logger, opts Options) (*Inventory, error) {
	if s == nil {
		return nil, errors.New("inventory: nil store")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	inv := &Inventory{
		store:  s,
		logger: logger,
		opts:   opts.withDefaults(),
		state:  newState(),
	}
	if _, err := inv.Refresh(ctx); err != nil {
		return nil, err
	}
	return inv, nil
}

// Options returns the effective options.
func (inv *Inventory) Options() Options {
	return inv.opts
}

// Tx is the mutation handle passed to Transaction callbacks. It is only valid
// inside the callback.
type Tx struct {
	inv   *Inventory
	st    *state
	dirty map[string]bool
}

func (tx *Tx) touch(keys ...string) {
	for _, k := range keys {
		tx.dirty[k] = true
	}
}

// createID returns an id that is not used by any equipment or booking.
func (tx *Tx) createID() (string, error) {
	for i := 0; i < idAttempts; i++ {
		id, err := tx.inv.opts.NewID()
		if err != nil {
			return "", fmt.Errorf("failed to generate id: %w", err)
		}
		if id != "" && !tx.st.hasID(id) {
			return id, nil
		}
	}
	return "", errors.New("failed to generate a unique id")
}

// Transaction runs fn as a single mutation. If fn returns an error every
// change it made is discarded; otherwise the touched collections are
// persisted once.
func (inv *Inventory) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	return inv.mutate(ctx, fn)
}

func (inv *Inventory) mutate(ctx context.Context, fn func(tx *Tx) error) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	backup := inv.state.clone()
	tx := &Tx{inv: inv, st: inv.state, dirty: make(map[string]bool)}
	if err := fn(tx); err != nil {
		inv.state = backup
		return err
	}
	return inv.persist(ctx, tx.dirty)
}

// persist writes each dirty collection in full. Failures leave memory as is.
func (inv *Inventory) persist(ctx context.Context, dirty map[string]bool) error {
	var first error
	for _, key := range store.Keys {
		if !dirty[key] {
			continue
		}
		if err := inv.save(ctx, key); err != nil {
			perr := &PersistenceError{Key: key, Err: err}
			inv.logger.Error("failed to persist collection", zap.String("key", key), zap.Error(err))
			if inv.opts.OnPersistError != nil {
				inv.opts.OnPersistError(key, err)
			}
			if first == nil {
				first = perr
			}
		}
	}
	return first
}

func (inv *Inventory) save(ctx context.Context, key string) error {
	var (
		payload []byte
		err     error
	)
	switch key {
	case store.KeyEquipment:
		payload, err = json.Marshal(inv.state.equipmentList())
	case store.KeyBookings:
		payload, err = json.Marshal(inv.state.bookingList())
	default:
		return fmt.Errorf("unknown collection %q", key)
	}
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}
	return inv.store.Save(ctx, key, payload)
}

// Refresh reloads both collections from storage and returns the new snapshot.
// A missing key loads as an empty collection.
func (inv *Inventory) Refresh(ctx context.Context) (Snapshot, error) {
	var equipment []model.Equipment
	if err := inv.load(ctx, store.KeyEquipment, &equipment); err != nil {
		return Snapshot{}, err
	}
	var bookings []model.Booking
	if err := inv.load(ctx, store.KeyBookings, &bookings); err != nil {
		return Snapshot{}, err
	}

	st := newState()
	for _, e := range equipment {
		if e.ID == "" || st.equipment[e.ID] != nil {
			inv.logger.Warn("skipping equipment with missing or duplicate id", zap.String("id", e.ID))
			continue
		}
		st.insertEquipment(e.Clone())
	}
	st.relink(inv.logger, inv.opts.MaxDepth)

	for _, b := range bookings {
		if b.ID == "" || st.bookings[b.ID] != nil {
			inv.logger.Warn("skipping booking with missing or duplicate id", zap.String("id", b.ID))
			continue
		}
		b = b.Clone()
		if b.Status == "" {
			b.Status = model.StatusRequested
		}
		st.insertBooking(b)
	}

	inv.mu.Lock()
	inv.state = st
	snap := st.snapshot()
	inv.mu.Unlock()

	inv.logger.Info("inventory loaded",
		zap.Int("equipment", len(snap.Equipment)),
		zap.Int("bookings", len(snap.Bookings)))
	return snap, nil
}

func (inv *Inventory) load(ctx context.Context, key string, dst any) error {
	payload, found, err := inv.store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !found || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Snapshot returns a copy of both collections in insertion order.
func (inv *Inventory) Snapshot() Snapshot {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.state.snapshot()
}

// Equipment returns a copy of one item.
func (inv *Inventory) Equipment(id string) (model.Equipment, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	e := inv.state.equipment[id]
	if e == nil {
		return model.Equipment{}, false
	}
	return e.Clone(), true
}

// ListEquipment returns every item in insertion order.
func (inv *Inventory) ListEquipment() []model.Equipment {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.state.equipmentList()
}

// Booking returns a copy of one booking.
func (inv *Inventory) Booking(id string) (model.Booking, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	b := inv.state.bookings[id]
	if b == nil {
		return model.Booking{}, false
	}
	return b.Clone(), true
}

// ListBookings returns bookings in insertion order, optionally filtered by
// status. An empty status returns all of them.
func (inv *Inventory) ListBookings(status model.BookingStatus) []model.Booking {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]model.Booking, 0, len(inv.state.bookingOrder))
	for _, id := range inv.state.bookingOrder {
		b := inv.state.bookings[id]
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, b.Clone())
	}
	return out
}

// Equipment returns a copy of one item as seen inside the transaction.
func (tx *Tx) Equipment(id string) (model.Equipment, bool) {
	e := tx.st.equipment[id]
	if e == nil {
		return model.Equipment{}, false
	}
	return e.Clone(), true
}

// FindBySerial returns the first item, in insertion order, with the given
// serial number.
func (tx *Tx) FindBySerial(serial string) (model.Equipment, bool) {
	for _, id := range tx.st.equipmentOrder {
		if e := tx.st.equipment[id]; e.SerialNumber == serial {
			return e.Clone(), true
		}
	}
	return model.Equipment{}, false
}
