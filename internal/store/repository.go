// Package store provides CRUD repository operations for items and stock events.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Voxel07/inventory/internal/feed"
	"github.com/Voxel07/inventory/internal/models"
	"github.com/Voxel07/inventory/internal/uuid"
)

// ErrNotExist is returned when a mutation targets a record that is not there.
var ErrNotExist = errors.New("record does not exist")

// Publisher receives change events for successful mutations. The feed
// Hub implements it; a nil Publisher disables notifications.
type Publisher interface {
	Publish(feed.Event)
}

// Repository provides CRUD operations for items and stock events and
// publishes a change event for every successful mutation, playing the
// remote store's role of emitting the change feed.
type Repository struct {
	db   *DB
	feed Publisher

	// Prepared statement cache for frequently used queries.
	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt
}

// NewRepository creates a new Repository instance. pub may be nil.
func NewRepository(db *DB, pub Publisher) *Repository {
	return &Repository{db: db, feed: pub}
}

// PrepareStmt gets or creates a prepared statement from the cache.
func (r *Repository) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}
	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// publish emits a change event when a Publisher is attached.
func (r *Repository) publish(collection string, typ feed.EventType, id string, payload interface{}) {
	if r.feed == nil {
		return
	}
	r.feed.Publish(feed.Event{
		Collection: collection,
		Type:       typ,
		ID:         id,
		Payload:    payload,
	})
}

// =====================================================
// Item Operations
// =====================================================

// ListItems returns up to limit items in creation order.
func (r *Repository) ListItems(ctx context.Context, limit int) ([]*models.Item, error) {
	query := `
	SELECT id, name, location, position, created_at, updated_at
	FROM items ORDER BY created_at, id LIMIT ?
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Location, &item.Position,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// GetItem retrieves an item by ID. Returns (nil, nil) when the item
// does not exist.
func (r *Repository) GetItem(ctx context.Context, id string) (*models.Item, error) {
	query := `
	SELECT id, name, location, position, created_at, updated_at
	FROM items WHERE id = ?
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	var item models.Item
	err = stmt.QueryRowContext(ctx, id).Scan(&item.ID, &item.Name, &item.Location,
		&item.Position, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// CreateItem creates a new item. The ID and timestamps are assigned here.
func (r *Repository) CreateItem(ctx context.Context, item *models.Item) error {
	now := time.Now().Unix()
	item.ID = models.UUID(uuid.New())
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
	INSERT INTO items (id, name, location, position, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, item.ID, item.Name, item.Location,
		item.Position, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	r.publish(feed.CollectionItems, feed.EventCreate, item.ID.String(), item)
	return nil
}

// UpdateItem updates an existing item's fields.
func (r *Repository) UpdateItem(ctx context.Context, item *models.Item) error {
	item.Touch()

	query := `
	UPDATE items SET name = ?, location = ?, position = ?, updated_at = ?
	WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, item.Name, item.Location,
		item.Position, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotExist
	}

	r.publish(feed.CollectionItems, feed.EventUpdate, item.ID.String(), item)
	return nil
}

// DeleteItem deletes an item by ID. Stock events referencing the item
// are not touched; the cascade is the synchronizer's job.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotExist
	}

	r.publish(feed.CollectionItems, feed.EventDelete, id, nil)
	return nil
}

// =====================================================
// Stock Event Operations
// =====================================================

// ListStockEvents returns up to limit stock events for an item, newest
// first. Ties on created_at are broken by insertion sequence.
func (r *Repository) ListStockEvents(ctx context.Context, itemID string, limit int) ([]*models.StockEvent, error) {
	query := `
	SELECT seq, id, item_id, stock_value, reason, created_at
	FROM stock_events WHERE item_id = ?
	ORDER BY created_at DESC, seq DESC LIMIT ?
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock events: %w", err)
	}
	defer rows.Close()

	var events []*models.StockEvent
	for rows.Next() {
		var ev models.StockEvent
		if err := rows.Scan(&ev.Seq, &ev.ID, &ev.ItemID, &ev.StockValue,
			&ev.Reason, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock event: %w", err)
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// LatestStockEvent returns the newest stock event for an item, or
// (nil, nil) when the item has no stock history.
func (r *Repository) LatestStockEvent(ctx context.Context, itemID string) (*models.StockEvent, error) {
	events, err := r.ListStockEvents(ctx, itemID, 1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events[0], nil
}

// CreateStockEvent appends a new stock event. The ID is assigned here;
// CreatedAt is assigned when the caller left it zero. Seq comes back
// from the store.
func (r *Repository) CreateStockEvent(ctx context.Context, ev *models.StockEvent) error {
	ev.ID = models.UUID(uuid.New())
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}

	query := `
	INSERT INTO stock_events (id, item_id, stock_value, reason, created_at)
	VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query, ev.ID, ev.ItemID, ev.StockValue,
		ev.Reason, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert stock event: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("stock event seq: %w", err)
	}
	ev.Seq = seq

	r.publish(feed.CollectionStock, feed.EventCreate, ev.ID.String(), ev)
	return nil
}

// DeleteStockEvent deletes a single stock event by ID.
func (r *Repository) DeleteStockEvent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM stock_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete stock event: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotExist
	}

	r.publish(feed.CollectionStock, feed.EventDelete, id, nil)
	return nil
}
