// Package store owns persistence: the order ledger and the user store,
// raw SQL over MySQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"storefront-service/errs"
	"storefront-service/models"
)

const (
	qInsertOrder = `INSERT INTO orders (user_id, total_price, payment_method, is_paid, status, full_name, phone, address, city, state, postal_code, country, idempotency_key, revision, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	qInsertItem  = `INSERT INTO order_items (order_id, product_id, product_name, quantity, price, image) VALUES (?, ?, ?, ?, ?, ?)`

	qSelectOrder  = `SELECT id, user_id, total_price, payment_method, is_paid, status, full_name, phone, address, city, state, postal_code, country, revision, created_at FROM orders WHERE id = ?`
	qSelectItems  = `SELECT product_id, product_name, quantity, price, image FROM order_items WHERE order_id = ? ORDER BY id ASC`
	qOrderByIdem  = `SELECT id FROM orders WHERE user_id = ? AND idempotency_key = ?`
	qUpdateStatus = `UPDATE orders SET status = ?, revision = revision + 1, updated_at = ? WHERE id = ? AND revision = ?`

	qListForUser = `SELECT o.id, o.user_id, o.total_price, o.payment_method, o.is_paid, o.status, o.full_name, o.phone, o.address, o.city, o.state, o.postal_code, o.country, o.revision, o.created_at, oi.product_id, oi.product_name, oi.quantity, oi.price, oi.image FROM orders o JOIN order_items oi ON o.id = oi.order_id WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC, oi.id ASC`
	qListAll     = `SELECT o.id, o.user_id, o.total_price, o.payment_method, o.is_paid, o.status, o.full_name, o.phone, o.address, o.city, o.state, o.postal_code, o.country, o.revision, o.created_at, u.name, u.email, oi.product_id, oi.product_name, oi.quantity, oi.price, oi.image FROM orders o JOIN users u ON o.user_id = u.id JOIN order_items oi ON o.id = oi.order_id ORDER BY o.created_at DESC, o.id DESC, oi.id ASC`
)

// OrderStore is the order ledger. Orders are financial records: they are
// created once, transition status monotonically and are never deleted.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Create persists a new order with its item snapshots in one transaction.
// When the order carries an idempotency key, a resubmission with the same
// key returns the previously stored order instead of inserting a duplicate.
func (s *OrderStore) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if len(order.Items) == 0 {
		return nil, errs.ErrEmptyCart
	}
	if !order.ShippingAddress.Complete() {
		return nil, errs.ErrIncompleteAddress
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.MethodCOD
	}
	if !models.ValidPaymentMethod(order.PaymentMethod) {
		return nil, errs.ErrInvalidPaymentMethod
	}
	if order.Status == "" {
		order.Status = models.StatusPlaced
	}

	if order.IdempotencyKey != "" {
		existing, err := s.findByIdempotencyKey(ctx, order.UserID, order.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
	}

	now := time.Now()
	order.CreatedAt = now
	order.Revision = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	addr := order.ShippingAddress
	res, err := tx.ExecContext(ctx, qInsertOrder,
		order.UserID, order.TotalPrice, order.PaymentMethod, order.IsPaid, order.Status,
		addr.FullName, addr.Phone, addr.Address, addr.City, addr.State, addr.PostalCode, addr.Country,
		nullString(order.IdempotencyKey), order.Revision, now, now)
	if err != nil {
		_ = tx.Rollback()
		// Two concurrent submissions with the same key race past the
		// lookup above; the unique index decides, and the loser replays.
		if isDuplicateKey(err) && order.IdempotencyKey != "" {
			return s.findByIdempotencyKey(ctx, order.UserID, order.IdempotencyKey)
		}
		return nil, err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, qInsertItem,
			orderID, item.ProductID, item.Name, item.Quantity, item.Price, item.Image); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.ID = orderID
	return order, nil
}

// Get returns the order with its items, or ErrNotFound.
func (s *OrderStore) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	row := s.db.QueryRowContext(ctx, qSelectOrder, orderID)
	if err := scanOrder(row, &order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, qSelectItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.Image); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListForUser returns the user's orders newest-created-first.
func (s *OrderStore) ListForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, qListForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var order models.Order
		var item models.OrderItem
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.TotalPrice, &order.PaymentMethod, &order.IsPaid, &order.Status,
			&order.ShippingAddress.FullName, &order.ShippingAddress.Phone, &order.ShippingAddress.Address,
			&order.ShippingAddress.City, &order.ShippingAddress.State, &order.ShippingAddress.PostalCode,
			&order.ShippingAddress.Country, &order.Revision, &order.CreatedAt,
			&item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.Image); err != nil {
			return nil, err
		}
		pos, seen := index[order.ID]
		if !seen {
			pos = len(orders)
			index[order.ID] = pos
			orders = append(orders, order)
		}
		orders[pos].Items = append(orders[pos].Items, item)
	}
	return orders, rows.Err()
}

// ListAll returns every order with the owning user's name and email
// joined in, newest-created-first. Admin use only; gating happens at the
// HTTP layer.
func (s *OrderStore) ListAll(ctx context.Context) ([]models.AdminOrder, error) {
	rows, err := s.db.QueryContext(ctx, qListAll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]models.AdminOrder, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var order models.AdminOrder
		var item models.OrderItem
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.TotalPrice, &order.PaymentMethod, &order.IsPaid, &order.Status,
			&order.ShippingAddress.FullName, &order.ShippingAddress.Phone, &order.ShippingAddress.Address,
			&order.ShippingAddress.City, &order.ShippingAddress.State, &order.ShippingAddress.PostalCode,
			&order.ShippingAddress.Country, &order.Revision, &order.CreatedAt,
			&order.UserName, &order.UserEmail,
			&item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.Image); err != nil {
			return nil, err
		}
		pos, seen := index[order.ID]
		if !seen {
			pos = len(orders)
			index[order.ID] = pos
			orders = append(orders, order)
		}
		orders[pos].Items = append(orders[pos].Items, item)
	}
	return orders, rows.Err()
}

// Cancel transitions an order owned by userID from Placed to Cancelled.
// Any other current status is rejected; the revision check turns a lost
// race against a concurrent status write into ErrConflict.
func (s *OrderStore) Cancel(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, errs.ErrForbidden
	}
	if order.Status != models.StatusPlaced {
		return nil, &errs.InvalidTransitionError{Current: order.Status}
	}

	res, err := s.db.ExecContext(ctx, qUpdateStatus, models.StatusCancelled, time.Now(), orderID, order.Revision)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, errs.ErrConflict
	}

	order.Status = models.StatusCancelled
	order.Revision++
	return order, nil
}

// SetStatus overwrites the order status within the status enumeration.
// There is no ownership check: the caller must already be admin-gated.
func (s *OrderStore) SetStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidStatus, status)
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, qUpdateStatus, status, time.Now(), orderID, order.Revision)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, errs.ErrConflict
	}

	order.Status = status
	order.Revision++
	return order, nil
}

func (s *OrderStore) findByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error) {
	var orderID int64
	err := s.db.QueryRowContext(ctx, qOrderByIdem, userID, key).Scan(&orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, orderID)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner, order *models.Order) error {
	return row.Scan(
		&order.ID, &order.UserID, &order.TotalPrice, &order.PaymentMethod, &order.IsPaid, &order.Status,
		&order.ShippingAddress.FullName, &order.ShippingAddress.Phone, &order.ShippingAddress.Address,
		&order.ShippingAddress.City, &order.ShippingAddress.State, &order.ShippingAddress.PostalCode,
		&order.ShippingAddress.Country, &order.Revision, &order.CreatedAt)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
