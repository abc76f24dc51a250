package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"vetclinic-api/internal/model"
)

// CreateSale inserts the sale with its items and decrements stock, all in one
// transaction. The stock check lives in the UPDATE's WHERE clause so two
// concurrent sales cannot oversell a product.
func (s *Store) CreateSale(ctx context.Context, sale *model.Sale) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var customer *string
	if sale.CustomerID != "" {
		customer = &sale.CustomerID
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO sales (id, created_by, customer_id, total, payment_status)
		 VALUES ($1,$2,$3,$4,$5)`,
		sale.ID, sale.CreatedBy, customer, sale.Total, sale.PaymentStatus,
	)
	if err != nil {
		return err
	}

	for _, it := range sale.Items {
		tag, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = NOW()
			 WHERE id = $2 AND stock >= $1`,
			it.Quantity, it.ProductID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInsufficientStock
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, subtotal)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			it.ID, sale.ID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) SaleByID(ctx context.Context, id string) (*model.Sale, error) {
	sl := &model.Sale{}
	var customer *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_by, customer_id, total, payment_status, created_at
		 FROM sales WHERE id = $1`, id,
	).Scan(&sl.ID, &sl.CreatedBy, &customer, &sl.Total, &sl.PaymentStatus, &sl.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if customer != nil {
		sl.CustomerID = *customer
	}
	sl.Items, err = s.SaleItems(ctx, sl.ID)
	return sl, err
}

func (s *Store) SetPaymentStatus(ctx context.Context, saleID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sales SET payment_status = $1 WHERE id = $2`, status, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListSales(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	return s.listSales(ctx,
		`SELECT id, created_by, customer_id, total, payment_status, created_at
		 FROM sales WHERE created_at >= $1 AND created_at < $2
		 ORDER BY created_at DESC`, from, to)
}

func (s *Store) ListSalesByCustomer(ctx context.Context, customerID string) ([]model.Sale, error) {
	return s.listSales(ctx,
		`SELECT id, created_by, customer_id, total, payment_status, created_at
		 FROM sales WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
}

func (s *Store) listSales(ctx context.Context, q string, args ...any) ([]model.Sale, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Sale
	for rows.Next() {
		var sl model.Sale
		var customer *string
		if err := rows.Scan(&sl.ID, &sl.CreatedBy, &customer, &sl.Total, &sl.PaymentStatus, &sl.CreatedAt); err != nil {
			return nil, err
		}
		if customer != nil {
			sl.CustomerID = *customer
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

func (s *Store) SaleItems(ctx context.Context, saleID string) ([]model.SaleItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sale_id, product_id, quantity, unit_price, subtotal
		 FROM sale_items WHERE sale_id = $1`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SaleItem
	for rows.Next() {
		var it model.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
