package store

import (
	"context"

	"vetclinic-api/internal/model"
)

const productCols = `id, sku, name, category, price, cost, stock, reorder_level, created_at, updated_at`

func (s *Store) CreateProduct(ctx context.Context, p *model.Product) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (id, sku, name, category, price, cost, stock, reorder_level)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.SKU, p.Name, p.Category, p.Price, p.Cost, p.Stock, p.ReorderLevel,
	)
	return err
}

func (s *Store) ProductByID(ctx context.Context, id string) (*model.Product, error) {
	p := &model.Product{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Price, &p.Cost, &p.Stock,
		&p.ReorderLevel, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts returns the catalog; inStockOnly hides exhausted products for
// the client-facing mercadito.
func (s *Store) ListProducts(ctx context.Context, inStockOnly bool) ([]model.Product, error) {
	q := `SELECT ` + productCols + ` FROM products`
	if inStockOnly {
		q += ` WHERE stock > 0`
	}
	q += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Price, &p.Cost,
			&p.Stock, &p.ReorderLevel, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, p *model.Product) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products
		 SET sku=$1, name=$2, category=$3, price=$4, cost=$5, reorder_level=$6, updated_at=NOW()
		 WHERE id=$7`,
		p.SKU, p.Name, p.Category, p.Price, p.Cost, p.ReorderLevel, p.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordMovement adjusts stock and keeps the movement journal in one
// transaction. A salida that would push stock below zero aborts with
// ErrInsufficientStock.
func (s *Store) RecordMovement(ctx context.Context, m *model.InventoryMovement) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	delta := m.Quantity
	if m.MovementType == model.MovementSalida {
		delta = -delta
	}

	tag, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock + $1, updated_at = NOW()
		 WHERE id = $2 AND stock + $1 >= 0`,
		delta, m.ProductID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// either the product is missing or the salida would go negative
		if _, perr := s.ProductByID(ctx, m.ProductID); perr != nil {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO inventory_movements (id, product_id, movement_type, quantity, reason)
		 VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.ProductID, m.MovementType, m.Quantity, m.Reason,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) ListMovements(ctx context.Context, productID string) ([]model.InventoryMovement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, product_id, movement_type, quantity, COALESCE(reason,''), created_at
		 FROM inventory_movements WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.InventoryMovement
	for rows.Next() {
		var m model.InventoryMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.MovementType, &m.Quantity, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
