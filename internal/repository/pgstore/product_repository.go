package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, sku, manufacturer, model, type, category, color, serial_number,
	stock_quantity, release_date, price, owner_id`

type productRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a Postgres-backed ProductRepository
func NewProductRepository(db *sqlx.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, sku, manufacturer, model, type, category, color, serial_number,
			stock_quantity, release_date, price, owner_id)
		VALUES (:id, :sku, :manufacturer, :model, :type, :category, :color, :serial_number,
			:stock_quantity, :release_date, :price, :owner_id)
	`

	if _, err := r.db.NamedExecContext(ctx, query, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	product := &domain.Product{}
	err := r.db.GetContext(ctx, product, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// Update locks the row, applies mutate and writes the allow-listed columns back
func (r *productRepository) Update(ctx context.Context, id string, mutate repository.MutateFunc) (*domain.Product, error) {
	var updated *domain.Product

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := lockProduct(ctx, tx, id)
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			return err
		}
		next.ID = current.ID
		next.OwnerID = current.OwnerID

		query := `
			UPDATE products
			SET sku = :sku, manufacturer = :manufacturer, model = :model, type = :type,
			    category = :category, color = :color, serial_number = :serial_number,
			    stock_quantity = :stock_quantity, release_date = :release_date, price = :price,
			    updated_at = NOW()
			WHERE id = :id
		`
		if _, err := tx.NamedExecContext(ctx, query, next); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete locks the row, runs check and removes it
func (r *productRepository) Delete(ctx context.Context, id string, check repository.MutateFunc) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := lockProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(current); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

// Search matches manufacturer, model or type with ILIKE, in insertion order
func (r *productRepository) Search(ctx context.Context, query string, offset, limit int) ([]*domain.Product, int, error) {
	whereClause := ""
	args := []interface{}{}

	if query != "" {
		whereClause = `WHERE manufacturer ILIKE $1 ESCAPE '\' OR model ILIKE $1 ESCAPE '\' OR type ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(query)+"%")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if limit <= 0 || offset < 0 || offset >= total {
		return []*domain.Product{}, total, nil
	}

	searchQuery := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY seq ASC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	products := []*domain.Product{}
	if err := r.db.SelectContext(ctx, &products, searchQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	return products, total, nil
}

// All returns every product in insertion order
func (r *productRepository) All(ctx context.Context) ([]*domain.Product, error) {
	products := []*domain.Product{}
	if err := r.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY seq ASC`); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *productRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func lockProduct(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Product, error) {
	product := &domain.Product{}
	err := tx.GetContext(ctx, product, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return product, nil
}

// escapeLike makes query match literally inside an ILIKE pattern
func escapeLike(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(query)
}
