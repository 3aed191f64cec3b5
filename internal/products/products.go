package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a product does not exist or is inactive.
var ErrNotFound = errors.New("product not found")

// Store is the catalog persistence surface the handlers depend on.
type Store interface {
	ListProducts(ctx context.Context, category, search string) ([]Product, error)
	GetProductByID(ctx context.Context, id string) (Product, error)
	GetFeaturedProducts(ctx context.Context, limit int) ([]Product, error)
	InsertProduct(ctx context.Context, np NewProduct) (Product, error)
	UpdateProduct(ctx context.Context, id string, np NewProduct) (Product, error)
	DeactivateProduct(ctx context.Context, id string) error
	InsertReview(ctx context.Context, productID, userEmail string, nr NewReview) (Review, error)
	ListReviews(ctx context.Context, productID string) ([]Review, error)
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const productColumns = `
	id, title, description, COALESCE(full_description, ''), price, original_price,
	file_type, COALESCE(file_size, ''), COALESCE(file_url, ''), COALESCE(preview_image_url, ''),
	category, featured, rating, download_count, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(r rowScanner) (Product, error) {
	var p Product
	err := r.Scan(
		&p.ID, &p.Title, &p.Description, &p.FullDescription, &p.Price, &p.OriginalPrice,
		&p.FileType, &p.FileSize, &p.FileURL, &p.PreviewImageURL,
		&p.Category, &p.Featured, &p.Rating, &p.DownloadCount, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// escapeLike neutralizes LIKE wildcards so a search term matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// ListProducts returns active products, optionally filtered by category and
// a case-insensitive substring over title and description, ordered
// featured-first then newest-first.
func (c *Conf) ListProducts(ctx context.Context, category, search string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = true`

	var args []any
	if category != "" && !strings.EqualFold(category, "all") {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY featured DESC, created_at DESC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	list := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return list, nil
}

func (c *Conf) GetProductByID(ctx context.Context, id string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND is_active = true`

	p, err := scanProduct(c.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (c *Conf) GetFeaturedProducts(ctx context.Context, limit int) ([]Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE is_active = true AND featured = true
		ORDER BY download_count DESC
		LIMIT $1`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query featured products: %w", err)
	}
	defer rows.Close()

	list := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return list, nil
}

func (c *Conf) InsertProduct(ctx context.Context, np NewProduct) (Product, error) {
	query := `
		INSERT INTO products (id, title, description, full_description, price, original_price,
			file_type, file_size, file_url, preview_image_url, category, featured,
			rating, download_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''),
			NULLIF($10, ''), $11, $12, 0, 0, true, NOW(), NOW())
		RETURNING ` + productColumns

	p, err := scanProduct(c.db.QueryRowContext(ctx, query,
		uuid.NewString(), np.Title, np.Description, np.FullDescription, np.Price, np.OriginalPrice,
		np.FileType, np.FileSize, np.FileURL, np.PreviewImageURL, np.Category, np.Featured,
	))
	if err != nil {
		return Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (c *Conf) UpdateProduct(ctx context.Context, id string, np NewProduct) (Product, error) {
	query := `
		UPDATE products
		SET title = $2, description = $3, full_description = NULLIF($4, ''), price = $5,
			original_price = $6, file_type = $7, file_size = NULLIF($8, ''),
			file_url = NULLIF($9, ''), preview_image_url = NULLIF($10, ''),
			category = $11, featured = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	p, err := scanProduct(c.db.QueryRowContext(ctx, query,
		id, np.Title, np.Description, np.FullDescription, np.Price, np.OriginalPrice,
		np.FileType, np.FileSize, np.FileURL, np.PreviewImageURL, np.Category, np.Featured,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// DeactivateProduct hides a product from the storefront. A soft delete keeps
// existing orders' foreign keys intact.
func (c *Conf) DeactivateProduct(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE products SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Conf) InsertReview(ctx context.Context, productID, userEmail string, nr NewReview) (Review, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND is_active = true)`, productID).Scan(&exists)
	if err != nil {
		return Review{}, fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return Review{}, ErrNotFound
	}

	r := Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserEmail: userEmail,
		Rating:    nr.Rating,
		Comment:   nr.Comment,
	}
	query := `
		INSERT INTO reviews (id, product_id, user_email, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW())
		RETURNING created_at`
	err = c.db.QueryRowContext(ctx, query, r.ID, r.ProductID, r.UserEmail, r.Rating, r.Comment).Scan(&r.CreatedAt)
	if err != nil {
		return Review{}, fmt.Errorf("failed to insert review: %w", err)
	}
	return r, nil
}

func (c *Conf) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	query := `
		SELECT id, product_id, user_email, rating, COALESCE(comment, ''), created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC`

	rows, err := c.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	list := []Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserEmail, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}
	return list, nil
}
