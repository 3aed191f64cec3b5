package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrNotCompleted  = errors.New("order not completed")
	ErrLimitExceeded = errors.New("download limit exceeded")
)

// Store is the order persistence surface the handlers depend on.
type Store interface {
	CreateOrder(ctx context.Context, no NewOrder) (Order, error)
	GetOrderBySessionID(ctx context.Context, sessionID string) (Order, error)
	CompleteOrder(ctx context.Context, sessionID string) (Order, bool, error)
	AuthorizeDownload(ctx context.Context, token string) (Order, DownloadGrant, error)
	ReleaseDownload(ctx context.Context, token string) error
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

const orderColumns = `
	id, user_email, product_id, stripe_session_id, amount, status,
	download_token, download_count, max_downloads, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (Order, error) {
	var o Order
	err := r.Scan(
		&o.ID, &o.UserEmail, &o.ProductID, &o.StripeSessionID, &o.Amount, &o.Status,
		&o.DownloadToken, &o.DownloadCount, &o.MaxDownloads, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// CreateOrder persists a pending order with a freshly minted download token.
func (c *Conf) CreateOrder(ctx context.Context, no NewOrder) (Order, error) {
	maxDownloads := no.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = DefaultMaxDownloads
	}

	query := `
		INSERT INTO orders (id, user_email, product_id, stripe_session_id, amount,
			status, download_token, download_count, max_downloads, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, NOW(), NOW())
		RETURNING ` + orderColumns

	o, err := scanOrder(c.db.QueryRowContext(ctx, query,
		uuid.NewString(), no.UserEmail, no.ProductID, no.StripeSessionID, no.Amount,
		StatusPending, uuid.NewString(), maxDownloads,
	))
	if err != nil {
		return Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	return o, nil
}

func (c *Conf) GetOrderBySessionID(ctx context.Context, sessionID string) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE stripe_session_id = $1`

	o, err := scanOrder(c.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	return o, nil
}

// CompleteOrder transitions the order matched by session id from pending to
// completed and bumps the product's aggregate download counter in the same
// transaction. The conditional WHERE makes repeated calls no-ops: the bool
// result reports whether this call performed the transition.
func (c *Conf) CompleteOrder(ctx context.Context, sessionID string) (Order, bool, error) {
	var o Order
	transitioned := false

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		queryComplete := `
			UPDATE orders
			SET status = $1, updated_at = NOW()
			WHERE stripe_session_id = $2 AND status = $3
			RETURNING ` + orderColumns

		var err error
		o, err = scanOrder(tx.QueryRowContext(ctx, queryComplete, StatusCompleted, sessionID, StatusPending))
		if err == nil {
			transitioned = true
			_, err = tx.ExecContext(ctx,
				`UPDATE products SET download_count = download_count + 1, updated_at = NOW() WHERE id = $1`,
				o.ProductID)
			if err != nil {
				return fmt.Errorf("failed to bump product download count: %w", err)
			}
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to complete order: %w", err)
		}

		// Already settled, or unknown session. Return the row as-is.
		o, err = scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE stripe_session_id = $1`, sessionID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query order: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, false, ErrNotFound
		}
		return Order{}, false, err
	}
	return o, transitioned, nil
}

// AuthorizeDownload claims one download against the token's budget. The check
// and the increment are a single conditional UPDATE, so concurrent callers at
// the last remaining download cannot both pass the limit check.
func (c *Conf) AuthorizeDownload(ctx context.Context, token string) (Order, DownloadGrant, error) {
	queryClaim := `
		UPDATE orders o
		SET download_count = o.download_count + 1, updated_at = NOW()
		FROM products p
		WHERE o.download_token = $1
		  AND o.status = $2
		  AND o.download_count < o.max_downloads
		  AND p.id = o.product_id
		RETURNING o.id, o.user_email, o.product_id, o.stripe_session_id, o.amount, o.status,
			o.download_token, o.download_count, o.max_downloads, o.created_at, o.updated_at,
			p.title, p.file_type, COALESCE(p.file_size, ''), COALESCE(p.file_url, '')`

	var o Order
	var grant DownloadGrant
	err := c.db.QueryRowContext(ctx, queryClaim, token, StatusCompleted).Scan(
		&o.ID, &o.UserEmail, &o.ProductID, &o.StripeSessionID, &o.Amount, &o.Status,
		&o.DownloadToken, &o.DownloadCount, &o.MaxDownloads, &o.CreatedAt, &o.UpdatedAt,
		&grant.ProductTitle, &grant.FileType, &grant.FileSize, &grant.FileURL,
	)
	if err == nil {
		grant.Remaining = o.MaxDownloads - o.DownloadCount
		return o, grant, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Order{}, DownloadGrant{}, fmt.Errorf("failed to claim download: %w", err)
	}

	// The conditional did not match. Diagnose which invariant failed.
	var status string
	err = c.db.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE download_token = $1`, token).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, DownloadGrant{}, ErrNotFound
	}
	if err != nil {
		return Order{}, DownloadGrant{}, fmt.Errorf("failed to query order by token: %w", err)
	}
	if status != StatusCompleted {
		return Order{}, DownloadGrant{}, ErrNotCompleted
	}
	return Order{}, DownloadGrant{}, ErrLimitExceeded
}

// ReleaseDownload returns a claimed download to the budget when the grant
// could not be delivered.
func (c *Conf) ReleaseDownload(ctx context.Context, token string) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE orders
		SET download_count = download_count - 1, updated_at = NOW()
		WHERE download_token = $1 AND download_count > 0`, token)
	if err != nil {
		return fmt.Errorf("failed to release download: %w", err)
	}
	return nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
