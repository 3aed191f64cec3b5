package orders

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

// DefaultMaxDownloads is the download budget stamped on new orders when the
// caller does not configure one.
const DefaultMaxDownloads = 5

// Order represents one purchase attempt, keyed by the processor's session id
// and carrying the download entitlement.
type Order struct {
	ID              string    `json:"id"`
	UserEmail       string    `json:"user_email"`
	ProductID       string    `json:"product_id"`
	StripeSessionID string    `json:"stripe_session_id"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	DownloadToken   string    `json:"download_token"`
	DownloadCount   int       `json:"download_count"`
	MaxDownloads    int       `json:"max_downloads"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type NewOrder struct {
	UserEmail       string
	ProductID       string
	StripeSessionID string
	Amount          float64
	MaxDownloads    int
}

// DownloadGrant is one authorized download against a completed order.
type DownloadGrant struct {
	ProductTitle string
	FileType     string
	FileSize     string
	FileURL      string
	Remaining    int
}
