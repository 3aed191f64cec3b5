package products

import "time"

// Product represents a sellable digital item in the catalog.
type Product struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	FullDescription string    `json:"full_description,omitempty"`
	Price           float64   `json:"price"`
	OriginalPrice   *float64  `json:"original_price,omitempty"`
	FileType        string    `json:"file_type"`
	FileSize        string    `json:"file_size,omitempty"`
	FileURL         string    `json:"file_url,omitempty"`
	PreviewImageURL string    `json:"preview_image_url,omitempty"`
	Category        string    `json:"category"`
	Featured        bool      `json:"featured"`
	Rating          float64   `json:"rating"`
	DownloadCount   int       `json:"download_count"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type NewProduct struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	FullDescription string   `json:"full_description"`
	Price           float64  `json:"price" validate:"required,gt=0"`
	OriginalPrice   *float64 `json:"original_price" validate:"omitempty,gt=0"`
	FileType        string   `json:"file_type" validate:"required,oneof=PDF PNG ZIP DOC TEMPLATE"`
	FileSize        string   `json:"file_size"`
	FileURL         string   `json:"file_url" validate:"required,url"`
	PreviewImageURL string   `json:"preview_image_url" validate:"omitempty,url"`
	Category        string   `json:"category" validate:"required"`
	Featured        bool     `json:"featured"`
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserEmail string    `json:"user_email"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type NewReview struct {
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment"`
	UserEmail string `json:"email" validate:"omitempty,email"`
}
