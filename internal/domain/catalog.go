package domain

import "time"

// Celebrity is a seller profile, 1:1 with a user account.
type Celebrity struct {
	ID                string    `json:"id"`
	ProfileID         string    `json:"profile_id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Category          string    `json:"category"`
	Bio               string    `json:"bio"`
	Image             string    `json:"image"`
	Price             int64     `json:"price"`
	ResponseTimeHours int       `json:"response_time_hours"`
	AcceptingRequests bool      `json:"accepting_requests"`
	Rating            float64   `json:"rating"`
	ReviewCount       int       `json:"review_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// VideoType is one kind of personalized video a celebrity offers.
type VideoType struct {
	ID          string `json:"id"`
	CelebrityID string `json:"celebrity_id"`
	Title       string `json:"title"`
	Occasion    string `json:"occasion"`
}

type Product struct {
	ID          string    `json:"id"`
	CelebrityID string    `json:"celebrity_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductVariant is a purchasable configuration of a merch product. Stock
// is the single inventory counter the ledger guards; it never goes
// negative after a committed operation.
type ProductVariant struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	PriceOverride *int64 `json:"price_override,omitempty"`
	Stock         int    `json:"stock"`
}

type DigitalProduct struct {
	ID            string    `json:"id"`
	CelebrityID   string    `json:"celebrity_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	IsActive      bool      `json:"is_active"`
	FilePath      string    `json:"file_path"`
	FileName      string    `json:"file_name"`
	FileType      string    `json:"file_type"`
	FileSize      int64     `json:"file_size"`
	DownloadCount int       `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// AvailabilitySlot is a celebrity's weekly capacity for one weekday,
// 0 = Sunday. One row per (celebrity, weekday).
type AvailabilitySlot struct {
	ID          string `json:"id"`
	CelebrityID string `json:"celebrity_id"`
	DayOfWeek   int    `json:"day_of_week"`
	Available   bool   `json:"available"`
	MaxRequests int    `json:"max_requests"`
}

type Review struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	CelebrityID string    `json:"celebrity_id"`
	Rating      int       `json:"rating"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}
