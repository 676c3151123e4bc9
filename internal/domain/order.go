package domain

import "time"

// VideoOrder is a request for a personalized video message. Prices are in
// minor currency units throughout.
type VideoOrder struct {
	ID            string     `json:"id"`
	BuyerID       string     `json:"buyer_id"`
	CelebrityID   string     `json:"celebrity_id"`
	VideoTypeID   string     `json:"video_type_id"`
	BuyerName     string     `json:"buyer_name"`
	BuyerEmail    string     `json:"buyer_email"`
	RecipientName string     `json:"recipient_name"`
	Instructions  string     `json:"instructions"`
	Price         int64      `json:"price"`
	Status        Status     `json:"status"`
	Deadline      time.Time  `json:"deadline"`
	VideoPath     *string    `json:"video_path,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MerchOrder is a purchase of a physical product variant, fulfilled by
// shipment.
type MerchOrder struct {
	ID              string     `json:"id"`
	BuyerID         string     `json:"buyer_id"`
	CelebrityID     string     `json:"celebrity_id"`
	ProductID       string     `json:"product_id"`
	VariantID       *string    `json:"variant_id,omitempty"`
	Quantity        int        `json:"quantity"`
	UnitPrice       int64      `json:"unit_price"`
	TotalPrice      int64      `json:"total_price"`
	BuyerName       string     `json:"buyer_name"`
	BuyerEmail      string     `json:"buyer_email"`
	BuyerPhone      string     `json:"buyer_phone"`
	ShippingName    string     `json:"shipping_name"`
	ShippingAddress string     `json:"shipping_address"`
	ShippingCity    string     `json:"shipping_city"`
	ShippingPostal  string     `json:"shipping_postal"`
	ShippingNote    string     `json:"shipping_note"`
	TrackingNumber  *string    `json:"tracking_number,omitempty"`
	Status          Status     `json:"status"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DigitalOrder is a purchase of a downloadable file, fulfilled by a
// time-boxed download token issued on completion.
type DigitalOrder struct {
	ID             string     `json:"id"`
	BuyerID        string     `json:"buyer_id"`
	CelebrityID    string     `json:"celebrity_id"`
	ProductID      string     `json:"product_id"`
	Price          int64      `json:"price"`
	BuyerName      string     `json:"buyer_name"`
	BuyerEmail     string     `json:"buyer_email"`
	BuyerPhone     string     `json:"buyer_phone"`
	Status         Status     `json:"status"`
	DownloadToken  *string    `json:"download_token,omitempty"`
	TokenExpiresAt *time.Time `json:"download_token_expires_at,omitempty"`
	DownloadCount  int        `json:"download_count"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
