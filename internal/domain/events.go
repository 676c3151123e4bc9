package domain

import "time"

// NotificationKind selects the email template rendered by the worker.
type NotificationKind string

const (
	NotifyNewVideoRequest       NotificationKind = "video.request.new"
	NotifyRequestApproved       NotificationKind = "video.request.approved"
	NotifyRequestRejected       NotificationKind = "video.request.rejected"
	NotifyVideoReady            NotificationKind = "video.ready"
	NotifyNewMerchOrder         NotificationKind = "merch.order.new"
	NotifyMerchOrderConfirmed   NotificationKind = "merch.order.confirmed"
	NotifyMerchOrderShipped     NotificationKind = "merch.order.shipped"
	NotifyNewDigitalOrder       NotificationKind = "digital.order.new"
	NotifyDigitalOrderConfirmed NotificationKind = "digital.order.confirmed"
	NotifyDigitalOrderCompleted NotificationKind = "digital.order.completed"
	NotifyNewReview             NotificationKind = "review.new"
)

// NotificationEvent is the message published to Kafka on lifecycle
// transitions and order creation. Delivery is best-effort, at most once:
// the publisher drops on error and the worker never retries.
type NotificationEvent struct {
	Kind    NotificationKind `json:"kind"`
	To      string           `json:"to"`
	OrderID string           `json:"order_id,omitempty"`

	BuyerName      string     `json:"buyer_name,omitempty"`
	StarName       string     `json:"star_name,omitempty"`
	ProductName    string     `json:"product_name,omitempty"`
	VariantName    string     `json:"variant_name,omitempty"`
	Quantity       int        `json:"quantity,omitempty"`
	TotalPrice     int64      `json:"total_price,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	DownloadURL    string     `json:"download_url,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Rating         int        `json:"rating,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
