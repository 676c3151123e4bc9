package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

func TestRender(t *testing.T) {
	expiry := time.Date(2026, 3, 21, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		event        domain.NotificationEvent
		wantSubject  string
		wantInBody   []string
	}{
		{
			name: "new video request",
			event: domain.NotificationEvent{
				Kind:        domain.NotifyNewVideoRequest,
				BuyerName:   "Mila",
				ProductName: "Birthday greeting",
			},
			wantSubject: "New video request from Mila",
			wantInBody:  []string{"Mila", "Birthday greeting", "dashboard"},
		},
		{
			name: "request approved",
			event: domain.NotificationEvent{
				Kind:      domain.NotifyRequestApproved,
				BuyerName: "Mila",
				StarName:  "Novak",
			},
			wantSubject: "Novak accepted your video request",
			wantInBody:  []string{"Hi Mila", "Novak"},
		},
		{
			name: "new merch order formats price",
			event: domain.NotificationEvent{
				Kind:        domain.NotifyNewMerchOrder,
				BuyerName:   "Mila",
				ProductName: "Signed jersey",
				VariantName: "Size L",
				Quantity:    2,
				TotalPrice:  599800,
			},
			wantSubject: "New merch order: Signed jersey",
			wantInBody:  []string{"2 × Signed jersey", "Size L", "5998.00 RSD"},
		},
		{
			name: "shipped with tracking number",
			event: domain.NotificationEvent{
				Kind:           domain.NotifyMerchOrderShipped,
				BuyerName:      "Mila",
				ProductName:    "Signed jersey",
				TrackingNumber: "RR123456785RS",
			},
			wantSubject: "Your order has shipped",
			wantInBody:  []string{"RR123456785RS"},
		},
		{
			name: "download ready includes link and expiry",
			event: domain.NotificationEvent{
				Kind:        domain.NotifyDigitalOrderCompleted,
				BuyerName:   "Mila",
				ProductName: "Training plan",
				DownloadURL: "https://api.viveo.rs/api/digital-orders/abc/download?token=xyz",
				ExpiresAt:   &expiry,
			},
			wantSubject: "Your download is ready",
			wantInBody:  []string{"https://api.viveo.rs/api/digital-orders/abc/download?token=xyz", "21 Mar 2026"},
		},
		{
			name: "new review",
			event: domain.NotificationEvent{
				Kind:      domain.NotifyNewReview,
				BuyerName: "Mila",
				Rating:    5,
			},
			wantSubject: "New 5-star review from Mila",
			wantInBody:  []string{"5-star"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered, ok := Render(tt.event)
			if !ok {
				t.Fatalf("Render(%s) returned ok=false", tt.event.Kind)
			}
			if rendered.Subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", rendered.Subject, tt.wantSubject)
			}
			for _, want := range tt.wantInBody {
				if !strings.Contains(rendered.HTML, want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

func TestRenderEveryKindHasTemplate(t *testing.T) {
	kinds := []domain.NotificationKind{
		domain.NotifyNewVideoRequest,
		domain.NotifyRequestApproved,
		domain.NotifyRequestRejected,
		domain.NotifyVideoReady,
		domain.NotifyNewMerchOrder,
		domain.NotifyMerchOrderConfirmed,
		domain.NotifyMerchOrderShipped,
		domain.NotifyNewDigitalOrder,
		domain.NotifyDigitalOrderConfirmed,
		domain.NotifyDigitalOrderCompleted,
		domain.NotifyNewReview,
	}

	for _, kind := range kinds {
		if _, ok := Render(domain.NotificationEvent{Kind: kind}); !ok {
			t.Errorf("kind %s has no template", kind)
		}
	}
}

func TestRenderEscapesUserNames(t *testing.T) {
	rendered, ok := Render(domain.NotificationEvent{
		Kind:        domain.NotifyNewMerchOrder,
		BuyerName:   `<script>alert("hi")</script>`,
		ProductName: `Jersey <img src=x onerror=steal()>`,
		VariantName: "Size M & L",
		Quantity:    1,
		TotalPrice:  100000,
	})
	if !ok {
		t.Fatal("Render returned ok=false")
	}
	for _, raw := range []string{"<script>", "<img", "onerror="} {
		if strings.Contains(rendered.HTML, raw) {
			t.Errorf("body contains unescaped %q", raw)
		}
	}
	for _, escaped := range []string{"&lt;script&gt;", "&lt;img", "Size M &amp; L"} {
		if !strings.Contains(rendered.HTML, escaped) {
			t.Errorf("body missing escaped form %q", escaped)
		}
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, ok := Render(domain.NotificationEvent{Kind: "payment.settled"}); ok {
		t.Error("unknown kinds must not render")
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{0, "0.00 RSD"},
		{5, "0.05 RSD"},
		{100, "1.00 RSD"},
		{599850, "5998.50 RSD"},
	}

	for _, tt := range tests {
		if got := formatPrice(tt.minor); got != tt.want {
			t.Errorf("formatPrice(%d) = %q, want %q", tt.minor, got, tt.want)
		}
	}
}
