package notification

import (
	"fmt"
	"html"
	"time"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

// Rendered is a ready-to-send email body.
type Rendered struct {
	Subject string
	HTML    string
}

func layout(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a1a; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #6c2bd9;">%s</h2>
  %s
  <p style="color: #888; font-size: 12px; margin-top: 32px;">Viveo — personalized videos and merch from your favourite stars.</p>
</body>
</html>`, title, body)
}

func formatPrice(minor int64) string {
	return fmt.Sprintf("%d.%02d RSD", minor/100, minor%100)
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2 Jan 2006 15:04 MST")
}

// Render maps an event to its template. ok is false for kinds that have no
// email, which the worker treats as a silent drop.
//
// Buyer, star, product and variant names come from user input and are
// escaped before they land in markup. Subjects stay raw; they are plain
// text, not HTML.
func Render(ev domain.NotificationEvent) (Rendered, bool) {
	buyer := html.EscapeString(ev.BuyerName)
	star := html.EscapeString(ev.StarName)
	product := html.EscapeString(ev.ProductName)
	variant := html.EscapeString(ev.VariantName)

	switch ev.Kind {
	case domain.NotifyNewVideoRequest:
		return Rendered{
			Subject: "New video request from " + ev.BuyerName,
			HTML: layout("You have a new video request",
				fmt.Sprintf("<p>%s just requested a personalized video (%s). Head to your dashboard to approve or decline it.</p>", buyer, product)),
		}, true
	case domain.NotifyRequestApproved:
		return Rendered{
			Subject: ev.StarName + " accepted your video request",
			HTML: layout("Your request was accepted",
				fmt.Sprintf("<p>Hi %s, %s accepted your request and is recording your video. We will let you know the moment it is ready.</p>", buyer, star)),
		}, true
	case domain.NotifyRequestRejected:
		return Rendered{
			Subject: "Update on your video request",
			HTML: layout("Your request was declined",
				fmt.Sprintf("<p>Hi %s, unfortunately %s could not take your request this time. You have not been charged.</p>", buyer, star)),
		}, true
	case domain.NotifyVideoReady:
		return Rendered{
			Subject: "Your video from " + ev.StarName + " is ready!",
			HTML: layout("Your video is ready",
				fmt.Sprintf("<p>Hi %s, %s finished your video. Log in to watch, download and share it.</p>", buyer, star)),
		}, true
	case domain.NotifyNewMerchOrder:
		return Rendered{
			Subject: "New merch order: " + ev.ProductName,
			HTML: layout("You have a new merch order",
				fmt.Sprintf("<p>%s ordered %d × %s (%s) for %s. Confirm the order in your dashboard to start fulfilment.</p>",
					buyer, ev.Quantity, product, variant, formatPrice(ev.TotalPrice))),
		}, true
	case domain.NotifyMerchOrderConfirmed:
		return Rendered{
			Subject: "Your order is confirmed",
			HTML: layout("Order confirmed",
				fmt.Sprintf("<p>Hi %s, %s confirmed your order for %s. We will email you again when it ships.</p>", buyer, star, product)),
		}, true
	case domain.NotifyMerchOrderShipped:
		body := fmt.Sprintf("<p>Hi %s, your order for %s is on its way.</p>", buyer, product)
		if ev.TrackingNumber != "" {
			body += fmt.Sprintf("<p>Tracking number: <strong>%s</strong></p>", html.EscapeString(ev.TrackingNumber))
		}
		return Rendered{
			Subject: "Your order has shipped",
			HTML:    layout("Order shipped", body),
		}, true
	case domain.NotifyNewDigitalOrder:
		return Rendered{
			Subject: "New digital order: " + ev.ProductName,
			HTML: layout("You have a new digital order",
				fmt.Sprintf("<p>%s purchased %s for %s. Confirm and complete the order to release the download.</p>",
					buyer, product, formatPrice(ev.TotalPrice))),
		}, true
	case domain.NotifyDigitalOrderConfirmed:
		return Rendered{
			Subject: "Your digital order is confirmed",
			HTML: layout("Order confirmed",
				fmt.Sprintf("<p>Hi %s, %s confirmed your order for %s. Your download will be ready shortly.</p>", buyer, star, product)),
		}, true
	case domain.NotifyDigitalOrderCompleted:
		return Rendered{
			Subject: "Your download is ready",
			HTML: layout("Download ready",
				fmt.Sprintf(`<p>Hi %s, your purchase of %s is ready.</p>
  <p><a href="%s" style="background: #6c2bd9; color: #fff; padding: 10px 18px; border-radius: 6px; text-decoration: none;">Download now</a></p>
  <p>The link expires on %s.</p>`, buyer, product, ev.DownloadURL, formatExpiry(ev.ExpiresAt))),
		}, true
	case domain.NotifyNewReview:
		return Rendered{
			Subject: fmt.Sprintf("New %d-star review from %s", ev.Rating, ev.BuyerName),
			HTML: layout("You received a new review",
				fmt.Sprintf("<p>%s left you a %d-star review. See it on your profile.</p>", buyer, ev.Rating)),
		}, true
	default:
		return Rendered{}, false
	}
}
