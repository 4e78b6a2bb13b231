package push

import (
	"context"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/courtside/league-night/internal/model"
)

// WebPushTransport delivers payloads over the Web Push protocol with
// VAPID authentication.  It translates the push service's 404/410
// responses into ErrEndpointGone so the dispatcher can retire the
// subscription.
type WebPushTransport struct {
	vapidPublicKey  string
	vapidPrivateKey string
	subscriber      string
}

// NewWebPushTransport constructs a transport.  subscriber is the VAPID
// contact (a mailto: or https: URL identifying the sender).
func NewWebPushTransport(vapidPublicKey, vapidPrivateKey, subscriber string) *WebPushTransport {
	return &WebPushTransport{
		vapidPublicKey:  vapidPublicKey,
		vapidPrivateKey: vapidPrivateKey,
		subscriber:      subscriber,
	}
}

// Send delivers one payload to one endpoint.
func (t *WebPushTransport) Send(ctx context.Context, sub model.PushSubscription, payload []byte, ttlSeconds int) error {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		Subscriber:      t.subscriber,
		VAPIDPublicKey:  t.vapidPublicKey,
		VAPIDPrivateKey: t.vapidPrivateKey,
		TTL:             ttlSeconds,
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrEndpointGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
