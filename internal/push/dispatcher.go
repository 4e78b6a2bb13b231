package push

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/courtside/league-night/internal/model"
)

// ErrEndpointGone is returned by a Transport when the push service
// reports the endpoint permanently retired (HTTP 404 or 410).  The
// dispatcher reacts by deactivating the subscription; any other error
// is treated as transient and leaves the subscription active.
var ErrEndpointGone = errors.New("push endpoint gone")

// Transport delivers an encrypted payload to a single device endpoint
// with a TTL in seconds.
type Transport interface {
	Send(ctx context.Context, sub model.PushSubscription, payload []byte, ttlSeconds int) error
}

// SubscriptionStore is the slice of the store the dispatcher needs.
// *repository.PushSubscriptionRepo satisfies it.
type SubscriptionStore interface {
	ListActiveByUser(ctx context.Context, userID uint64) ([]model.PushSubscription, error)
	Deactivate(ctx context.Context, id uint64) error
	TouchLastUsed(ctx context.Context, id uint64) error
}

// Result aggregates the outcome of a dispatch.
type Result struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// Dispatcher fans a notification out to all of a user's registered
// devices.  Deliveries run concurrently and independently: one slow or
// failing endpoint never delays or aborts the others, and each
// delivery is bounded by its own timeout.
type Dispatcher struct {
	subs       SubscriptionStore
	transport  Transport
	ttlSeconds int
	timeout    time.Duration
}

// NewDispatcher constructs a dispatcher.  ttlSeconds is handed to the
// transport per delivery; timeout bounds each individual delivery.
func NewDispatcher(subs SubscriptionStore, transport Transport, ttlSeconds int, timeout time.Duration) *Dispatcher {
	if subs == nil || transport == nil {
		panic("nil dependency passed to NewDispatcher")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{subs: subs, transport: transport, ttlSeconds: ttlSeconds, timeout: timeout}
}

// SendToUser delivers the notification to every active subscription of
// the user and reports how many deliveries succeeded and failed.
// Errors are counted and logged, never returned: notification failures
// must stay invisible to the state mutation that triggered them.
func (d *Dispatcher) SendToUser(ctx context.Context, userID uint64, n Notification) Result {
	subs, err := d.subs.ListActiveByUser(ctx, userID)
	if err != nil {
		log.Printf("push-dispatcher: list subscriptions for user %d failed: %v", userID, err)
		return Result{}
	}
	if len(subs) == 0 {
		return Result{}
	}

	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("push-dispatcher: marshal notification failed: %v", err)
		return Result{Failed: len(subs)}
	}

	var (
		mu  sync.Mutex
		res Result
		wg  sync.WaitGroup
	)
	for _, sub := range subs {
		wg.Add(1)
		go func(sub model.PushSubscription) {
			defer wg.Done()
			ok := d.deliver(ctx, sub, payload)
			mu.Lock()
			if ok {
				res.Delivered++
			} else {
				res.Failed++
			}
			mu.Unlock()
		}(sub)
	}
	wg.Wait()
	return res
}

// SendToUsers fans SendToUser out over several recipients and sums the
// results.
func (d *Dispatcher) SendToUsers(ctx context.Context, userIDs []uint64, n Notification) Result {
	var total Result
	for _, uid := range userIDs {
		r := d.SendToUser(ctx, uid, n)
		total.Delivered += r.Delivered
		total.Failed += r.Failed
	}
	return total
}

// deliver attempts one delivery and applies the bookkeeping: bump
// last-used on success, deactivate on a terminal gone error, leave the
// subscription alone on a transient failure.
func (d *Dispatcher) deliver(ctx context.Context, sub model.PushSubscription, payload []byte) bool {
	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.transport.Send(dctx, sub, payload, d.ttlSeconds)
	if err == nil {
		if terr := d.subs.TouchLastUsed(ctx, sub.ID); terr != nil {
			log.Printf("push-dispatcher: touch last_used for subscription %d failed: %v", sub.ID, terr)
		}
		return true
	}
	if errors.Is(err, ErrEndpointGone) {
		log.Printf("push-dispatcher: endpoint gone for subscription %d; deactivating", sub.ID)
		if derr := d.subs.Deactivate(ctx, sub.ID); derr != nil {
			log.Printf("push-dispatcher: deactivate subscription %d failed: %v", sub.ID, derr)
		}
		return false
	}
	log.Printf("push-dispatcher: delivery to subscription %d failed: %v", sub.ID, err)
	return false
}
