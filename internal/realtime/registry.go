package realtime

import (
	"context"
	"sync"
)

// ConnState models a subscriber's connection lifecycle:
// connecting → connected → (error | closed).  Error and closed are
// terminal; a subscriber that wants back in subscribes again.
type ConnState string

const (
	StateConnecting ConnState = "connecting"
	StateConnected  ConnState = "connected"
	StateError      ConnState = "error"
	StateClosed     ConnState = "closed"
)

// subscriberBuffer is the per-subscriber event buffer.  A subscriber
// that falls further behind than this is dropped rather than allowed
// to stall the fan-out for everyone else.
const subscriberBuffer = 16

// Subscription is one subscriber's registration on an instance
// channel.  Events arrive on Events until the subscription is closed;
// the channel is closed exactly once, on unsubscribe or drop.
type Subscription struct {
	ID         string
	InstanceID uint64
	Events     chan Event

	mu     sync.Mutex
	state  ConnState
	onConn func(ConnState)
	closed bool
}

// State returns the subscription's current connection state.
func (s *Subscription) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Subscription) transition(st ConnState) {
	s.mu.Lock()
	s.state = st
	cb := s.onConn
	s.mu.Unlock()
	if cb != nil {
		cb(st)
	}
}

// close closes the event channel at most once and records the final
// state.
func (s *Subscription) close(final ConnState) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = final
	cb := s.onConn
	s.mu.Unlock()
	close(s.Events)
	if cb != nil {
		cb(final)
	}
}

// Registry is the process-wide channel registry: one entry per
// instance with live subscribers.  Entries appear on first subscribe
// and disappear when the last subscriber leaves.  Created once at
// process start; all methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	channels map[uint64]map[string]*Subscription
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[uint64]map[string]*Subscription)}
}

// Subscribe registers a subscriber on the instance's channel and
// returns its subscription.  The optional onConn callback observes the
// connection state machine; it fires with connecting before
// registration and connected immediately after.  Subscribing twice
// with the same id replaces the earlier subscription (the old one is
// closed).
func (r *Registry) Subscribe(instanceID uint64, subID string, onConn func(ConnState)) *Subscription {
	sub := &Subscription{
		ID:         subID,
		InstanceID: instanceID,
		Events:     make(chan Event, subscriberBuffer),
		state:      StateConnecting,
		onConn:     onConn,
	}
	if onConn != nil {
		onConn(StateConnecting)
	}

	r.mu.Lock()
	chans := r.channels[instanceID]
	if chans == nil {
		chans = make(map[string]*Subscription)
		r.channels[instanceID] = chans
	}
	old := chans[subID]
	chans[subID] = sub
	r.mu.Unlock()

	if old != nil {
		old.close(StateClosed)
	}
	sub.transition(StateConnected)
	return sub
}

// Unsubscribe removes a subscriber and closes its event channel.  When
// the last subscriber for an instance leaves, the channel entry itself
// is removed.  Unknown ids are a no-op, so disconnect cleanup can be
// fired unconditionally.
func (r *Registry) Unsubscribe(instanceID uint64, subID string) {
	r.mu.Lock()
	chans := r.channels[instanceID]
	sub := chans[subID]
	if sub != nil {
		delete(chans, subID)
		if len(chans) == 0 {
			delete(r.channels, instanceID)
		}
	}
	r.mu.Unlock()
	if sub != nil {
		sub.close(StateClosed)
	}
}

// Publish delivers the event to every current subscriber of its
// instance.  Delivery is non-blocking: a subscriber whose buffer is
// full is dropped with a terminal error state, and its removal never
// affects the other subscribers on the channel.
func (r *Registry) Publish(ctx context.Context, e Event) {
	r.mu.RLock()
	chans := r.channels[e.InstanceID]
	subs := make([]*Subscription, 0, len(chans))
	for _, s := range chans {
		subs = append(subs, s)
	}
	r.mu.RUnlock()

	var dropped []*Subscription
	for _, s := range subs {
		select {
		case s.Events <- e:
		default:
			dropped = append(dropped, s)
		}
	}
	for _, s := range dropped {
		r.mu.Lock()
		if chans := r.channels[e.InstanceID]; chans != nil && chans[s.ID] == s {
			delete(chans, s.ID)
			if len(chans) == 0 {
				delete(r.channels, e.InstanceID)
			}
		}
		r.mu.Unlock()
		s.close(StateError)
	}
}

// SubscriberCount reports how many subscribers the instance's channel
// currently has.
func (r *Registry) SubscriberCount(instanceID uint64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[instanceID])
}
