package event

import (
	"context"
	"testing"
)

func newTestSub(pattern Topic, priority Priority) *subscription {
	handler := HandlerFunc(func(ctx context.Context, ev Event) error { return nil })
	return newSubscription(pattern, handler, SubscriptionConfig{Priority: priority})
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	sub := newTestSub("overlay.test", PriorityNormal)

	r.Add(sub)
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	if _, ok := r.Get(sub.ID()); !ok {
		t.Error("Get() did not find added subscription")
	}

	if !r.Remove(sub.ID()) {
		t.Error("Remove() returned false for known subscription")
	}
	if r.Remove(sub.ID()) {
		t.Error("Remove() returned true for already-removed subscription")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_MatchAcrossPatterns(t *testing.T) {
	r := NewRegistry()
	exact := newTestSub("overlay.lock.changed", PriorityLow)
	wildcard := newTestSub("overlay.*", PriorityHigh)
	other := newTestSub("config.reloaded", PriorityNormal)

	r.Add(exact)
	r.Add(wildcard)
	r.Add(other)

	matched := r.Match("overlay.lock.changed")
	if len(matched) != 2 {
		t.Fatalf("Match() returned %d subscriptions, want 2", len(matched))
	}
	// Priority order across patterns: the wildcard subscription is high priority.
	if matched[0].ID() != wildcard.ID() {
		t.Errorf("matched[0] = %s, want wildcard subscription", matched[0].Topic())
	}
	if matched[1].ID() != exact.ID() {
		t.Errorf("matched[1] = %s, want exact subscription", matched[1].Topic())
	}
}
