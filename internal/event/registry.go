package event

import (
	"sort"
	"sync"
)

// Registry manages subscriptions organized by topic pattern.
// It is safe for concurrent access.
type Registry struct {
	mu   sync.RWMutex
	subs map[Topic][]*subscription
	byID map[string]*subscription
}

// NewRegistry creates a new subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[Topic][]*subscription),
		byID: make(map[string]*subscription),
	}
}

// Add registers a subscription under its topic pattern, keeping the
// pattern's subscription list in priority order (lower values first).
func (r *Registry) Add(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pattern := sub.Topic()
	subs := append(r.subs[pattern], sub)
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Config().Priority < subs[j].Config().Priority
	})
	r.subs[pattern] = subs
	r.byID[sub.ID()] = sub
}

// Remove removes a subscription by ID. Returns false if unknown.
func (r *Registry) Remove(subID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, exists := r.byID[subID]
	if !exists {
		return false
	}

	pattern := sub.Topic()
	subs := r.subs[pattern]
	for i, s := range subs {
		if s.ID() == subID {
			r.subs[pattern] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subs[pattern]) == 0 {
		delete(r.subs, pattern)
	}
	delete(r.byID, subID)

	return true
}

// Get returns a subscription by ID.
func (r *Registry) Get(subID string) (*subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, exists := r.byID[subID]
	return sub, exists
}

// Match returns all subscriptions whose pattern matches the given event
// topic, in priority order across patterns. A copy is returned so callers
// may iterate without holding the registry lock.
func (r *Registry) Match(eventTopic Topic) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*subscription
	for pattern, subs := range r.subs {
		if eventTopic.Matches(pattern) {
			matched = append(matched, subs...)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Config().Priority < matched[j].Config().Priority
	})
	return matched
}

// Len returns the number of registered subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
