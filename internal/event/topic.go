package event

import "strings"

// Topic is a hierarchical event type expressed as dot-separated segments,
// for example "overlay.lock.changed". When used as a subscription pattern,
// a final "*" segment matches one or more remaining segments, and the
// pattern "*" matches every topic.
type Topic string

// String returns the topic as a plain string.
func (t Topic) String() string {
	return string(t)
}

// Validate reports whether the topic is well-formed: non-empty, no empty
// segments, and "*" appearing only as the final segment.
func (t Topic) Validate() error {
	if t == "" {
		return ErrInvalidTopic
	}
	segments := strings.Split(string(t), ".")
	for i, seg := range segments {
		if seg == "" {
			return ErrInvalidTopic
		}
		if strings.Contains(seg, "*") && (seg != "*" || i != len(segments)-1) {
			return ErrInvalidTopic
		}
	}
	return nil
}

// Matches reports whether the concrete topic t matches the given pattern.
// The pattern may be exact or carry a trailing wildcard segment.
func (t Topic) Matches(pattern Topic) bool {
	if t == pattern {
		return true
	}
	if pattern == "*" {
		return t != ""
	}
	if prefix, ok := strings.CutSuffix(string(pattern), ".*"); ok {
		return strings.HasPrefix(string(t), prefix+".")
	}
	return false
}
