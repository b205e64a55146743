package domain

import "strings"

// Wildcard is the label that matches any single label.
const Wildcard = "*"

// Pattern is an immutable dotted domain split into labels. Each label position
// is either fixed (compared literally) or a wildcard.
type Pattern struct {
	labels   []string
	wildcard []bool
}

// NewPattern parses s into a Pattern. Wildcard labels are allowed.
// The string is split on "." as is: empty labels are kept and label content is
// not validated.
func NewPattern(s string) (Pattern, error) {
	labels := strings.Split(s, ".")
	wildcard := make([]bool, len(labels))

	for i, label := range labels {
		wildcard[i] = label == Wildcard
	}

	return Pattern{labels: labels, wildcard: wildcard}, nil
}

// NewHostKey parses the hostname of a request. It fails with a
// *ConfigurationError if any label is the wildcard marker.
func NewHostKey(s string) (Pattern, error) {
	p, err := NewPattern(s)
	if err != nil {
		return Pattern{}, err
	}

	if p.hasWildcard() {
		return Pattern{}, &ConfigurationError{Value: s, Reason: ErrWildcardInHostKey}
	}

	return p, nil
}

// Match reports whether host satisfies p: both must have the same number of
// labels and every fixed label of p must equal the host label at the same
// position. Comparison is case-sensitive.
func (p Pattern) Match(host Pattern) bool {
	if len(p.labels) != len(host.labels) {
		return false
	}

	for i, label := range p.labels {
		if p.wildcard[i] {
			continue
		}
		if label != host.labels[i] {
			return false
		}
	}

	return true
}

// Len returns the number of labels.
func (p Pattern) Len() int {
	return len(p.labels)
}

// Labels returns a copy of the labels in order.
func (p Pattern) Labels() []string {
	out := make([]string, len(p.labels))
	copy(out, p.labels)
	return out
}

// IsWildcard reports whether the label at index i is a wildcard.
func (p Pattern) IsWildcard(i int) bool {
	if i < 0 || i >= len(p.wildcard) {
		return false
	}
	return p.wildcard[i]
}

// WildcardPositions returns the indices holding the wildcard marker.
func (p Pattern) WildcardPositions() []int {
	return p.positions(true)
}

// FixedPositions returns the indices holding literal labels.
func (p Pattern) FixedPositions() []int {
	return p.positions(false)
}

func (p Pattern) String() string {
	return strings.Join(p.labels, ".")
}

func (p Pattern) positions(wildcard bool) []int {
	out := make([]int, 0, len(p.wildcard))
	for i, w := range p.wildcard {
		if w == wildcard {
			out = append(out, i)
		}
	}
	return out
}

func (p Pattern) hasWildcard() bool {
	for _, w := range p.wildcard {
		if w {
			return true
		}
	}
	return false
}
