// Package permission implements wildcard permission strings of the form
// "realm:resource:action". Resource and action segments may carry
// "."-separated sub-segments; granted permissions may use "*" to match a
// single sub-segment and "**" to match a sub-segment plus everything after
// it. Requested permissions are always concrete.
package permission

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformed is returned by Parse for inputs that do not contain exactly
// three non-empty colon-separated parts.
var ErrMalformed = errors.New("a permission must have all three parts")

// Permission is a single access-control atom.
type Permission struct {
	Realm    string
	Resource string
	Action   string
}

// Parse builds a Permission from its string form.
func Parse(input string) (Permission, error) {
	parts := strings.Split(input, ":")
	if len(parts) != 3 {
		return Permission{}, fmt.Errorf("%w: %q", ErrMalformed, input)
	}

	for _, part := range parts {
		if part == "" {
			return Permission{}, fmt.Errorf("%w: %q", ErrMalformed, input)
		}
	}

	return Permission{
		Realm:    parts[0],
		Resource: parts[1],
		Action:   parts[2],
	}, nil
}

// MustParse is Parse for trusted literals, panicking on malformed input.
func MustParse(input string) Permission {
	p, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseAll parses every entry, failing on the first malformed one.
func ParseAll(inputs []string) ([]Permission, error) {
	out := make([]Permission, 0, len(inputs))
	for _, input := range inputs {
		p, err := Parse(input)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (p Permission) String() string {
	return strings.Join([]string{p.Realm, p.Resource, p.Action}, ":")
}

// Match reports whether a granted segment covers a requested segment.
// A granted "**" covers anything. Otherwise both segments are split on "."
// and walked position by position: "**" covers the remainder, "*" covers
// exactly one requested sub-segment, anything else must be string-equal.
// Every requested position must be accounted for.
func Match(requested, granted string) bool {
	if requested == granted {
		return true
	}

	if granted == "**" {
		return true
	}

	requestedParts := strings.Split(requested, ".")
	grantedParts := strings.Split(granted, ".")

	for i := range requestedParts {
		if i > len(grantedParts)-1 {
			return false
		}

		switch grantedParts[i] {
		case "**":
			return true
		case "*", requestedParts[i]:
			// covered, keep walking
		default:
			return false
		}
	}

	// leftover granted positions went unconsumed: "*" covers exactly one
	// sub-segment and "**" a sub-segment plus remainder, never zero
	return len(grantedParts) == len(requestedParts)
}

// Matches reports whether the granted permission covers p. The realm,
// resource, and action segments must each match independently.
func (p Permission) Matches(granted Permission) bool {
	if p == granted {
		return true
	}

	return Match(p.Realm, granted.Realm) &&
		Match(p.Resource, granted.Resource) &&
		Match(p.Action, granted.Action)
}

// Order is a total preorder over permissions: more wildcarded sorts greater.
// Fields are compared realm, resource, action; the first decisive field wins.
// Two distinct concrete values are incomparable at their field and fall
// through to the next; if no field is decisive the permissions order Equal.
func (p Permission) Order(other Permission) int {
	if p == other {
		return 0
	}

	if result, decisive := orderPart(p.Realm, other.Realm); decisive && result != 0 {
		return result
	}

	if result, decisive := orderPart(p.Resource, other.Resource); decisive && result != 0 {
		return result
	}

	if result, decisive := orderPart(p.Action, other.Action); decisive && result != 0 {
		return result
	}

	return 0
}

// orderPart ranks "**" above "*" above any concrete value. Distinct concrete
// values are incomparable: decisive is false.
func orderPart(left, right string) (result int, decisive bool) {
	if left == right {
		return 0, true
	}

	if left == "**" {
		return 1, true
	}

	if right == "**" {
		return -1, true
	}

	if left == "*" {
		return 1, true
	}

	if right == "*" {
		return -1, true
	}

	return 0, false
}

// Sort orders permissions ascending, least wildcarded first.
func Sort(permissions []Permission) {
	sort.SliceStable(permissions, func(i, j int) bool {
		return permissions[i].Order(permissions[j]) < 0
	})
}

// GetMatching returns the candidate that covers the requested permission.
// Candidates are ordered and scanned most wildcarded first, so when several
// candidates match, the broadest grant is returned rather than the most
// specific one. Callers depend on that: the winning grant is reported back
// as the reason access was allowed.
func GetMatching(requested Permission, candidates []Permission) (Permission, bool) {
	ordered := make([]Permission, len(candidates))
	copy(ordered, candidates)
	Sort(ordered)

	for i := len(ordered) - 1; i >= 0; i-- {
		if requested.Matches(ordered[i]) {
			return ordered[i], true
		}
	}

	return Permission{}, false
}

// Can reports whether any candidate covers the requested permission.
func Can(requested Permission, candidates []Permission) bool {
	_, ok := GetMatching(requested, candidates)
	return ok
}
