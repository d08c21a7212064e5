package mirror

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Policy decides which candidates of a listing page end up in the manifest.
type Policy string

const (
	// PolicyPageOrder takes the first candidate in page order. With "latest"
	// already excluded this tracks one version behind the floating pointer,
	// as long as the index lists versions newest first.
	PolicyPageOrder Policy = "page-order"
	// PolicyHighest orders candidates by version and takes the highest.
	PolicyHighest Policy = "highest"
	// PolicyAll keeps every candidate.
	PolicyAll Policy = "all"
)

// Policies lists the accepted policy names.
var Policies = []Policy{PolicyPageOrder, PolicyHighest, PolicyAll}

// ParsePolicy validates a policy name. The empty string selects
// PolicyPageOrder.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return PolicyPageOrder, nil
	}
	p := Policy(s)
	if slices.Contains(Policies, p) {
		return p, nil
	}
	return "", fmt.Errorf("unknown selection policy %q (want one of %v)", s, Policies)
}

// Select applies the policy. The input slice is not modified.
func (p Policy) Select(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	switch p {
	case PolicyAll:
		return slices.Clone(candidates)
	case PolicyHighest:
		best := candidates[0]
		for _, c := range candidates[1:] {
			if CompareVersions(c.Version, best.Version) > 0 {
				best = c
			}
		}
		return []Candidate{best}
	default:
		return []Candidate{candidates[0]}
	}
}

// CompareVersions orders two plugin version strings, returning -1, 0 or +1.
// Versions that are valid semver once prefixed with "v" ("1.2", "2.0.1-rc1")
// are compared with semver rules; anything else ("3.4.1.1", "1.0-beta-2")
// falls back to comparing dot/dash separated segments, numerically where
// both segments are numbers.
func CompareVersions(a, b string) int {
	va, vb := "v"+a, "v"+b
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb)
	}
	return compareSegments(a, b)
}

func compareSegments(a, b string) int {
	split := func(s string) []string {
		return strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' || r == '_' })
	}
	as, bs := split(a), split(b)

	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aErr := strconv.Atoi(as[i])
		bn, bErr := strconv.Atoi(bs[i])
		switch {
		case aErr == nil && bErr == nil:
			if an != bn {
				return cmpInt(an, bn)
			}
		case aErr == nil:
			// release segment beats a qualifier such as "beta"
			return 1
		case bErr == nil:
			return -1
		default:
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
		}
	}
	switch {
	case len(as) == len(bs):
		return 0
	case len(as) > len(bs):
		return extraSegment(as[len(bs)])
	default:
		return -extraSegment(bs[len(as)])
	}
}

// extraSegment orders a version against its own prefix: "1.0.1" is newer
// than "1.0", "1.0-beta" is older.
func extraSegment(s string) int {
	if _, err := strconv.Atoi(s); err == nil {
		return 1
	}
	return -1
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
