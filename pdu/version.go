package pdu

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a runtime semantic-version handle compared against a field's version predicate. A nil
// *Version means "current / newest", which matches every predicate.
type Version struct {
	v *semver.Version
}

// ParseVersion parses a "major.minor.patch"-style string into a Version.
func ParseVersion(s string) (*Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("pdu: invalid version %q: %w", s, err)
	}
	return &Version{v: v}, nil
}

// MustParseVersion is ParseVersion, panicking on error; intended for static version literals.
func MustParseVersion(s string) *Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// predicate is a compiled version gate. A zero predicate (parsed from an empty string) matches
// everything and is used for fields with no declared Version.
type predicate struct {
	raw        string
	constraint *semver.Constraints
}

// parsePredicate compiles a field's Version string ("" permitted) into Masterminds constraint syntax.
// The supported predicate grammar (">=", "<=", ">", "<", "==", "~>") is translated to Masterminds' own
// operators: "==" becomes "=", and "~>" becomes Masterminds' tilde "~", which allows patch-level
// changes only: "~> 2.1" and "~> 2.1.0" both match >= 2.1.0, < 2.2.0. For the two-component form this
// is narrower than Ruby/Bundler-style "~>", under which "~> 2.1" would also match 2.2.0.
func parsePredicate(raw string) (predicate, error) {
	if strings.TrimSpace(raw) == "" {
		return predicate{raw: raw}, nil
	}
	translated := raw
	translated = strings.ReplaceAll(translated, "~>", "~")
	translated = strings.ReplaceAll(translated, "==", "=")
	c, err := semver.NewConstraint(translated)
	if err != nil {
		return predicate{}, fmt.Errorf("invalid version predicate %q: %w", raw, err)
	}
	return predicate{raw: raw, constraint: c}, nil
}

func (p predicate) isSet() bool {
	return p.constraint != nil
}

// matches reports whether runtime version v satisfies the predicate. A nil v always matches: an absent
// runtime version is treated as "match all gated fields."
func (p predicate) matches(v *Version) bool {
	if !p.isSet() {
		return true
	}
	if v == nil {
		return true
	}
	return p.constraint.Check(v.v)
}
