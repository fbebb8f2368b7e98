// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidConstraint is the sentinel error wrapped by InvalidConstraintError.
var ErrInvalidConstraint = errors.New("invalid version constraint")

var constraintPattern = regexp.MustCompile(`^([~^]|>=|<=|>|<|=)?\s*v?(\d+(?:\.\d+){0,2}(?:-[0-9A-Za-z.-]+)?)$`)

type (
	// VersionConstraint restricts the versions of a PackageRef. Supported
	// operators are = (default), >, >=, <, <=, ^ (same major) and
	// ~ (same major.minor). The zero value matches any version.
	VersionConstraint string

	// InvalidConstraintError is returned for constraints that do not parse.
	InvalidConstraintError struct {
		Value VersionConstraint
	}

	constraint struct {
		op      string
		version string
	}
)

// IsZero reports whether no constraint is set.
func (c VersionConstraint) IsZero() bool { return strings.TrimSpace(string(c)) == "" }

// String returns the constraint text.
func (c VersionConstraint) String() string { return string(c) }

// Validate returns an error when the constraint does not parse.
func (c VersionConstraint) Validate() error {
	_, err := c.parse()
	return err
}

func (c VersionConstraint) parse() (constraint, error) {
	m := constraintPattern.FindStringSubmatch(strings.TrimSpace(string(c)))
	if m == nil {
		return constraint{}, &InvalidConstraintError{Value: c}
	}
	op := m[1]
	if op == "" {
		op = "="
	}
	v := "v" + m[2]
	if !semver.IsValid(v) {
		return constraint{}, &InvalidConstraintError{Value: c}
	}
	return constraint{op: op, version: v}, nil
}

// Matches reports whether version satisfies the constraint. A zero
// constraint matches everything. Versions that are not semantic versions
// (for example OpenSSL's "1.0.1h") only match a zero constraint.
func (c VersionConstraint) Matches(version string) (bool, error) {
	if c.IsZero() {
		return true, nil
	}
	parsed, err := c.parse()
	if err != nil {
		return false, err
	}
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return false, nil
	}

	cmp := semver.Compare(v, parsed.version)
	switch parsed.op {
	case "=":
		return cmp == 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case "^":
		if semver.Major(parsed.version) == "v0" {
			return cmp >= 0 && semver.MajorMinor(v) == semver.MajorMinor(parsed.version), nil
		}
		return cmp >= 0 && semver.Major(v) == semver.Major(parsed.version), nil
	case "~":
		return cmp >= 0 && semver.MajorMinor(v) == semver.MajorMinor(parsed.version), nil
	default:
		return false, &InvalidConstraintError{Value: c}
	}
}

// Error implements the error interface.
func (e *InvalidConstraintError) Error() string {
	return fmt.Sprintf("invalid version constraint %q (expected e.g. \"2.4\", \">=1.5\", \"^1.0.0\")", e.Value)
}

// Unwrap returns ErrInvalidConstraint for errors.Is() compatibility.
func (e *InvalidConstraintError) Unwrap() error { return ErrInvalidConstraint }
