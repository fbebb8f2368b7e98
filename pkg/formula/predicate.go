// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gammamatrix/homebrew-apache/pkg/options"
)

// ErrInvalidPredicate is the sentinel error wrapped by InvalidPredicateError.
var ErrInvalidPredicate = errors.New("invalid predicate")

type (
	// Predicate is a condition over the selected options: a conjunction of
	// terms joined by "&&", where each term is an option name optionally
	// negated with '!'. For example "brewed-apr" or "ldap && !pcre". The zero
	// value means "no condition".
	Predicate string

	// Term is one operand of a Predicate.
	Term struct {
		Option  string
		Negated bool
	}

	// InvalidPredicateError is returned for malformed predicates and for
	// predicates that name undeclared options.
	InvalidPredicateError struct {
		Value  Predicate
		Reason string
	}
)

// IsZero reports whether the predicate is absent.
func (p Predicate) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// String returns the predicate text.
func (p Predicate) String() string { return string(p) }

// Terms parses the predicate. An absent predicate has no terms.
func (p Predicate) Terms() ([]Term, error) {
	if p.IsZero() {
		return nil, nil
	}
	parts := strings.Split(string(p), "&&")
	terms := make([]Term, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		term := Term{Option: part}
		if rest, ok := strings.CutPrefix(part, "!"); ok {
			term = Term{Option: strings.TrimSpace(rest), Negated: true}
		}
		if term.Option == "" || strings.ContainsAny(term.Option, " \t!&|") {
			return nil, &InvalidPredicateError{Value: p, Reason: fmt.Sprintf("malformed term %q", part)}
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// Holds evaluates the predicate against sel. An absent predicate holds.
// Malformed predicates never hold; Validate rejects them at load time.
func (p Predicate) Holds(sel options.Selected) bool {
	terms, err := p.Terms()
	if err != nil {
		return false
	}
	for _, term := range terms {
		if sel.Enabled(term.Option) == term.Negated {
			return false
		}
	}
	return true
}

// Validate checks the syntax and that every term names a declared option.
func (p Predicate) Validate(declared func(string) bool) error {
	terms, err := p.Terms()
	if err != nil {
		return err
	}
	for _, term := range terms {
		if !declared(term.Option) {
			return &InvalidPredicateError{Value: p, Reason: fmt.Sprintf("option %q is not declared", term.Option)}
		}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidPredicateError) Error() string {
	return fmt.Sprintf("invalid predicate %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidPredicate for errors.Is() compatibility.
func (e *InvalidPredicateError) Unwrap() error { return ErrInvalidPredicate }
