// Package classify implements the error-kind taxonomy used by the breaker's
// allowed/failure error sets.
//
// The reference implementation matches exceptions by Python's class hierarchy
// (a caught exception "matches" a configured exception class if it is an
// instance of that class or one of its subclasses). Go has no exception
// hierarchy to borrow, so this package models the same idea explicitly: a
// Kind is a named tag that can declare a parent, forming a tree, and a Set
// matches an error if the error's Kind equals or descends from any Kind in
// the set.
package classify

import (
	"context"
	"errors"
	"net"
)

// Kind tags an error with a place in the transport-failure taxonomy.
// Kinds form a tree via Parent; matching an error against a Set walks up
// the tree, so a Set containing TransportError also matches Connection,
// Timeout, and DNS.
type Kind struct {
	name   string
	parent *Kind
}

// NewKind declares a new error kind, optionally descending from parent.
// Declare kinds as package-level vars; Kind values are compared by identity.
func NewKind(name string, parent *Kind) *Kind {
	return &Kind{name: name, parent: parent}
}

// String returns the kind's name, for logging.
func (k *Kind) String() string {
	if k == nil {
		return "unknown"
	}
	return k.name
}

// Is reports whether k equals other or descends from it.
func (k *Kind) Is(other *Kind) bool {
	for cur := k; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Predefined transport-failure kinds. TransportError is the root; the
// retriable leaves mirror the outcomes the reference Python client's
// requests.exceptions.ConnectionError collapses into a single class.
var (
	TransportError = NewKind("transport_error", nil)
	Connection     = NewKind("connection", TransportError)
	Timeout        = NewKind("timeout", TransportError)
	DNS            = NewKind("dns", TransportError)
	Canceled       = NewKind("canceled", nil)
)

// Error wraps an underlying error with a Kind so it can be matched by a Set.
type Error struct {
	Kind *Kind
	Err  error
}

// New tags err with kind. If err is nil, New returns nil.
func New(kind *Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind attached to err via New, if any.
func KindOf(err error) (*Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return nil, false
}

// FromTransport tags err, returned by an http.RoundTripper, with the Kind
// it corresponds to in the taxonomy above. It is the Go-native replacement
// for the reference client's isinstance(err, requests.exceptions.X) checks:
// a *net.DNSError becomes DNS, a timeout (either a net.Error reporting
// Timeout() or context.DeadlineExceeded) becomes Timeout, a canceled
// context becomes Canceled, and any other *net.OpError (refused, reset,
// no route, and similar dial/write/read failures) falls back to the
// broader Connection kind. A nil err returns nil, and an err that is
// already a *Error (already classified) is returned unchanged with its
// existing Kind. Anything outside this taxonomy (a body-read error, a
// malformed request) passes through unclassified, so Set.Match never
// matches it rather than guessing.
func FromTransport(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := KindOf(err); ok {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return New(Canceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(Timeout, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return New(DNS, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return New(Timeout, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return New(Connection, err)
	}

	return err
}

// Set is an unordered collection of Kinds used for allowed/failure error
// matching. The zero Set matches nothing.
type Set struct {
	kinds []*Kind
}

// NewSet builds a Set from the given kinds.
func NewSet(kinds ...*Kind) Set {
	return Set{kinds: kinds}
}

// Empty reports whether the set has no members.
func (s Set) Empty() bool { return len(s.kinds) == 0 }

// Match reports whether err's Kind equals or descends from any kind in s.
// An err with no attached Kind never matches.
func (s Set) Match(err error) bool {
	if s.Empty() || err == nil {
		return false
	}
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	for _, want := range s.kinds {
		if k.Is(want) {
			return true
		}
	}
	return false
}
