package classify

import (
	"context"
	"errors"
	"net"
	"testing"
)

func TestFromTransportTagsKnownNetErrors(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "example.invalid"}
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	cases := []struct {
		name string
		err  error
		want *Kind
	}{
		{"dns", dnsErr, DNS},
		{"deadline exceeded", context.DeadlineExceeded, Timeout},
		{"canceled", context.Canceled, Canceled},
		{"op error", opErr, Connection},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tagged := FromTransport(tc.err)
			kind, ok := KindOf(tagged)
			if !ok {
				t.Fatalf("expected %v to be classified, got unclassified %v", tc.err, tagged)
			}
			if !kind.Is(tc.want) {
				t.Fatalf("expected kind %v, got %v", tc.want, kind)
			}
			if !errors.Is(tagged, tc.err) {
				t.Fatalf("expected classified error to wrap the original")
			}
		})
	}
}

func TestFromTransportLeavesUnknownErrorsUnclassified(t *testing.T) {
	boom := errors.New("boom")
	tagged := FromTransport(boom)
	if _, ok := KindOf(tagged); ok {
		t.Fatalf("expected an unrelated error to stay unclassified, got a kind")
	}
	if tagged != boom {
		t.Fatalf("expected the original error back unchanged")
	}
}

func TestFromTransportIsIdempotent(t *testing.T) {
	already := New(Connection, errors.New("refused"))
	if FromTransport(already) != already {
		t.Fatalf("expected an already-classified error to pass through unchanged")
	}
}

func TestFromTransportNil(t *testing.T) {
	if FromTransport(nil) != nil {
		t.Fatalf("expected nil in, nil out")
	}
}
