package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/quantumlife/viewerscope/internal/core"
)

// fakeProvider records calls and returns a fixed answer
type fakeProvider struct {
	name  string
	rec   *core.LocationRecord
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Lookup(ctx context.Context, ip string) (*core.LocationRecord, error) {
	f.calls++
	return f.rec, f.err
}

func TestIsPrivate(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"192.168.1.20", true},
		{"172.16.0.1", true},
		{"172.31.255.1", true},
		{"172.15.0.1", false},
		{"172.32.0.1", false},
		{"127.0.0.1", true},
		{"169.254.10.10", true},
		{"::1", true},
		{"::ffff:127.0.0.1", true},
		{"::ffff:10.1.2.3", true},
		{"::ffff:172.20.0.1", true},
		{"fe80::1", true},
		{"localhost", true},
		{"unknown", true},
		{"", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
		{"100.64.0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := IsPrivate(tt.ip); got != tt.want {
				t.Errorf("IsPrivate(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestChain_PrivateShortCircuit(t *testing.T) {
	p := &fakeProvider{name: "p", rec: &core.LocationRecord{City: "Nowhere"}}
	chain := NewChain(p)

	rec := chain.Resolve(context.Background(), "10.0.0.1")

	if rec == nil {
		t.Fatal("expected placeholder, got nil")
	}
	if rec.City != "Local Network" || rec.CountryCode != "LO" || rec.IP != "10.0.0.1" {
		t.Errorf("unexpected placeholder: %+v", rec)
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times for a private address", p.calls)
	}
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &fakeProvider{name: "first", err: core.ErrProviderUnavailable}
	second := &fakeProvider{name: "second", rec: &core.LocationRecord{City: "Paris"}}
	third := &fakeProvider{name: "third", rec: &core.LocationRecord{City: "Rome"}}
	chain := NewChain(first, second, third)

	rec := chain.Resolve(context.Background(), "8.8.8.8")

	if rec == nil || rec.City != "Paris" {
		t.Fatalf("Resolve() = %+v, want Paris", rec)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Errorf("calls = %d/%d/%d, want 1/1/0", first.calls, second.calls, third.calls)
	}
}

func TestChain_NilResultFallsThrough(t *testing.T) {
	empty := &fakeProvider{name: "empty"}
	good := &fakeProvider{name: "good", rec: &core.LocationRecord{City: "Oslo"}}

	rec := NewChain(empty, good).Resolve(context.Background(), "1.1.1.1")

	if rec == nil || rec.City != "Oslo" {
		t.Errorf("Resolve() = %+v, want Oslo", rec)
	}
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain(
		&fakeProvider{name: "a", err: errors.New("down")},
		&fakeProvider{name: "b", err: errors.New("down")},
	)

	if rec := chain.Resolve(context.Background(), "8.8.4.4"); rec != nil {
		t.Errorf("Resolve() = %+v, want nil", rec)
	}
	if _, err := chain.Lookup(context.Background(), "8.8.4.4"); !errors.Is(err, core.ErrLocationNotFound) {
		t.Errorf("Lookup() error = %v, want ErrLocationNotFound", err)
	}
}

func TestChain_CancelledContext(t *testing.T) {
	p := &fakeProvider{name: "p", rec: &core.LocationRecord{City: "X"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if rec := NewChain(p).Resolve(ctx, "8.8.8.8"); rec != nil {
		t.Errorf("Resolve() = %+v, want nil", rec)
	}
	if p.calls != 0 {
		t.Error("provider should not be called after cancellation")
	}
}

func TestChain_Name(t *testing.T) {
	chain := NewChain(&fakeProvider{name: "a"}, &fakeProvider{name: "b"})
	if got := chain.Name(); got != "chain(a,b)" {
		t.Errorf("Name() = %q", got)
	}
}
