package geoip

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewResolverEmptyPathDisablesLookups(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if r != nil {
		t.Fatalf("expected nil resolver, got %T", r)
	}
	if Lookup(r) != nil {
		t.Fatalf("expected nil lookup for nil resolver")
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Fatalf("expected error for missing database")
	}
}

func TestUninitializedResolver(t *testing.T) {
	var r *Resolver
	if _, err := r.CountryCode("8.8.8.8"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	lookup := Lookup(r)
	if _, err := lookup("8.8.8.8"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("lookup should delegate to CountryCode, got %v", err)
	}
}
