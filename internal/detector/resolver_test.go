package detector

import (
	"errors"
	"testing"

	"github.com/piyushhhxyz/insider-detect/internal/models"
)

func TestCachedResolverMemoizesHits(t *testing.T) {
	inner := insiderLookup()
	r := NewCachedResolver(inner)

	first, err := r.Resolve("token-1")
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	second, err := r.Resolve("token-1")
	if err != nil {
		t.Fatalf("Failed to resolve from cache: %v", err)
	}
	if first != second {
		t.Error("Cache returned a different market instance")
	}
	if inner.calls != 1 {
		t.Errorf("Inner lookup called %d times, want 1", inner.calls)
	}
}

func TestCachedResolverMemoizesMisses(t *testing.T) {
	inner := &mapLookup{markets: map[string]*models.Market{}}
	r := NewCachedResolver(inner)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve("token-dead"); !errors.Is(err, ErrMarketNotFound) {
			t.Fatalf("Expected ErrMarketNotFound, got %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("Inner lookup called %d times for a dead token, want 1", inner.calls)
	}
}

type failingLookup struct{ calls int }

func (l *failingLookup) Resolve(string) (*models.Market, error) {
	l.calls++
	return nil, errors.New("backend down")
}

func TestCachedResolverRetriesTransientErrors(t *testing.T) {
	inner := &failingLookup{}
	r := NewCachedResolver(inner)

	for i := 0; i < 2; i++ {
		if _, err := r.Resolve("token-1"); err == nil {
			t.Fatal("Expected error from failing backend")
		}
	}
	// Only a definitive not-found is cached; other failures retry.
	if inner.calls != 2 {
		t.Errorf("Inner lookup called %d times, want 2", inner.calls)
	}
}
