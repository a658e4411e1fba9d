package request

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
)

func emptyFilters() filter.Set {
	s, _ := filter.NewSet(nil, nil)
	return s
}

func TestNew_Defaults(t *testing.T) {
	r, err := New("wine", 0, emptyFilters())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "wine" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.BatchSize() != DefaultBatchSize {
		t.Errorf("BatchSize() = %d, want %d", r.BatchSize(), DefaultBatchSize)
	}
}

func TestNew_EmptyQuery(t *testing.T) {
	_, err := New("", 10, emptyFilters())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_WhitespaceQuery(t *testing.T) {
	_, err := New("   \t  ", 10, emptyFilters())
	if err == nil {
		t.Fatal("expected error for whitespace-only query")
	}
}

func TestNew_TrimsQuery(t *testing.T) {
	r, err := New("  dry red wine  ", 10, emptyFilters())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "dry red wine" {
		t.Errorf("Query() = %q, want trimmed", r.Query())
	}
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(strings.Repeat("x", MaxQueryLength+1), 10, emptyFilters())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_QueryAtMaxLength(t *testing.T) {
	_, err := New(strings.Repeat("x", MaxQueryLength), 10, emptyFilters())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_BatchSizeClamping(t *testing.T) {
	tests := []struct {
		name string
		size int
		want int
	}{
		{"negative", -1, DefaultBatchSize},
		{"zero", 0, DefaultBatchSize},
		{"normal", 30, 30},
		{"over max", 200, MaxBatchSize},
		{"exactly max", MaxBatchSize, MaxBatchSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New("q", tt.size, emptyFilters())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.BatchSize() != tt.want {
				t.Errorf("BatchSize() = %d, want %d", r.BatchSize(), tt.want)
			}
		})
	}
}

func TestNew_WithFilters(t *testing.T) {
	m, _ := filter.NewMatch("category", "wine")
	set, _ := filter.NewSet([]filter.Condition{m}, nil)

	r, err := New("query", 10, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Filters().IsEmpty() {
		t.Error("Filters().IsEmpty() = true, want false")
	}
}

// --- SimilarRequest tests ---

func TestNewSimilar_Defaults(t *testing.T) {
	r, err := NewSimilar("prod-1", emptyFilters(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ExcludeID() != "prod-1" {
		t.Errorf("ExcludeID() = %q", r.ExcludeID())
	}
	if r.Limit() != DefaultNeighborLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultNeighborLimit)
	}
}

func TestNewSimilar_EmptyAnchor(t *testing.T) {
	_, err := NewSimilar("", emptyFilters(), 10)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSimilar_LimitClamping(t *testing.T) {
	r, err := NewSimilar("prod-1", emptyFilters(), MaxNeighborLimit+50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxNeighborLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxNeighborLimit)
	}
}
