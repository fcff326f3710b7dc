package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordGeneration(t *testing.T) {
	before := testutil.ToFloat64(GenerationResults.WithLabelValues("shorts_script", "parse_error"))
	RecordGeneration("shorts_script", "parse_error", 120*time.Millisecond)
	after := testutil.ToFloat64(GenerationResults.WithLabelValues("shorts_script", "parse_error"))
	if after != before+1 {
		t.Fatalf("expected counter to grow by one, got %v -> %v", before, after)
	}
}

func TestRecordIntent(t *testing.T) {
	before := testutil.ToFloat64(IntentsRouted.WithLabelValues("movie_recommendation", "true"))
	RecordIntent("movie_recommendation", true)
	if got := testutil.ToFloat64(IntentsRouted.WithLabelValues("movie_recommendation", "true")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}

func TestRecordRetrievalError(t *testing.T) {
	before := testutil.ToFloat64(RetrievalErrors.WithLabelValues("content"))
	RecordRetrieval("content", 0, errors.New("store offline"))
	if got := testutil.ToFloat64(RetrievalErrors.WithLabelValues("content")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}
