package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveNetworkRequestDefaultsLabels(t *testing.T) {
	before := testutil.ToFloat64(NetworkRequestTotal.WithLabelValues("unknown", "unknown", "unknown", "error"))
	ObserveNetworkRequest("", "", "", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(NetworkRequestTotal.WithLabelValues("unknown", "unknown", "unknown", "error"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestObserveCommand(t *testing.T) {
	ObserveCommand("nukem_quote", nil)
	ObserveCommand("nukem_quote", errors.New("boom"))
	if got := testutil.ToFloat64(CommandsTotal.WithLabelValues("nukem_quote", "success")); got < 1 {
		t.Fatalf("success counter = %v", got)
	}
	if got := testutil.ToFloat64(CommandsTotal.WithLabelValues("nukem_quote", "error")); got < 1 {
		t.Fatalf("error counter = %v", got)
	}
}
