package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.TickDone()
	c.TickDone()
	c.CancelSubmitted()
	c.PlaceSubmitted()
	c.SubmitError("cancel")
	c.SetRefPrice(100.5)
	c.SetConfigValid(false)

	if got := testutil.ToFloat64(c.ticks); got != 2 {
		t.Fatalf("ticks = %v", got)
	}
	if got := testutil.ToFloat64(c.refPrice); got != 100.5 {
		t.Fatalf("refPrice = %v", got)
	}
	if got := testutil.ToFloat64(c.configValid); got != 0 {
		t.Fatalf("configValid = %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	// 不应 panic
	c.TickDone()
	c.CancelSubmitted()
	c.PlaceSubmitted()
	c.SubmitError("place")
	c.SetRefPrice(1)
	c.SetOpenOrders(3)
	c.SetActiveBands(1, 2)
	c.SetFreeBalance("SAI", 10)
	c.SetConfigValid(true)
}
