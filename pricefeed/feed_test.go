package pricefeed

import (
	"testing"
	"time"
)

func TestStaticFeed(t *testing.T) {
	if p, ok := (Static{Price: 100}).GetPrice(); !ok || p != 100 {
		t.Fatalf("static feed = %v/%v", p, ok)
	}
	if _, ok := (Static{}).GetPrice(); ok {
		t.Fatalf("zero static price must be unavailable")
	}
}

func TestWSFeedStaleness(t *testing.T) {
	f := NewWSFeed("wss://example.com/price", time.Second, nil)

	if _, ok := f.GetPrice(); ok {
		t.Fatalf("feed without observations must be unavailable")
	}

	f.setPrice(100, time.Now())
	if p, ok := f.GetPrice(); !ok || p != 100 {
		t.Fatalf("fresh price = %v/%v", p, ok)
	}

	// 过期的观测必须报告不可用，而不是返回旧价
	f.setPrice(100, time.Now().Add(-2*time.Second))
	if _, ok := f.GetPrice(); ok {
		t.Fatalf("stale price must be unavailable")
	}
}
