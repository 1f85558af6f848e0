package order

import "testing"

var pair = Pair{Base: "WETH", Quote: "SAI"}

func TestClassifyBySide(t *testing.T) {
	orders := []Order{
		{ID: "b1", SellAsset: "SAI", SellAmount: 100, BuyAsset: "WETH", BuyAmount: 1},
		{ID: "s1", SellAsset: "WETH", SellAmount: 1, BuyAsset: "SAI", BuyAmount: 102},
		{ID: "x1", SellAsset: "DAI", SellAmount: 10, BuyAsset: "WETH", BuyAmount: 0.1},
	}
	buys := BuyOrders(orders, pair)
	sells := SellOrders(orders, pair)
	if len(buys) != 1 || buys[0].ID != "b1" {
		t.Fatalf("buy classification wrong: %+v", buys)
	}
	if len(sells) != 1 || sells[0].ID != "s1" {
		t.Fatalf("sell classification wrong: %+v", sells)
	}
}

func TestPricePerSide(t *testing.T) {
	buy := Order{SellAsset: "SAI", SellAmount: 99, BuyAsset: "WETH", BuyAmount: 1}
	if got := buy.BuyPrice(); got != 99 {
		t.Fatalf("buy price = %v, want 99", got)
	}
	sell := Order{SellAsset: "WETH", SellAmount: 2, BuyAsset: "SAI", BuyAmount: 204}
	if got := sell.SellPrice(); got != 102 {
		t.Fatalf("sell price = %v, want 102", got)
	}
}

func TestTotalAmount(t *testing.T) {
	orders := []Order{{SellAmount: 1.5}, {SellAmount: 2.5}}
	if got := TotalAmount(orders); got != 4 {
		t.Fatalf("total = %v, want 4", got)
	}
	if got := TotalAmount(nil); got != 0 {
		t.Fatalf("empty total = %v, want 0", got)
	}
}

func TestOwnedBy(t *testing.T) {
	orders := []Order{{ID: "1", Owner: "us"}, {ID: "2", Owner: "them"}}
	ours := OwnedBy(orders, "us")
	if len(ours) != 1 || ours[0].ID != "1" {
		t.Fatalf("owned filter wrong: %+v", ours)
	}
}
