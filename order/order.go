package order

// Order 交易所订单的只读视图。订单归交易所所有，keeper 只观察，
// 不修改；取消后的订单可能在下一次查询中仍然短暂可见。
type Order struct {
	ID         string
	Owner      string
	SellAsset  string
	SellAmount float64
	BuyAsset   string
	BuyAmount  float64
}

// BuyPrice 返回买单的成交价（quote/base）：我们卖 quote 买 base。
func (o Order) BuyPrice() float64 {
	return o.SellAmount / o.BuyAmount
}

// SellPrice 返回卖单的成交价（quote/base）：我们卖 base 买 quote。
func (o Order) SellPrice() float64 {
	return o.BuyAmount / o.SellAmount
}

// Pair 标识交易对的两种资产。
type Pair struct {
	Base  string
	Quote string
}

// TotalAmount sums the orders' sell (have) side, which is the asset the
// keeper has committed to the book.
func TotalAmount(orders []Order) float64 {
	total := 0.0
	for _, o := range orders {
		total += o.SellAmount
	}
	return total
}
