package order

// 分类每个 tick 都要重新做：订单属于哪一侧由资产方向决定，与价格无关，
// 但属于哪个 band 取决于当时的参考价，不能缓存。

// OwnedBy 过滤出指定账户的订单。
func OwnedBy(orders []Order, owner string) []Order {
	res := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Owner == owner {
			res = append(res, o)
		}
	}
	return res
}

// BuyOrders 返回买单：卖出 quote 换取 base。
func BuyOrders(orders []Order, p Pair) []Order {
	res := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.SellAsset == p.Quote && o.BuyAsset == p.Base {
			res = append(res, o)
		}
	}
	return res
}

// SellOrders 返回卖单：卖出 base 换取 quote。
func SellOrders(orders []Order, p Pair) []Order {
	res := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.SellAsset == p.Base && o.BuyAsset == p.Quote {
			res = append(res, o)
		}
	}
	return res
}
