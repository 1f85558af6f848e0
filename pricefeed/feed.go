// Package pricefeed 提供参考价来源。价格不可用时必须明确说"不可用"，
// 核心据此进入仅撤单模式，绝不用过期价格报价。
package pricefeed

// Feed 返回当前参考价；ok=false 表示不可用。
type Feed interface {
	GetPrice() (float64, bool)
}

// Static 固定价格来源，用于工具和测试。
type Static struct {
	Price float64
}

func (s Static) GetPrice() (float64, bool) {
	if s.Price <= 0 {
		return 0, false
	}
	return s.Price, true
}
