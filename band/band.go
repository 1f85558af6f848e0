// Package band 定义做市带：围绕参考价的一段报价区间加上挂单量目标。
package band

import (
	"fmt"

	"market-keeper-go/order"
)

// Side 标识带所属方向。
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Spec 单个带的原始配置。margin 带符号：买带为负（低于参考价），
// 卖带为正（高于参考价），两侧共用同一个价格变换。
type Spec struct {
	MinMargin  float64 `yaml:"minMargin"`
	AvgMargin  float64 `yaml:"avgMargin"`
	MaxMargin  float64 `yaml:"maxMargin"`
	MinAmount  float64 `yaml:"minAmount"`
	AvgAmount  float64 `yaml:"avgAmount"`
	MaxAmount  float64 `yaml:"maxAmount"`
	DustCutoff float64 `yaml:"dustCutoff"`
}

// Band 经过校验的带。amount 以该侧的 have 资产计：买带为 quote，卖带为 base。
type Band struct {
	Side       Side
	MinMargin  float64
	AvgMargin  float64
	MaxMargin  float64
	MinAmount  float64
	AvgAmount  float64
	MaxAmount  float64
	DustCutoff float64
}

// New validates a spec and returns the band. Malformed specs are a
// configuration error and surface at load time, never at use time.
func New(side Side, s Spec) (Band, error) {
	if !(s.MinMargin <= s.AvgMargin && s.AvgMargin <= s.MaxMargin) {
		return Band{}, fmt.Errorf("%s band margins must satisfy min<=avg<=max, got %v/%v/%v",
			side, s.MinMargin, s.AvgMargin, s.MaxMargin)
	}
	if s.MinMargin <= -1 {
		return Band{}, fmt.Errorf("%s band minMargin must be > -1, got %v", side, s.MinMargin)
	}
	if s.MinAmount < 0 {
		return Band{}, fmt.Errorf("%s band minAmount must be >= 0, got %v", side, s.MinAmount)
	}
	if !(s.MinAmount <= s.AvgAmount && s.AvgAmount <= s.MaxAmount) {
		return Band{}, fmt.Errorf("%s band amounts must satisfy min<=avg<=max, got %v/%v/%v",
			side, s.MinAmount, s.AvgAmount, s.MaxAmount)
	}
	if s.DustCutoff < 0 {
		return Band{}, fmt.Errorf("%s band dustCutoff must be >= 0, got %v", side, s.DustCutoff)
	}
	return Band{
		Side:       side,
		MinMargin:  s.MinMargin,
		AvgMargin:  s.AvgMargin,
		MaxMargin:  s.MaxMargin,
		MinAmount:  s.MinAmount,
		AvgAmount:  s.AvgAmount,
		MaxAmount:  s.MaxAmount,
		DustCutoff: s.DustCutoff,
	}, nil
}

// MinPrice 该带在参考价 ref 下的价格下沿。
func (b Band) MinPrice(ref float64) float64 { return ref * (1 + b.MinMargin) }

// MaxPrice 该带在参考价 ref 下的价格上沿。
func (b Band) MaxPrice(ref float64) float64 { return ref * (1 + b.MaxMargin) }

// AvgPrice 补单时使用的目标价。
func (b Band) AvgPrice(ref float64) float64 { return ref * (1 + b.AvgMargin) }

// Includes 判断订单当前价格是否落在带内。只看调用时的参考价，
// 价格一动订单的归属就可能变化。
func (b Band) Includes(o order.Order, ref float64) bool {
	p := b.orderPrice(o)
	return p >= b.MinPrice(ref) && p <= b.MaxPrice(ref)
}

func (b Band) orderPrice(o order.Order) float64 {
	if b.Side == Buy {
		return o.BuyPrice()
	}
	return o.SellPrice()
}

// Members 返回当前落在带内的订单。
func (b Band) Members(orders []order.Order, ref float64) []order.Order {
	res := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if b.Includes(o, ref) {
			res = append(res, o)
		}
	}
	return res
}

// Excessive 返回需要取消的超额订单。超过 MaxAmount 时整带全部取消，
// 由补单阶段重建单个目标大小的订单，而不是部分裁剪。
func (b Band) Excessive(orders []order.Order, ref float64) []order.Order {
	in := b.Members(orders, ref)
	if order.TotalAmount(in) > b.MaxAmount {
		return in
	}
	return nil
}
