// Package engine 实现带对账：每个 tick 根据带配置、自有订单、
// 参考价和可用余额，决定撤哪些单、补哪些单。
package engine

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"market-keeper-go/band"
	"market-keeper-go/config"
	"market-keeper-go/metrics"
	"market-keeper-go/order"
)

// Venue 交易所接口（由外部实现）。Cancel 对已不存在的订单必须是幂等空操作。
type Venue interface {
	GetOwnOrders(ctx context.Context) ([]order.Order, error)
	GetBalance(ctx context.Context, asset string) (float64, error)
	Place(ctx context.Context, haveAsset string, haveAmount float64, wantAsset string, wantAmount float64) (string, error)
	Cancel(ctx context.Context, orderID string) error
}

// PriceFeed 参考价来源。ok=false 表示价格不可用。
type PriceFeed interface {
	GetPrice() (float64, bool)
}

// BandSource 每个 tick 调用一次，返回最新的原始带配置。
// 核心自己做校验，不依赖来源缓存任何有效性判断。
type BandSource interface {
	GetBands() (config.Bands, error)
}

// PlaceIntent 一笔补单意图。
type PlaceIntent struct {
	HaveAsset  string
	HaveAmount float64
	WantAsset  string
	WantAmount float64
}

// Reconciler 无状态的对账器：除了每次从外部读到的订单簿和余额，
// tick 之间不保留任何东西，崩溃或漏 tick 只会延迟收敛。
type Reconciler struct {
	Venue       Venue
	Feed        PriceFeed
	Bands       BandSource
	Pair        order.Pair
	RoundPlaces int
	DryRun      bool
	Log         *zap.Logger
	Metrics     *metrics.Collector
}

// Synchronize 执行一个完整的对账 tick。调用方保证不并发重入。
func (r *Reconciler) Synchronize(ctx context.Context) error {
	buyBands, sellBands := r.bandSets()
	r.Metrics.SetActiveBands(len(buyBands), len(sellBands))

	price, ok := r.Feed.GetPrice()
	if !ok || price <= 0 {
		r.log().Warn("no price feed available, cancelling all orders")
		return r.CancelAll(ctx)
	}
	r.Metrics.SetRefPrice(price)

	orders, err := r.Venue.GetOwnOrders(ctx)
	if err != nil {
		return err
	}
	r.Metrics.SetOpenOrders(len(orders))

	buyOrders := order.BuyOrders(orders, r.Pair)
	sellOrders := order.SellOrders(orders, r.Pair)

	cancels := excessiveOrders(buyBands, buyOrders, price)
	cancels = append(cancels, excessiveOrders(sellBands, sellOrders, price)...)
	cancels = append(cancels, outsideOrders(buyOrders, buyBands, price)...)
	cancels = append(cancels, outsideOrders(sellOrders, sellBands, price)...)
	r.cancelBatch(ctx, cancels)

	// 补单必须基于撤单后的订单状态重新观察
	orders, err = r.Venue.GetOwnOrders(ctx)
	if err != nil {
		return err
	}
	intents := r.topUpIntents(ctx, buyBands, sellBands, orders, price)
	r.placeBatch(ctx, intents)
	r.Metrics.TickDone()
	return nil
}

// CancelAll 撤掉全部自有订单，用于价格缺失、关停和仅撤单模式。
func (r *Reconciler) CancelAll(ctx context.Context) error {
	orders, err := r.Venue.GetOwnOrders(ctx)
	if err != nil {
		return err
	}
	r.cancelBatch(ctx, orders)
	r.Metrics.TickDone()
	return nil
}

// bandSets 每个 tick 重新构建并校验带集合。任一侧无效则两侧都清空，
// 对账退化为仅撤单，等待下一次成功的配置加载恢复。
func (r *Reconciler) bandSets() ([]band.Band, []band.Band) {
	raw, err := r.Bands.GetBands()
	if err != nil {
		r.log().Warn("band config unavailable, entering cancel-only mode", zap.Error(err))
		r.Metrics.SetConfigValid(false)
		return nil, nil
	}
	buy, buyErr := band.NewSet(band.Buy, raw.BuyBands)
	sell, sellErr := band.NewSet(band.Sell, raw.SellBands)
	if buyErr != nil || sellErr != nil {
		if buyErr != nil {
			r.log().Warn("invalid buy bands, entering cancel-only mode", zap.Error(buyErr))
		}
		if sellErr != nil {
			r.log().Warn("invalid sell bands, entering cancel-only mode", zap.Error(sellErr))
		}
		r.Metrics.SetConfigValid(false)
		return nil, nil
	}
	r.Metrics.SetConfigValid(true)
	return buy, sell
}

// excessiveOrders 阶段一：总量超过带上限的带，整带订单标记撤销。
func excessiveOrders(bands []band.Band, sideOrders []order.Order, ref float64) []order.Order {
	var res []order.Order
	for _, b := range bands {
		res = append(res, b.Excessive(sideOrders, ref)...)
	}
	return res
}

// outsideOrders 阶段二：不落在任何同侧带内的订单标记撤销。
func outsideOrders(sideOrders []order.Order, bands []band.Band, ref float64) []order.Order {
	var res []order.Order
	for _, o := range sideOrders {
		inside := false
		for _, b := range bands {
			if b.Includes(o, ref) {
				inside = true
				break
			}
		}
		if !inside {
			res = append(res, o)
		}
	}
	return res
}

// topUpIntents 阶段三：逐带补足到目标量。两侧使用各自独立的余额池。
func (r *Reconciler) topUpIntents(ctx context.Context, buyBands, sellBands []band.Band, orders []order.Order, ref float64) []PlaceIntent {
	var intents []PlaceIntent
	if len(buyBands) > 0 {
		balance, err := r.Venue.GetBalance(ctx, r.Pair.Quote)
		if err != nil {
			r.log().Warn("balance query failed, skipping buy top-up",
				zap.String("asset", r.Pair.Quote), zap.Error(err))
		} else {
			r.Metrics.SetFreeBalance(r.Pair.Quote, balance)
			intents = append(intents, topUpSide(buyBands, order.BuyOrders(orders, r.Pair), ref, balance, r.RoundPlaces, r.Pair)...)
		}
	}
	if len(sellBands) > 0 {
		balance, err := r.Venue.GetBalance(ctx, r.Pair.Base)
		if err != nil {
			r.log().Warn("balance query failed, skipping sell top-up",
				zap.String("asset", r.Pair.Base), zap.Error(err))
		} else {
			r.Metrics.SetFreeBalance(r.Pair.Base, balance)
			intents = append(intents, topUpSide(sellBands, order.SellOrders(orders, r.Pair), ref, balance, r.RoundPlaces, r.Pair)...)
		}
	}
	return intents
}

// topUpSide 按声明顺序遍历单侧带，余额作为显式累加值在带之间递减传递，
// 保证同一笔余额不会被两个带重复占用。
func topUpSide(bands []band.Band, sideOrders []order.Order, ref, balance float64, roundPlaces int, pair order.Pair) []PlaceIntent {
	var intents []PlaceIntent
	for _, b := range bands {
		total := order.TotalAmount(b.Members(sideOrders, ref))
		if total >= b.MinAmount {
			continue
		}
		have := math.Min(b.AvgAmount-total, balance)
		if have < b.DustCutoff || have <= 0 {
			continue
		}
		price := roundTo(b.AvgPrice(ref), roundPlaces)
		if price <= 0 {
			continue
		}
		var want float64
		var haveAsset, wantAsset string
		if b.Side == band.Buy {
			haveAsset, wantAsset = pair.Quote, pair.Base
			want = have / price
		} else {
			haveAsset, wantAsset = pair.Base, pair.Quote
			want = have * price
		}
		if want <= 0 {
			continue
		}
		balance -= have
		intents = append(intents, PlaceIntent{
			HaveAsset:  haveAsset,
			HaveAmount: have,
			WantAsset:  wantAsset,
			WantAmount: want,
		})
	}
	return intents
}

// cancelBatch 并发提交撤单并等待整批结束。单笔失败只记录，不影响其他。
func (r *Reconciler) cancelBatch(ctx context.Context, orders []order.Order) {
	var wg sync.WaitGroup
	for _, o := range orders {
		wg.Add(1)
		go func(o order.Order) {
			defer wg.Done()
			if r.DryRun {
				r.log().Info("order_cancel_dry_run", zap.String("orderId", o.ID))
				return
			}
			if err := r.Venue.Cancel(ctx, o.ID); err != nil {
				r.Metrics.SubmitError("cancel")
				r.log().Warn("order cancel failed", zap.String("orderId", o.ID), zap.Error(err))
				return
			}
			r.Metrics.CancelSubmitted()
			r.log().Info("order_cancel", zap.String("orderId", o.ID),
				zap.String("sellAsset", o.SellAsset), zap.Float64("sellAmount", o.SellAmount))
		}(o)
	}
	wg.Wait()
}

// placeBatch 并发提交补单并等待整批结束。
func (r *Reconciler) placeBatch(ctx context.Context, intents []PlaceIntent) {
	var wg sync.WaitGroup
	for _, in := range intents {
		wg.Add(1)
		go func(in PlaceIntent) {
			defer wg.Done()
			if r.DryRun {
				r.log().Info("order_place_dry_run",
					zap.String("haveAsset", in.HaveAsset), zap.Float64("haveAmount", in.HaveAmount),
					zap.String("wantAsset", in.WantAsset), zap.Float64("wantAmount", in.WantAmount))
				return
			}
			id, err := r.Venue.Place(ctx, in.HaveAsset, in.HaveAmount, in.WantAsset, in.WantAmount)
			if err != nil {
				r.Metrics.SubmitError("place")
				r.log().Warn("order place failed",
					zap.String("haveAsset", in.HaveAsset), zap.Float64("haveAmount", in.HaveAmount),
					zap.Error(err))
				return
			}
			r.Metrics.PlaceSubmitted()
			r.log().Info("order_place", zap.String("orderId", id),
				zap.String("haveAsset", in.HaveAsset), zap.Float64("haveAmount", in.HaveAmount),
				zap.String("wantAsset", in.WantAsset), zap.Float64("wantAmount", in.WantAmount))
		}(in)
	}
	wg.Wait()
}

func (r *Reconciler) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow10(places)
	return math.Round(v*pow) / pow
}
