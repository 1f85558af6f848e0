// Package metrics provides Prometheus metrics for the band keeper
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 聚合 keeper 运行指标。nil Collector 上的方法都是空操作，
// 方便测试和工具省略指标接线。
type Collector struct {
	ticks        prometheus.Counter
	cancels      prometheus.Counter
	places       prometheus.Counter
	submitErrors *prometheus.CounterVec
	refPrice     prometheus.Gauge
	openOrders   prometheus.Gauge
	activeBands  *prometheus.GaugeVec
	freeBalance  *prometheus.GaugeVec
	configValid  prometheus.Gauge
}

// NewCollector 注册并返回指标集合。
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "keeper_ticks_total",
			Help: "完成的对账周期数",
		}),
		cancels: factory.NewCounter(prometheus.CounterOpts{
			Name: "keeper_cancels_total",
			Help: "提交的撤单数量",
		}),
		places: factory.NewCounter(prometheus.CounterOpts{
			Name: "keeper_places_total",
			Help: "提交的补单数量",
		}),
		submitErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keeper_submit_errors_total",
			Help: "交易所提交失败数量",
		}, []string{"action"}),
		refPrice: factory.NewGauge(prometheus.GaugeOpts{
			Name: "keeper_reference_price",
			Help: "当前使用的参考价",
		}),
		openOrders: factory.NewGauge(prometheus.GaugeOpts{
			Name: "keeper_open_orders",
			Help: "自有挂单数量",
		}),
		activeBands: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "keeper_active_bands",
			Help: "生效中的带数量",
		}, []string{"side"}),
		freeBalance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "keeper_free_balance",
			Help: "补单前的可用余额",
		}, []string{"asset"}),
		configValid: factory.NewGauge(prometheus.GaugeOpts{
			Name: "keeper_config_valid",
			Help: "带配置是否有效(1=有效,0=失效进入仅撤单模式)",
		}),
	}
}

func (c *Collector) TickDone() {
	if c == nil {
		return
	}
	c.ticks.Inc()
}

func (c *Collector) CancelSubmitted() {
	if c == nil {
		return
	}
	c.cancels.Inc()
}

func (c *Collector) PlaceSubmitted() {
	if c == nil {
		return
	}
	c.places.Inc()
}

func (c *Collector) SubmitError(action string) {
	if c == nil {
		return
	}
	c.submitErrors.WithLabelValues(action).Inc()
}

func (c *Collector) SetRefPrice(p float64) {
	if c == nil {
		return
	}
	c.refPrice.Set(p)
}

func (c *Collector) SetOpenOrders(n int) {
	if c == nil {
		return
	}
	c.openOrders.Set(float64(n))
}

func (c *Collector) SetActiveBands(buy, sell int) {
	if c == nil {
		return
	}
	c.activeBands.WithLabelValues("buy").Set(float64(buy))
	c.activeBands.WithLabelValues("sell").Set(float64(sell))
}

func (c *Collector) SetFreeBalance(asset string, v float64) {
	if c == nil {
		return
	}
	c.freeBalance.WithLabelValues(asset).Set(v)
}

func (c *Collector) SetConfigValid(valid bool) {
	if c == nil {
		return
	}
	if valid {
		c.configValid.Set(1)
	} else {
		c.configValid.Set(0)
	}
}

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
