package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"market-keeper-go/config"
	"market-keeper-go/engine"
	"market-keeper-go/gateway"
	"market-keeper-go/infrastructure/logger"
	"market-keeper-go/metrics"
	"market-keeper-go/order"
	"market-keeper-go/pricefeed"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	bandsPath := flag.String("bands", "", "带配置文件路径（默认取 keeper.bandsFile）")
	dryRun := flag.Bool("dryRun", false, "仅日志输出，不真正下单/撤单")
	roundPlaces := flag.Int("roundPlaces", -1, "补单价格小数位（默认取配置）")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *bandsPath != "" {
		cfg.Keeper.BandsFile = *bandsPath
	}
	if *roundPlaces >= 0 {
		cfg.Keeper.RoundPlaces = *roundPlaces
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	metrics.StartMetricsServer(cfg.Keeper.MetricsAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bandSource, err := config.NewBandSource(cfg.Keeper.BandsFile, zlog.Logger)
	if err != nil {
		log.Fatalf("加载带配置失败: %v", err)
	}
	go bandSource.Start(ctx)

	staleAfter := time.Duration(cfg.Feed.StaleAfterMs) * time.Millisecond
	feed := pricefeed.NewWSFeed(cfg.Feed.URL, staleAfter, zlog.Logger)
	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Error("price feed exited", zap.Error(err))
			cancel()
		}
	}()

	venue := &gateway.VenueClient{
		BaseURL:    cfg.Venue.BaseURL,
		APIKey:     cfg.Venue.APIKey,
		Secret:     cfg.Venue.APISecret,
		Account:    cfg.Venue.Account,
		HTTPClient: gateway.NewDefaultHTTPClient(),
		Limiter:    gateway.NewTokenBucketLimiter(cfg.Venue.RateLimit, cfg.Venue.RateBurst),
	}

	reconciler := &engine.Reconciler{
		Venue:       venue,
		Feed:        feed,
		Bands:       bandSource,
		Pair:        order.Pair{Base: cfg.Pair.Base, Quote: cfg.Pair.Quote},
		RoundPlaces: cfg.Keeper.RoundPlaces,
		DryRun:      *dryRun,
		Log:         zlog.Logger,
		Metrics:     collector,
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	go watchdogLoop(ctx)

	tickInterval := time.Duration(cfg.Keeper.TickIntervalMs) * time.Millisecond
	if tickInterval <= 0 {
		tickInterval = 5 * time.Second
	}

	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// 顺序执行，tick 不重入；上一轮没跑完就等下一个周期
				if err := reconciler.Synchronize(ctx); err != nil {
					zlog.Warn("synchronize failed", zap.Error(err))
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	cancel()

	// 退出前撤掉所有自有挂单，不留下无人看管的报价
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := reconciler.CancelAll(shutdownCtx); err != nil {
		zlog.Warn("shutdown cancel-all failed", zap.Error(err))
	}
	zlog.Info("keeper exit")
}

// watchdogLoop 按 systemd 要求的节奏发送 watchdog 心跳。
func watchdogLoop(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
