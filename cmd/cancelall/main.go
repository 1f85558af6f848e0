package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"market-keeper-go/config"
	"market-keeper-go/gateway"
)

// 紧急工具：撤掉账户在交易所上的全部挂单。
func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	venue := &gateway.VenueClient{
		BaseURL:    cfg.Venue.BaseURL,
		APIKey:     cfg.Venue.APIKey,
		Secret:     cfg.Venue.APISecret,
		Account:    cfg.Venue.Account,
		HTTPClient: gateway.NewDefaultHTTPClient(),
		Limiter:    gateway.NewTokenBucketLimiter(cfg.Venue.RateLimit, cfg.Venue.RateBurst),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("🔸 查询自有挂单...")
	orders, err := venue.GetOwnOrders(ctx)
	if err != nil {
		log.Fatalf("查询挂单失败: %v", err)
	}
	if len(orders) == 0 {
		fmt.Println("✅ 没有挂单，无需处理")
		return
	}

	fmt.Printf("🔸 撤销 %d 笔挂单...\n", len(orders))
	failed := 0
	for _, o := range orders {
		if err := venue.Cancel(ctx, o.ID); err != nil {
			failed++
			log.Printf("撤单失败 %s: %v", o.ID, err)
		}
	}
	if failed > 0 {
		log.Fatalf("共 %d 笔撤单失败", failed)
	}
	fmt.Println("✅ 所有挂单已撤销")
}
