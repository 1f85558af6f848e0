package pricefeed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSFeed 通过 WebSocket 订阅参考价并缓存最新值。
// 超过 StaleAfter 未收到更新即报告价格不可用，宁可停止报价也不用旧价。
type WSFeed struct {
	URL        string
	StaleAfter time.Duration
	Dialer     *websocket.Dialer
	Log        *zap.Logger

	mu     sync.RWMutex
	last   float64
	lastAt time.Time
}

type tickMsg struct {
	Price float64 `json:"price"`
}

// NewWSFeed 创建未连接的 feed；调用方负责在 goroutine 中 Run。
func NewWSFeed(url string, staleAfter time.Duration, log *zap.Logger) *WSFeed {
	if staleAfter <= 0 {
		staleAfter = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WSFeed{
		URL:        url,
		StaleAfter: staleAfter,
		Dialer:     websocket.DefaultDialer,
		Log:        log,
	}
}

// GetPrice 返回最近收到的价格；过期或尚未收到时 ok=false。
func (f *WSFeed) GetPrice() (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.last <= 0 || time.Since(f.lastAt) > f.StaleAfter {
		return 0, false
	}
	return f.last, true
}

// Run 连接并持续读取价格消息，断线后退避重连，直到 ctx 结束。
func (f *WSFeed) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.readLoop(ctx); err != nil {
			f.Log.Warn("price feed disconnected", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (f *WSFeed) readLoop(ctx context.Context) error {
	conn, _, err := f.Dialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	f.Log.Info("price feed connected", zap.String("url", f.URL))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(f.StaleAfter))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var tick tickMsg
		if err := json.Unmarshal(msg, &tick); err != nil {
			f.Log.Warn("bad price message", zap.ByteString("msg", msg), zap.Error(err))
			continue
		}
		if tick.Price <= 0 {
			continue
		}
		f.mu.Lock()
		f.last = tick.Price
		f.lastAt = time.Now()
		f.mu.Unlock()
	}
}

// setPrice 测试钩子：直接注入一个价格观测值。
func (f *WSFeed) setPrice(p float64, at time.Time) {
	f.mu.Lock()
	f.last = p
	f.lastAt = at
	f.mu.Unlock()
}
