package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// BandSource 通过 fsnotify 监听带配置文件，对外提供最新的原始配置。
// 只缓存原始内容；核心每个 tick 都会重新校验，不依赖这里的任何语义判断。
type BandSource struct {
	path     string
	watcher  *fsnotify.Watcher
	log      *zap.Logger
	cooldown time.Duration

	mu         sync.RWMutex
	last       Bands
	lastReload time.Time
	pending    bool
}

// NewBandSource loads the file once and sets up the watcher.
func NewBandSource(path string, log *zap.Logger) (*BandSource, error) {
	b, err := LoadBands(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch bands file: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BandSource{
		path:     path,
		watcher:  watcher,
		log:      log,
		cooldown: 500 * time.Millisecond,
		last:     b,
	}, nil
}

// GetBands 返回最近一次成功加载的配置。
func (s *BandSource) GetBands() (Bands, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, nil
}

// Start 监听文件变化直到 ctx 结束。解析失败时保留上一份配置并告警。
func (s *BandSource) Start(ctx context.Context) {
	defer s.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				s.reload()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("bands watcher error", zap.Error(err))
		}
	}
}

func (s *BandSource) reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	// 编辑器保存往往触发连续多个事件。冷却期内不丢事件，
	// 而是安排一次延迟重读，确保最后一次写入一定被读到。
	if wait := s.cooldown - time.Since(s.lastReload); wait > 0 {
		if !s.pending {
			s.pending = true
			time.AfterFunc(wait, func() {
				s.mu.Lock()
				defer s.mu.Unlock()
				s.pending = false
				s.doReload()
			})
		}
		return
	}
	s.doReload()
}

// doReload 重新读取文件并更新缓存，调用方需持有 s.mu。
func (s *BandSource) doReload() {
	b, err := LoadBands(s.path)
	if err != nil {
		s.log.Warn("bands reload failed, keeping previous config",
			zap.String("path", s.path), zap.Error(err))
		return
	}
	s.last = b
	s.lastReload = time.Now()
	s.log.Info("bands config reloaded",
		zap.Int("buyBands", len(b.BuyBands)), zap.Int("sellBands", len(b.SellBands)))
}
