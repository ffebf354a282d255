package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"training_backend/internal/config"
	"training_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg *config.Config)

const debounce = time.Second

// WatchConfig 监听配置文件变化，防抖后重新加载并回调。
// 监听的是所在目录，编辑器以重命名方式保存文件时也能收到事件。
// ctx 取消后返回。
func WatchConfig(ctx context.Context, configFile string, reloader ConfigReloader) error {
	return watch(ctx, configFile, debounce, reloader)
}

func watch(ctx context.Context, configFile string, delay time.Duration, reloader ConfigReloader) error {
	absPath, err := filepath.Abs(configFile)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	var mu sync.Mutex
	var timer *time.Timer
	reload := func() {
		newCfg, err := config.LoadConfig(dir)
		if err != nil {
			logger.Log.Error("Failed to reload config", zap.Error(err))
			return
		}
		logger.Log.Info("Config reloaded", zap.String("file", absPath))
		reloader(newCfg)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// 防抖处理
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
