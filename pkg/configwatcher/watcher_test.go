package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"training_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsScoringOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	write := func(threshold string) {
		body := "database:\n  driver: sqlite\nscoring:\n  default_threshold: " + threshold + "\n"
		require.NoError(t, os.WriteFile(file, []byte(body), 0o644))
	}
	write("80")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan float64, 4)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, file, 20*time.Millisecond, func(cfg *config.Config) {
			got <- cfg.Scoring.DefaultThreshold
		})
	}()

	// 等待 watcher 就绪后再写入
	time.Sleep(100 * time.Millisecond)
	write("65")

	select {
	case v := <-got:
		assert.Equal(t, 65.0, v)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload not observed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
