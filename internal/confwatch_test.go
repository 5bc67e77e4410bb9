package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path string, logLevel int) {
	t.Helper()
	// slog levels are numeric in YAML: -4 debug, 0 info, 4 warn, 8 error.
	data := []byte("app:\n  log_level: " + strconv.Itoa(logLevel) + "\n  http:\n    port: 8080\n" +
		"sqlite:\n  path: ./test.db\nblobs:\n  path: ./blobs\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatchConfig_AppliesLogLevelChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, 0)

	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchConfig(ctx, path, level, logger)
	}()

	// Give the watcher a moment to register before the write.
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, int(slog.LevelDebug))

	deadline := time.After(3 * time.Second)
	for level.Level() != slog.LevelDebug {
		select {
		case <-deadline:
			t.Fatalf("level = %v, want debug", level.Level())
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatchConfig_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, 0)

	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchConfig(ctx, path, level, logger)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("app:\n  log_level: -4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(400 * time.Millisecond)
	if level.Level() != slog.LevelInfo {
		t.Errorf("unrelated file changed the level to %v", level.Level())
	}
}
