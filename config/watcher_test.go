package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o600))

	loader := NewLoader().WithYAMLFile(path)
	w, err := NewWatcher(loader, path, nil)
	require.NoError(t, err)
	defer w.Close()

	var got atomic.Value
	w.OnReload(func(cfg *Config) {
		got.Store(cfg.Server.Address)
	})
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":7070\"\n"), 0o600))

	require.Eventually(t, func() bool {
		addr, _ := got.Load().(string)
		return addr == ":7070"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcherKeepsPreviousConfigOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o600))

	loader := NewLoader().WithYAMLFile(path)
	w, err := NewWatcher(loader, path, nil)
	require.NoError(t, err)
	defer w.Close()

	var calls atomic.Int32
	w.OnReload(func(*Config) { calls.Add(1) })
	w.Start()

	// malformed yaml must not reach the callbacks
	require.NoError(t, os.WriteFile(path, []byte("server: [oops\n"), 0o600))
	time.Sleep(time.Second)
	assert.Zero(t, calls.Load())
}
