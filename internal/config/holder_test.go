package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHolder_ConfigReturnsInitial(t *testing.T) {
	cfg := DefaultConfig()
	h := NewHolder(cfg, "/etc/bkmsync/config.toml")

	assert.Same(t, cfg, h.Config())
	assert.Equal(t, "/etc/bkmsync/config.toml", h.Path())
}

func TestHolder_UpdateReplacesConfig(t *testing.T) {
	h := NewHolder(DefaultConfig(), "/etc/bkmsync/config.toml")

	updated := DefaultConfig()
	updated.Sync.PollInterval = "1m"
	h.Update(updated)

	assert.Same(t, updated, h.Config())
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	h := NewHolder(DefaultConfig(), "/etc/bkmsync/config.toml")

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			_ = h.Config()
		}()

		go func() {
			defer wg.Done()

			h.Update(DefaultConfig())
		}()
	}

	wg.Wait()
}
