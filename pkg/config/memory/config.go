package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/code-payments/payflow-server/pkg/config"
)

// ErrInduced is returned by Get while Fail is in effect
var ErrInduced = errors.New("memory config: induced failure")

// Config holds a single value in memory. It backs test overrides for the
// typed config wrappers.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	failing  bool
	shutdown bool
}

// NewConfig returns a config holding value. A nil value means unset.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.shutdown {
		return nil, config.ErrShutdown
	}
	if c.failing {
		return nil, ErrInduced
	}
	if c.value == nil {
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shutdown = true
}

// Set replaces the stored value. Set(nil) unsets it.
func (c *Config) Set(value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = value
}

// Fail toggles whether Get returns ErrInduced
func (c *Config) Fail(failing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failing = failing
}
