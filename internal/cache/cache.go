// Package cache stores AI answers that are safe to reuse, such as graph
// parameters and generated quizzes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mathtutor/internal/config"
	"github.com/abhisek/mathtutor/internal/logger"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New returns a redis cache when cfg names an address and the server
// answers, and an in-memory cache otherwise.
func New(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) Cache {
	if log == nil {
		log = logger.Nop()
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return NewMemory()
	}
	r, err := NewRedis(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", "addr", cfg.Addr, "error", err)
		return NewMemory()
	}
	log.Info("using redis cache", "addr", cfg.Addr)
	return r
}

// Key builds a cache key from a namespace and the request parts.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "mathtutor:" + namespace + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

// GetJSON decodes a cached JSON value into v.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v as JSON.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}
