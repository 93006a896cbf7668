// Package cache keeps computed deal results keyed by a fingerprint of the
// variant and input that produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/deal-calculator/internal/config"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/normalize"
	"go.uber.org/zap"
)

// Cache stores results. A miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) (deal.Result, bool)
	Set(ctx context.Context, key string, result deal.Result) error
	Close() error
}

var keyFields = []string{
	deal.FieldPurchasePrice, deal.FieldRenovation, deal.FieldArchitectPlanning, deal.FieldBuildingControl,
	deal.FieldFurniture, deal.FieldSurvey, deal.FieldLegal, deal.FieldInsurance, deal.FieldSourcing,
	deal.FieldLeaseSetup, deal.FieldAskingPrice, deal.FieldRooms, deal.FieldMonthlyRent,
}

// Key fingerprints a variant and input. Inputs that normalize to the same
// amounts share a key, so "£1,000" and 1000 hit the same entry. A field left
// empty is kept distinct from one set to zero.
func Key(variant deal.Variant, in deal.Input) string {
	var b strings.Builder
	b.WriteString(string(variant))
	for _, field := range keyFields {
		value, _ := in.Get(field)
		b.WriteByte('|')
		if !filled(value) {
			b.WriteByte('-')
			continue
		}
		b.WriteString(strconv.FormatFloat(normalize.Amount(value), 'g', -1, 64))
	}
	b.WriteByte('|')
	b.WriteString(in.Category)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func filled(value interface{}) bool {
	if value == nil {
		return false
	}
	if text, ok := value.(string); ok && strings.TrimSpace(text) == "" {
		return false
	}
	return true
}

// Open creates the cache selected by the configuration.
func Open(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTLSeconds * time.Second
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = constants.DefaultCacheCleanupSeconds * time.Second
	}

	switch cfg.Backend {
	case constants.CacheBackendNone:
		return NopCache{}, nil
	case "", constants.CacheBackendMemory:
		return NewMemoryCache(ttl, cleanup), nil
	case constants.CacheBackendRedis:
		c, err := NewRedisCache(ctx, RedisOptions{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      ttl,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

// NopCache never stores anything.
type NopCache struct{}

// Get implements Cache.
func (NopCache) Get(context.Context, string) (deal.Result, bool) {
	return deal.Result{}, false
}

// Set implements Cache.
func (NopCache) Set(context.Context, string, deal.Result) error {
	return nil
}

// Close implements Cache.
func (NopCache) Close() error {
	return nil
}
