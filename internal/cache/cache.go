// Package cache holds last-fetched backend responses keyed by their full
// parameter set, so an edit can patch the cached copy in place.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_cache_hits_total",
		Help: "Cache hits by key family",
	}, []string{"family"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_cache_misses_total",
		Help: "Cache misses by key family",
	}, []string{"family"})
)

// Store is a byte-oriented TTL cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Update applies fn to the current value atomically. fn returns the new
	// value and whether to write it. A missing key is not passed to fn.
	Update(ctx context.Context, key string, ttl time.Duration, fn func([]byte) ([]byte, bool, error)) (bool, error)
	// Keys lists live keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

// BattlePageKey identifies one page of a trainer's battle list.
func BattlePageKey(trainerID string, season, page, size int) string {
	return strings.Join([]string{"battles", trainerID, strconv.Itoa(season), strconv.Itoa(page), strconv.Itoa(size)}, ":")
}

// BattlePagePrefix matches every cached page of a trainer's battle list.
func BattlePagePrefix(trainerID string) string {
	return "battles:" + trainerID + ":"
}

// BattleCountKey identifies a trainer's battle count for a season.
func BattleCountKey(trainerID string, season int) string {
	return "battles_count:" + trainerID + ":" + strconv.Itoa(season)
}

// AnalyticsKey identifies a trainer's aggregate for a season.
func AnalyticsKey(trainerID string, season int) string {
	return "analytics:" + trainerID + ":" + strconv.Itoa(season)
}

const SeasonsKey = "seasons"

func family(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

// GetJSON decodes a cached value. Undecodable entries count as misses.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return out, false, err
	}
	if !ok {
		cacheMisses.WithLabelValues(family(key)).Inc()
		return out, false, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		cacheMisses.WithLabelValues(family(key)).Inc()
		return out, false, nil
	}
	cacheHits.WithLabelValues(family(key)).Inc()
	return out, true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

// UpdateJSON decodes the cached value, lets fn modify it, and writes it back
// when fn reports a change. It reports whether a write happened.
func UpdateJSON[T any](ctx context.Context, s Store, key string, ttl time.Duration, fn func(*T) bool) (bool, error) {
	return s.Update(ctx, key, ttl, func(raw []byte) ([]byte, bool, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, false, fmt.Errorf("decode cache %s: %w", key, err)
		}
		if !fn(&v) {
			return nil, false, nil
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, false, fmt.Errorf("encode cache %s: %w", key, err)
		}
		return out, true, nil
	})
}
