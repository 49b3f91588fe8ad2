// Package cache provides in-memory caching for market data.
package cache

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/quant-stock/internal/config"
	"github.com/yourusername/quant-stock/internal/metrics"
	"github.com/yourusername/quant-stock/internal/models"
)

// Entry kinds used for cache keys and metrics labels.
const (
	KindBars      = "bars"
	KindStockList = "stock_list"
	KindIndicator = "indicator"
)

const stockListKey = "stock_list"

// MarketCache caches bar series, the stock directory and computed
// indicator payloads with per-kind TTLs.
type MarketCache struct {
	cache        *gocache.Cache
	barTTL       time.Duration
	stockListTTL time.Duration
	indicatorTTL time.Duration

	mu        sync.Mutex
	hitCount  map[string]uint64
	missCount map[string]uint64
}

// New creates a market cache from the cache configuration section.
// A nil configuration yields sensible defaults.
func New(cfg *config.CacheConfig) *MarketCache {
	barTTL := 30 * time.Minute
	stockListTTL := 24 * time.Hour
	indicatorTTL := 30 * time.Minute
	cleanup := 10 * time.Minute

	if cfg != nil {
		if cfg.BarTTLSeconds > 0 {
			barTTL = time.Duration(cfg.BarTTLSeconds) * time.Second
		}
		if cfg.StockListTTLSeconds > 0 {
			stockListTTL = time.Duration(cfg.StockListTTLSeconds) * time.Second
		}
		if cfg.IndicatorTTLSeconds > 0 {
			indicatorTTL = time.Duration(cfg.IndicatorTTLSeconds) * time.Second
		}
		if cfg.CleanupIntervalSeconds > 0 {
			cleanup = time.Duration(cfg.CleanupIntervalSeconds) * time.Second
		}
	}

	return &MarketCache{
		cache:        gocache.New(barTTL, cleanup),
		barTTL:       barTTL,
		stockListTTL: stockListTTL,
		indicatorTTL: indicatorTTL,
		hitCount:     make(map[string]uint64),
		missCount:    make(map[string]uint64),
	}
}

func barKey(code string, period models.Period) string {
	return fmt.Sprintf("%s:%s:%s", KindBars, code, period)
}

func indicatorKey(code string, period models.Period, spec string) string {
	return fmt.Sprintf("%s:%s:%s:%s", KindIndicator, code, period, spec)
}

// GetBars retrieves a cached bar series
func (mc *MarketCache) GetBars(code string, period models.Period) (models.BarSeries, bool) {
	value, found := mc.cache.Get(barKey(code, period))
	mc.record(KindBars, found)
	if !found {
		return nil, false
	}
	bars, ok := value.(models.BarSeries)
	return bars, ok
}

// SetBars stores a bar series
func (mc *MarketCache) SetBars(code string, period models.Period, bars models.BarSeries) {
	mc.cache.Set(barKey(code, period), bars, mc.barTTL)
}

// InvalidateBars removes all cached series for a stock across periods
func (mc *MarketCache) InvalidateBars(code string) {
	for _, period := range []models.Period{models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly} {
		mc.cache.Delete(barKey(code, period))
	}
}

// GetStockList retrieves the cached stock directory
func (mc *MarketCache) GetStockList() ([]*models.Stock, bool) {
	value, found := mc.cache.Get(stockListKey)
	mc.record(KindStockList, found)
	if !found {
		return nil, false
	}
	stocks, ok := value.([]*models.Stock)
	return stocks, ok
}

// SetStockList stores the stock directory
func (mc *MarketCache) SetStockList(stocks []*models.Stock) {
	mc.cache.Set(stockListKey, stocks, mc.stockListTTL)
}

// GetIndicator retrieves a cached indicator column. The spec string must
// uniquely describe the computation, e.g. "MA:5".
func (mc *MarketCache) GetIndicator(code string, period models.Period, spec string) ([]float64, bool) {
	value, found := mc.cache.Get(indicatorKey(code, period, spec))
	mc.record(KindIndicator, found)
	if !found {
		return nil, false
	}
	values, ok := value.([]float64)
	return values, ok
}

// SetIndicator stores a computed indicator column
func (mc *MarketCache) SetIndicator(code string, period models.Period, spec string, values []float64) {
	mc.cache.Set(indicatorKey(code, period, spec), values, mc.indicatorTTL)
}

// Clear flushes the entire cache and resets counters
func (mc *MarketCache) Clear() {
	mc.cache.Flush()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.hitCount = make(map[string]uint64)
	mc.missCount = make(map[string]uint64)
}

// ItemCount returns the number of cached items
func (mc *MarketCache) ItemCount() int {
	return mc.cache.ItemCount()
}

// Stats returns hit and miss counts for an entry kind
func (mc *MarketCache) Stats(kind string) (hits, misses uint64, ratio float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	hits = mc.hitCount[kind]
	misses = mc.missCount[kind]
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (mc *MarketCache) record(kind string, hit bool) {
	mc.mu.Lock()
	if hit {
		mc.hitCount[kind]++
		metrics.RecordCacheHit(kind)
	} else {
		mc.missCount[kind]++
		metrics.RecordCacheMiss(kind)
	}
	hits := mc.hitCount[kind]
	total := hits + mc.missCount[kind]
	mc.mu.Unlock()

	if total > 0 {
		metrics.UpdateCacheHitRatio(kind, float64(hits)/float64(total))
	}
}
