package oracle

import (
	"context"
	"strconv"
	"time"

	"coinsentry/internal/application/port"
	"coinsentry/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// QuoteCache memoizes spot prices in Redis so the three reconciliation
// passes in one cycle don't re-query the upstream for the same pair.
// Directory and ranking calls pass through untouched. Cache failures fall
// back to the wrapped oracle; a cache must never make a quote worse than
// no cache.
type QuoteCache struct {
	next   port.Oracle
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewQuoteCache(next port.Oracle, rdb *redis.Client, prefix string, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &QuoteCache{next: next, rdb: rdb, ttl: ttl, prefix: prefix}
}

func (q *QuoteCache) key(currency, id string) string {
	return q.prefix + ":quote:" + currency + ":" + id
}

func (q *QuoteCache) SpotPrices(ctx context.Context, ids []string, currency string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	prices := make(map[string]float64, len(ids))
	missing := make([]string, 0, len(ids))

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = q.key(currency, id)
	}
	cached, err := q.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return q.next.SpotPrices(ctx, ids, currency)
	}

	for i, raw := range cached {
		s, ok := raw.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		price, err := strconv.ParseFloat(s, 64)
		if err != nil {
			missing = append(missing, ids[i])
			continue
		}
		prices[ids[i]] = price
	}

	if len(missing) == 0 {
		return prices, nil
	}

	fresh, err := q.next.SpotPrices(ctx, missing, currency)
	if err != nil {
		// serve whatever the cache had; an empty map reads as "no data"
		if len(prices) > 0 {
			return prices, nil
		}
		return nil, err
	}

	pipe := q.rdb.Pipeline()
	for id, price := range fresh {
		prices[id] = price
		pipe.Set(ctx, q.key(currency, id), strconv.FormatFloat(price, 'f', -1, 64), q.ttl)
	}
	_, _ = pipe.Exec(ctx)

	return prices, nil
}

func (q *QuoteCache) RankByMarketCap(ctx context.Context, ids []string) ([]string, error) {
	return q.next.RankByMarketCap(ctx, ids)
}

func (q *QuoteCache) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	return q.next.ListInstruments(ctx)
}

var _ port.Oracle = (*QuoteCache)(nil)
