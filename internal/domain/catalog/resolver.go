package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNotFound means the input matched no known instrument.
var ErrNotFound = errors.New("instrument not found")

// Ranker orders instrument ids by market capitalization, highest first.
// Only consulted when a symbol maps to several instruments.
type Ranker interface {
	RankByMarketCap(ctx context.Context, ids []string) ([]string, error)
}

// Resolver maps free-text user input to a canonical instrument id against
// the catalog's current snapshot. It never mutates catalog state and makes
// at most one network call (the market-cap tie-break).
type Resolver struct {
	cat    *Catalog
	ranker Ranker
}

func NewResolver(cat *Catalog, ranker Ranker) *Resolver {
	return &Resolver{cat: cat, ranker: ranker}
}

// Resolve tries, in order: the curated override set, the display-name
// index, then the symbol index. Colliding symbols are disambiguated by
// market cap; if ranking fails the first candidate in directory order is
// used. The latter is a deterministic fallback, not necessarily the coin
// the user meant.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	if key == "" {
		return "", ErrNotFound
	}

	if id, ok := curated[key]; ok {
		return id, nil
	}

	snap := r.cat.snap.Load()

	if id, ok := snap.byName[key]; ok {
		return id, nil
	}

	candidates := snap.bySymbol[key]
	switch len(candidates) {
	case 0:
		return "", ErrNotFound
	case 1:
		return candidates[0], nil
	}

	ranked, err := r.ranker.RankByMarketCap(ctx, candidates)
	if err != nil || len(ranked) == 0 {
		log.Warn().Err(err).Str("symbol", key).Strs("candidates", candidates).
			Msg("market-cap tie-break unavailable, using first candidate")
		return candidates[0], nil
	}
	return ranked[0], nil
}
