package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"coinsentry/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// DefaultMaxAge is the staleness window after which a refresh actually
// hits the upstream directory again.
const DefaultMaxAge = 24 * time.Hour

// curated maps well-known symbols to the instrument that should always win
// a symbol collision. Applied after indexing the directory, so it overrides
// whatever else shares the symbol.
var curated = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"doge":  "dogecoin",
	"xrp":   "ripple",
	"ada":   "cardano",
	"bnb":   "binancecoin",
	"matic": "matic-network",
	"sol":   "solana",
}

// Directory lists the known instruments. The oracle gateway satisfies this.
type Directory interface {
	ListInstruments(ctx context.Context) ([]model.Instrument, error)
}

// snapshot is an immutable view of the indexes. Readers grab the current
// snapshot once and never observe a half-built index.
type snapshot struct {
	bySymbol map[string][]string
	byName   map[string]string
}

// Catalog maps user input to canonical instrument ids. Refresh swaps the
// snapshot atomically; a failed refresh keeps the previous one.
type Catalog struct {
	dir    Directory
	maxAge time.Duration

	snap atomic.Pointer[snapshot]

	mu          sync.Mutex // serializes refreshes
	lastRefresh time.Time
}

func New(dir Directory, maxAge time.Duration) *Catalog {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	c := &Catalog{dir: dir, maxAge: maxAge}
	c.snap.Store(build(nil))
	return c
}

// Refresh rebuilds the indexes from the directory. A refresh completed
// within the staleness window is skipped unless force is set.
func (c *Catalog) Refresh(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && !c.lastRefresh.IsZero() && time.Since(c.lastRefresh) < c.maxAge {
		return nil
	}

	instruments, err := c.dir.ListInstruments(ctx)
	if err != nil {
		return fmt.Errorf("catalog refresh: %w", err)
	}

	c.snap.Store(build(instruments))
	c.lastRefresh = time.Now()
	log.Info().Int("instruments", len(instruments)).Msg("instrument catalog refreshed")
	return nil
}

func build(instruments []model.Instrument) *snapshot {
	s := &snapshot{
		bySymbol: make(map[string][]string, len(instruments)),
		byName:   make(map[string]string, len(instruments)),
	}
	for _, in := range instruments {
		sym := strings.ToLower(in.Symbol)
		name := strings.ToLower(in.Name)
		// name collisions: last writer wins, matching upstream order
		s.byName[name] = in.ID
		s.bySymbol[sym] = append(s.bySymbol[sym], in.ID)
	}
	// curated overrides win their symbol outright
	for sym, id := range curated {
		s.bySymbol[sym] = []string{id}
		s.byName[strings.ToLower(id)] = id
	}
	return s
}

// Candidates returns every instrument id sharing the symbol, in directory
// insertion order.
func (c *Catalog) Candidates(symbol string) []string {
	return c.snap.Load().bySymbol[strings.ToLower(symbol)]
}
