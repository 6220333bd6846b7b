package fumble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fumbled/fumble/date"
	"github.com/shopspring/decimal"
)

// Quote is what a live source answers: both prices, the trading day the
// historical price belongs to, and the trading currency when the provider
// knows it (empty otherwise).
type Quote struct {
	Historical decimal.Decimal
	Current    decimal.Decimal
	ActualDate date.Date
	Currency   string
}

// CryptoSource fetches prices for crypto pairs. A (Quote{}, false, nil)
// answer means "I have nothing for this symbol/date", which is a normal
// signal to try the next source, not an error. The source is expected to
// absorb its own transient failures the same way.
type CryptoSource interface {
	Fetch(ctx context.Context, symbol string, on date.Date) (Quote, bool, error)
}

// PrimarySource fetches prices for arbitrary equity/ETF/index symbols. An
// error wrapping ErrRateLimited is the one failure worth retrying.
type PrimarySource interface {
	Fetch(ctx context.Context, symbol string, on date.Date) (Quote, bool, error)
}

// ScrapeSource recovers only a current price, best effort, single attempt.
type ScrapeSource interface {
	Current(ctx context.Context, symbol string) (decimal.Decimal, bool, error)
}

// Entry is the persisted form of a Resolved price, keyed by the symbol and
// the requested date (not the actual trading date).
type Entry struct {
	Resolved
	Requested date.Date `json:"requestedDate"`
	Written   time.Time `json:"writtenAt"`
}

// Store is the shared price cache. Writes are upserts; last writer wins.
type Store interface {
	Get(ctx context.Context, symbol string, on date.Date) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
}

// Resolver runs the price-resolution chain: cache, then live sources in
// order of trustworthiness, then estimates. The chain is an ordered list
// of named strategies; the first one that produces a price wins.
type Resolver struct {
	Crypto    CryptoSource
	Primary   PrimarySource
	Scrape    ScrapeSource
	Store     Store
	Estimator *Estimator

	// AllowSynthetic enables the last-resort fully synthetic price. Off,
	// an exhausted chain surfaces as an ExhaustedError instead.
	AllowSynthetic bool

	// Attempts and Backoff shape the primary source's retry policy:
	// Attempts tries with Backoff, 2*Backoff, 4*Backoff... waits after
	// each rate-limited failure.
	Attempts int
	Backoff  time.Duration

	Log *slog.Logger

	// sleep is the backoff wait, injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewResolver returns a Resolver with the standard retry policy. Any of
// the sources and the store may be left nil; the corresponding steps are
// skipped.
func NewResolver(store Store, crypto CryptoSource, primary PrimarySource, scrape ScrapeSource) *Resolver {
	return &Resolver{
		Crypto:    crypto,
		Primary:   primary,
		Scrape:    scrape,
		Store:     store,
		Estimator: NewEstimator(),
		Attempts:  3,
		Backoff:   time.Second,
		Log:       slog.Default(),
		sleep:     ctxSleep,
	}
}

// strategy is one step of the resolution chain. run returns the price and
// true on success; false with a nil error is a normal "try the next one".
type strategy struct {
	name    string
	persist bool // write the result to the store on success
	run     func(ctx context.Context) (Resolved, bool, error)
}

// Resolve answers a query or fails with an ExhaustedError (or
// ErrInvalidQuery for queries that can never succeed). Cache write
// failures never fail a resolution.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Resolved, error) {
	q = q.normalize()
	if q.Symbol == "" || q.Date.IsZero() {
		return Resolved{}, fmt.Errorf("symbol and date are required: %w", ErrInvalidQuery)
	}

	rateLimited := false
	for _, s := range r.strategies(q, &rateLimited) {
		res, ok, err := s.run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Resolved{}, ctx.Err()
			}
			r.log().Warn("price source failed", "strategy", s.name, "symbol", q.Symbol, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if s.persist {
			r.cache(ctx, q, res)
		}
		r.log().Info("price resolved", "strategy", s.name, "symbol", q.Symbol, "source", res.Source)
		return res, nil
	}

	return Resolved{}, &ExhaustedError{Symbol: q.Symbol, RateLimited: rateLimited}
}

// strategies builds the ordered chain for one query. rateLimited is set
// when the primary source's terminal failure was throttling, so the
// exhausted error can carry it.
func (r *Resolver) strategies(q Query, rateLimited *bool) []strategy {
	class := Class(q.Symbol)
	chain := []strategy{
		{name: "manual", run: func(ctx context.Context) (Resolved, bool, error) {
			return r.manual(q)
		}},
		{name: "cache", run: func(ctx context.Context) (Resolved, bool, error) {
			return r.cached(ctx, q)
		}},
	}
	crypto := strategy{name: "crypto", persist: true, run: func(ctx context.Context) (Resolved, bool, error) {
		return r.crypto(ctx, q)
	}}
	if class == Crypto {
		chain = append(chain, crypto)
	}
	chain = append(chain, strategy{name: "primary", persist: true, run: func(ctx context.Context) (Resolved, bool, error) {
		return r.primary(ctx, q, rateLimited)
	}})
	if class == Crypto {
		// some crypto pairs are also listed on the primary source; if that
		// path failed too, give the crypto source one last chance.
		retry := crypto
		retry.name = "crypto-again"
		chain = append(chain, retry)
	} else {
		chain = append(chain, strategy{name: "scrape", persist: true, run: func(ctx context.Context) (Resolved, bool, error) {
			return r.scrape(ctx, q)
		}})
	}
	if r.AllowSynthetic {
		chain = append(chain, strategy{name: "synthetic", persist: true, run: func(ctx context.Context) (Resolved, bool, error) {
			return r.estimator().Full(q.Symbol, q.Date), true, nil
		}})
	}
	return chain
}

// manual treats a user-declared price as the authoritative current price
// and back-computes the historical one. It neither reads nor writes the
// cache: the user's number is theirs, not the market's.
func (r *Resolver) manual(q Query) (Resolved, bool, error) {
	if !q.ManualPrice.IsPositive() {
		return Resolved{}, false, nil
	}
	return Resolved{
		Symbol:     q.Symbol,
		Historical: r.estimator().Historical(q.ManualPrice, q.Date),
		Current:    q.ManualPrice,
		ActualDate: q.Date,
		Currency:   DefaultCurrency,
		Source:     SourceManual,
		Estimate:   true,
	}, true, nil
}

// cached returns a prior resolution verbatim. A hit is never re-validated
// against the live market; callers accept a potentially stale current
// price in exchange for zero provider calls.
func (r *Resolver) cached(ctx context.Context, q Query) (Resolved, bool, error) {
	if r.Store == nil {
		return Resolved{}, false, nil
	}
	e, ok, err := r.Store.Get(ctx, q.Symbol, q.Date)
	if err != nil {
		return Resolved{}, false, fmt.Errorf("cache read: %w", err)
	}
	if !ok {
		return Resolved{}, false, nil
	}
	res := e.Resolved
	res.Source = SourceCache
	return res, true, nil
}

func (r *Resolver) crypto(ctx context.Context, q Query) (Resolved, bool, error) {
	if r.Crypto == nil {
		return Resolved{}, false, nil
	}
	quote, ok, err := r.Crypto.Fetch(ctx, q.Symbol, q.Date)
	if err != nil || !ok {
		return Resolved{}, false, err
	}
	return r.fromQuote(q, quote, SourceCrypto, false)
}

// primary runs the retry loop around the primary source: rate-limit errors
// back off exponentially and retry, anything else falls through at once.
func (r *Resolver) primary(ctx context.Context, q Query, rateLimited *bool) (Resolved, bool, error) {
	if r.Primary == nil {
		return Resolved{}, false, nil
	}
	delay := r.Backoff
	var last error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		quote, ok, err := r.Primary.Fetch(ctx, q.Symbol, q.Date)
		if err == nil {
			if !ok {
				return Resolved{}, false, nil
			}
			return r.fromQuote(q, quote, SourcePrimary, false)
		}
		if !errors.Is(err, ErrRateLimited) {
			*rateLimited = false
			return Resolved{}, false, err
		}
		last = err
		r.log().Warn("primary source throttled, backing off", "symbol", q.Symbol, "attempt", attempt, "wait", delay)
		if err := r.doSleep(ctx, delay); err != nil {
			return Resolved{}, false, err
		}
		delay *= 2
	}
	*rateLimited = true
	return Resolved{}, false, last
}

// scrape recovers a current price from the scrape source and estimates the
// historical one backward from it.
func (r *Resolver) scrape(ctx context.Context, q Query) (Resolved, bool, error) {
	if r.Scrape == nil {
		return Resolved{}, false, nil
	}
	current, ok, err := r.Scrape.Current(ctx, q.Symbol)
	if err != nil || !ok {
		return Resolved{}, false, err
	}
	if !current.IsPositive() {
		return Resolved{}, false, nil
	}
	return Resolved{
		Symbol:     q.Symbol,
		Historical: r.estimator().Historical(current, q.Date),
		Current:    current,
		ActualDate: q.Date,
		Currency:   CurrencyFor(q.Symbol),
		Source:     SourceScrape,
		Estimate:   true,
	}, true, nil
}

// fromQuote normalizes a source quote into a Resolved. A non-positive
// current or historical price is an adapter failure even if the other leg
// was found.
func (r *Resolver) fromQuote(q Query, quote Quote, src Source, estimate bool) (Resolved, bool, error) {
	if !quote.Current.IsPositive() || !quote.Historical.IsPositive() {
		return Resolved{}, false, nil
	}
	currency := quote.Currency
	if !SupportedCurrency(currency) {
		currency = DefaultCurrency
	}
	actual := quote.ActualDate
	if actual.IsZero() {
		actual = q.Date
	}
	return Resolved{
		Symbol:     q.Symbol,
		Historical: quote.Historical,
		Current:    quote.Current,
		ActualDate: actual,
		Currency:   currency,
		Source:     src,
		Estimate:   estimate,
	}, true, nil
}

// cache persists a resolution, best effort. Failures are logged and
// swallowed: the caller has its price.
func (r *Resolver) cache(ctx context.Context, q Query, res Resolved) {
	if r.Store == nil {
		return
	}
	e := Entry{Resolved: res, Requested: q.Date, Written: time.Now()}
	if err := r.Store.Put(ctx, e); err != nil {
		r.log().Warn("cache write failed", "symbol", q.Symbol, "err", err)
	}
}

func (r *Resolver) estimator() *Estimator {
	if r.Estimator == nil {
		r.Estimator = NewEstimator()
	}
	return r.Estimator
}

func (r *Resolver) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

func (r *Resolver) doSleep(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	return ctxSleep(ctx, d)
}

// ctxSleep waits for d or until the context is cancelled.
func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
