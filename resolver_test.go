package fumble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/fumbled/fumble/date"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Store that counts its calls.
type fakeStore struct {
	entries map[string]Entry
	gets    int
	puts    int
	putErr  error
}

func newFakeStore() *fakeStore { return &fakeStore{entries: make(map[string]Entry)} }

func (s *fakeStore) key(symbol string, on date.Date) string {
	return symbol + ":" + on.String()
}

func (s *fakeStore) Get(_ context.Context, symbol string, on date.Date) (Entry, bool, error) {
	s.gets++
	e, ok := s.entries[s.key(symbol, on)]
	return e, ok, nil
}

func (s *fakeStore) Put(_ context.Context, e Entry) error {
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[s.key(e.Symbol, e.Requested)] = e
	return nil
}

// fakeSource answers Fetch from a scripted list of steps, one per call.
type fetchStep struct {
	quote Quote
	ok    bool
	err   error
}

type fakeSource struct {
	steps []fetchStep
	calls int
}

func (f *fakeSource) Fetch(_ context.Context, _ string, _ date.Date) (Quote, bool, error) {
	step := fetchStep{}
	if f.calls < len(f.steps) {
		step = f.steps[f.calls]
	}
	f.calls++
	return step.quote, step.ok, step.err
}

type fakeScrape struct {
	price decimal.Decimal
	ok    bool
	err   error
	calls int
}

func (f *fakeScrape) Current(_ context.Context, _ string) (decimal.Decimal, bool, error) {
	f.calls++
	return f.price, f.ok, f.err
}

// newTestResolver builds a resolver with a pinned estimator, silent logs
// and a sleep that records waits instead of waiting.
func newTestResolver(s Store) (*Resolver, *[]time.Duration) {
	r := NewResolver(s, nil, nil, nil)
	r.Estimator = &Estimator{
		Now:  func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) },
		Rand: rand.New(rand.NewSource(42)),
	}
	r.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	var waits []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return r, &waits
}

func quoteOf(historical, current float64, on date.Date, currency string) Quote {
	return Quote{
		Historical: decimal.NewFromFloat(historical),
		Current:    decimal.NewFromFloat(current),
		ActualDate: on,
		Currency:   currency,
	}
}

func TestResolveInvalidQuery(t *testing.T) {
	r, _ := newTestResolver(nil)
	tests := []Query{
		{},
		{Symbol: "AAPL"},
		{Date: date.New(2021, 1, 1)},
		{Symbol: "   ", Date: date.New(2021, 1, 1)},
	}
	for _, q := range tests {
		if _, err := r.Resolve(context.Background(), q); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("Resolve(%+v) err = %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestResolveCacheHit(t *testing.T) {
	store := newFakeStore()
	on := date.New(2021, 1, 4)
	want := Resolved{
		Symbol:     "AAPL",
		Historical: decimal.NewFromInt(129),
		Current:    decimal.NewFromInt(240),
		ActualDate: on,
		Currency:   "USD",
		Source:     SourcePrimary,
	}
	store.entries[store.key("AAPL", on)] = Entry{Resolved: want, Requested: on}

	primary := &fakeSource{}
	r, _ := newTestResolver(store)
	r.Primary = primary

	got, err := r.Resolve(context.Background(), Query{Symbol: "aapl", Date: on})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceCache {
		t.Errorf("Source = %q, want %q", got.Source, SourceCache)
	}
	if !got.Historical.Equal(want.Historical) || !got.Current.Equal(want.Current) {
		t.Errorf("got %v/%v, want cached %v/%v", got.Historical, got.Current, want.Historical, want.Current)
	}
	if primary.calls != 0 {
		t.Errorf("primary called %d times on a cache hit, want 0", primary.calls)
	}
	if store.puts != 0 {
		t.Errorf("cache hit wrote back %d times, want 0", store.puts)
	}
}

func TestResolveManual(t *testing.T) {
	store := newFakeStore()
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), Query{
		Symbol:      "WHATEVER",
		Date:        date.New(2020, 3, 1),
		ManualPrice: decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceManual {
		t.Errorf("Source = %q, want %q", got.Source, SourceManual)
	}
	if !got.Current.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Current = %v, want 500", got.Current)
	}
	if !got.Estimate {
		t.Error("manual resolution must be marked as an estimate")
	}
	if !got.Historical.IsPositive() || got.Historical.GreaterThanOrEqual(got.Current) {
		t.Errorf("Historical = %v, want in (0, 500)", got.Historical)
	}
	if store.gets != 0 || store.puts != 0 {
		t.Errorf("manual path touched the cache: gets=%d puts=%d", store.gets, store.puts)
	}
}

func TestResolveCrypto(t *testing.T) {
	store := newFakeStore()
	on := date.New(2021, 1, 1)
	crypto := &fakeSource{steps: []fetchStep{
		{quote: quoteOf(29000, 95000, on, "USD"), ok: true},
	}}
	r, _ := newTestResolver(store)
	r.Crypto = crypto

	got, err := r.Resolve(context.Background(), Query{Symbol: "BTC-USD", Date: on})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceCrypto {
		t.Errorf("Source = %q, want %q", got.Source, SourceCrypto)
	}
	if got.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", got.Currency)
	}
	if _, ok, _ := store.Get(context.Background(), "BTC-USD", on); !ok {
		t.Error("successful crypto resolution was not cached")
	}
}

func TestResolvePrimary(t *testing.T) {
	store := newFakeStore()
	on := date.New(2020, 2, 3)
	primary := &fakeSource{steps: []fetchStep{
		{quote: quoteOf(77.37, 240.10, on, "USD"), ok: true},
	}}
	crypto := &fakeSource{}
	r, _ := newTestResolver(store)
	r.Crypto = crypto
	r.Primary = primary

	got, err := r.Resolve(context.Background(), Query{Symbol: "AAPL", Date: on})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourcePrimary {
		t.Errorf("Source = %q, want %q", got.Source, SourcePrimary)
	}
	if crypto.calls != 0 {
		t.Errorf("crypto source called %d times for an equity, want 0", crypto.calls)
	}
	if store.puts != 1 {
		t.Errorf("store.puts = %d, want 1", store.puts)
	}
}

func TestResolveRetryOnRateLimit(t *testing.T) {
	rl := fmt.Errorf("primary: %w", ErrRateLimited)
	store := newFakeStore()
	primary := &fakeSource{steps: []fetchStep{{err: rl}, {err: rl}, {err: rl}}}
	r, waits := newTestResolver(store)
	r.Primary = primary

	_, err := r.Resolve(context.Background(), Query{Symbol: "AAPL", Date: date.New(2021, 5, 1)})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want *ExhaustedError", err)
	}
	if !exhausted.RateLimited {
		t.Error("ExhaustedError.RateLimited = false, want true")
	}
	if primary.calls != 3 {
		t.Errorf("primary attempts = %d, want 3", primary.calls)
	}
	wantWaits := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(*waits) != len(wantWaits) {
		t.Fatalf("backoff waits = %v, want %v", *waits, wantWaits)
	}
	for i, w := range wantWaits {
		if (*waits)[i] != w {
			t.Errorf("wait[%d] = %v, want %v", i, (*waits)[i], w)
		}
	}
}

func TestResolveRetryRecoversMidway(t *testing.T) {
	rl := fmt.Errorf("primary: %w", ErrRateLimited)
	on := date.New(2021, 5, 3)
	primary := &fakeSource{steps: []fetchStep{
		{err: rl},
		{quote: quoteOf(100, 200, on, "USD"), ok: true},
	}}
	r, waits := newTestResolver(newFakeStore())
	r.Primary = primary

	got, err := r.Resolve(context.Background(), Query{Symbol: "MSFT", Date: on})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourcePrimary {
		t.Errorf("Source = %q, want %q", got.Source, SourcePrimary)
	}
	if len(*waits) != 1 || (*waits)[0] != time.Second {
		t.Errorf("waits = %v, want [1s]", *waits)
	}
}

func TestResolveNoRetryOnOtherErrors(t *testing.T) {
	primary := &fakeSource{steps: []fetchStep{{err: errors.New("boom")}}}
	r, waits := newTestResolver(newFakeStore())
	r.Primary = primary

	_, err := r.Resolve(context.Background(), Query{Symbol: "AAPL", Date: date.New(2021, 5, 1)})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want *ExhaustedError", err)
	}
	if exhausted.RateLimited {
		t.Error("RateLimited = true after a non-throttle failure")
	}
	if primary.calls != 1 {
		t.Errorf("primary attempts = %d, want 1", primary.calls)
	}
	if len(*waits) != 0 {
		t.Errorf("waits = %v, want none", *waits)
	}
}

func TestResolveScrapeFallback(t *testing.T) {
	store := newFakeStore()
	primary := &fakeSource{steps: []fetchStep{{err: errors.New("no data")}}}
	scrape := &fakeScrape{price: decimal.NewFromInt(1600), ok: true}
	r, _ := newTestResolver(store)
	r.Primary = primary
	r.Scrape = scrape

	got, err := r.Resolve(context.Background(), Query{Symbol: "BATA.NS", Date: date.New(2019, 7, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceScrape {
		t.Errorf("Source = %q, want %q", got.Source, SourceScrape)
	}
	if !got.Estimate {
		t.Error("scraped resolution must be marked as an estimate")
	}
	if got.Currency != "INR" {
		t.Errorf("Currency = %q, want INR for a .NS listing", got.Currency)
	}
	if !got.Current.Equal(decimal.NewFromInt(1600)) {
		t.Errorf("Current = %v, want the scraped 1600", got.Current)
	}
	if !got.Historical.IsPositive() || !got.Historical.LessThan(got.Current) {
		t.Errorf("Historical = %v, want in (0, 1600)", got.Historical)
	}
	if store.puts != 1 {
		t.Errorf("store.puts = %d, want 1", store.puts)
	}
}

func TestResolveCryptoSecondChance(t *testing.T) {
	on := date.New(2022, 11, 9)
	crypto := &fakeSource{steps: []fetchStep{
		{err: errors.New("flaky")},
		{quote: quoteOf(16000, 95000, on, "USD"), ok: true},
	}}
	primary := &fakeSource{steps: []fetchStep{{err: errors.New("not listed")}}}
	scrape := &fakeScrape{price: decimal.NewFromInt(1), ok: true}
	r, _ := newTestResolver(newFakeStore())
	r.Crypto = crypto
	r.Primary = primary
	r.Scrape = scrape

	got, err := r.Resolve(context.Background(), Query{Symbol: "BTC-USD", Date: on})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceCrypto {
		t.Errorf("Source = %q, want %q", got.Source, SourceCrypto)
	}
	if crypto.calls != 2 {
		t.Errorf("crypto calls = %d, want 2", crypto.calls)
	}
	if scrape.calls != 0 {
		t.Errorf("scrape called %d times for a crypto symbol, want 0", scrape.calls)
	}
}

func TestResolveSyntheticGate(t *testing.T) {
	q := Query{Symbol: "OBSCURE", Date: date.New(2020, 1, 1)}

	r, _ := newTestResolver(newFakeStore())
	if _, err := r.Resolve(context.Background(), q); err == nil {
		t.Fatal("want an error when synthetic prices are disabled")
	}

	r2, _ := newTestResolver(newFakeStore())
	r2.AllowSynthetic = true
	got, err := r2.Resolve(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceSynthetic {
		t.Errorf("Source = %q, want %q", got.Source, SourceSynthetic)
	}
	if !got.Estimate {
		t.Error("synthetic resolution must be marked as an estimate")
	}
	if !got.Historical.IsPositive() || !got.Current.IsPositive() {
		t.Errorf("prices must be positive, got %v/%v", got.Historical, got.Current)
	}
}

func TestResolveIdempotentThroughCache(t *testing.T) {
	store := newFakeStore()
	scrape := &fakeScrape{price: decimal.NewFromInt(350), ok: true}
	r, _ := newTestResolver(store)
	r.Scrape = scrape

	q := Query{Symbol: "TSLA", Date: date.New(2020, 6, 1)}
	first, err := r.Resolve(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if scrape.calls != 1 {
		t.Errorf("scrape calls = %d, want 1 (second resolve must hit the cache)", scrape.calls)
	}
	if second.Source != SourceCache {
		t.Errorf("second Source = %q, want %q", second.Source, SourceCache)
	}
	// the estimate must not be re-drawn
	if !second.Historical.Equal(first.Historical) || !second.Current.Equal(first.Current) {
		t.Errorf("second resolve %v/%v differs from first %v/%v",
			second.Historical, second.Current, first.Historical, first.Current)
	}
	if second.ActualDate != first.ActualDate {
		t.Errorf("ActualDate changed across resolves: %v vs %v", second.ActualDate, first.ActualDate)
	}
}

func TestResolveCacheWriteFailureIsSwallowed(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("redis down")
	on := date.New(2021, 1, 1)
	primary := &fakeSource{steps: []fetchStep{
		{quote: quoteOf(100, 200, on, "USD"), ok: true},
	}}
	r, _ := newTestResolver(store)
	r.Primary = primary

	got, err := r.Resolve(context.Background(), Query{Symbol: "AAPL", Date: on})
	if err != nil {
		t.Fatalf("resolution failed because a cache write failed: %v", err)
	}
	if got.Source != SourcePrimary {
		t.Errorf("Source = %q, want %q", got.Source, SourcePrimary)
	}
}

func TestResolveRejectsNonPositiveQuotes(t *testing.T) {
	on := date.New(2021, 1, 1)
	primary := &fakeSource{steps: []fetchStep{
		{quote: Quote{Historical: decimal.Zero, Current: decimal.NewFromInt(10), ActualDate: on}, ok: true},
	}}
	r, _ := newTestResolver(newFakeStore())
	r.Primary = primary

	_, err := r.Resolve(context.Background(), Query{Symbol: "AAPL", Date: on})
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want *ExhaustedError for a zero-price quote", err)
	}
}

func TestResolveCancelledContext(t *testing.T) {
	rl := fmt.Errorf("primary: %w", ErrRateLimited)
	primary := &fakeSource{steps: []fetchStep{{err: rl}, {err: rl}, {err: rl}}}
	r, _ := newTestResolver(newFakeStore())
	r.Primary = primary
	r.sleep = ctxSleep // honor cancellation for real

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, Query{Symbol: "AAPL", Date: date.New(2021, 1, 1)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
