// Package fumble computes the opportunity cost of a past purchase: how
// much the money would be worth today had it been put into an asset
// instead.
//
// The interesting part is getting a historical and a current price for an
// arbitrary, possibly obscure, possibly rate-limited symbol. The Resolver
// chains a cache, a crypto market-data API, a primary market-data
// provider with retry/backoff, a best-effort page scrape, and finally a
// synthetic estimator, and always answers with a normalized price record
// or a typed failure.
package fumble
