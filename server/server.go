// Package server exposes price resolution over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/date"
	"github.com/fumbled/fumble/stats"
)

// Handler serves the price, search, roast, stats and track endpoints.
type Handler struct {
	Resolver *fumble.Resolver
	Searcher fumble.SymbolSearcher
	Tracker  *stats.Tracker
	Log      *slog.Logger
}

// New returns a Handler over the given resolver. Searcher and Tracker may
// be nil; the corresponding endpoints degrade gracefully.
func New(resolver *fumble.Resolver, searcher fumble.SymbolSearcher, tracker *stats.Tracker) *Handler {
	return &Handler{Resolver: resolver, Searcher: searcher, Tracker: tracker, Log: slog.Default()}
}

// RegisterRoutes binds the handler to a gin engine.
func (h *Handler) RegisterRoutes(e *gin.Engine) {
	e.GET("/price", h.Price)
	e.GET("/search", h.SearchSymbols)
	e.GET("/roast", h.Roast)
	e.GET("/stats", h.Stats)
	e.POST("/track", h.Track)
	e.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().Unix()})
	})
}

// Router returns a ready-to-run engine with the routes registered.
func (h *Handler) Router() *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery())
	h.RegisterRoutes(e)
	return e
}

// Price resolves a symbol/date pair. 400 on missing or malformed input,
// 429 when every source failed and the terminal failure was throttling,
// 500 for any other terminal failure.
func (h *Handler) Price(c *gin.Context) {
	symbol := c.Query("symbol")
	dateStr := c.Query("date")
	if symbol == "" || dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: symbol and date"})
		return
	}
	on, err := date.Parse(dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, want YYYY-MM-DD"})
		return
	}
	q := fumble.Query{Symbol: symbol, Date: on}
	if manual := c.Query("manualPrice"); manual != "" {
		price, err := decimal.NewFromString(manual)
		if err != nil || !price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid manualPrice"})
			return
		}
		q.ManualPrice = price
	}

	res, err := h.Resolver.Resolve(c.Request.Context(), q)
	if err != nil {
		var exhausted *fumble.ExhaustedError
		switch {
		case errors.Is(err, fumble.ErrInvalidQuery):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.As(err, &exhausted) && exhausted.RateLimited:
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Price providers are busy right now. Try again in a minute, or enter the price manually.",
			})
		default:
			h.log().Error("price resolution failed", "symbol", q.Symbol, "date", q.Date, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Check network or try again later"})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

// SearchSymbols merges the static ticker list with the live provider.
func (h *Handler) SearchSymbols(c *gin.Context) {
	query := c.Query("q")
	if len(query) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query must be at least 2 characters"})
		return
	}
	results := fumble.Search(c.Request.Context(), h.Searcher, query)
	if results == nil {
		results = []fumble.Ticker{}
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

// Roast maps a fumble amount to its ladder item.
func (h *Handler) Roast(c *gin.Context) {
	amountStr := c.Query("amount")
	if amountStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameter: amount"})
		return
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": fumble.RoastFor(amount)})
}

// trackRequest is the client-side event after a successful calculation.
type trackRequest struct {
	AssetSymbol  string  `json:"assetSymbol"`
	Currency     string  `json:"currency"`
	FumbleAmount float64 `json:"fumbleAmount"`
}

// Track counts an event, fire and forget. It always answers success: a
// tracking failure must never fail the caller.
func (h *Handler) Track(c *gin.Context) {
	if h.Tracker == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tracking disabled"})
		return
	}
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	h.Tracker.Track(stats.Fumble{Symbol: req.AssetSymbol, Currency: req.Currency, Amount: req.FumbleAmount})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stats reads the usage counters back.
func (h *Handler) Stats(c *gin.Context) {
	summary, err := h.Tracker.Summarize(c.Request.Context())
	if err != nil {
		h.log().Error("stats read failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) log() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}
