package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketgateway/internal/aggregate"
	"marketgateway/internal/envelope"
	"marketgateway/internal/market"
	"marketgateway/internal/provider/registry"
)

type handlers struct {
	reg *registry.Registry
}

func newHandlers(reg *registry.Registry) *handlers {
	return &handlers{reg: reg}
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, envelope.Success(nil, "API is running", nil))
}

func (h *handlers) providers(c *gin.Context) {
	defaults, fallback := h.reg.Defaults()
	content := gin.H{
		"available_providers": h.reg.Names(),
		"default_providers":   defaults,
		"fallback_provider":   fallback,
	}
	c.JSON(http.StatusOK, envelope.Success(content, "", nil))
}

func (h *handlers) assets(c *gin.Context) {
	search := c.Query("search")

	p, release, err := h.reg.Acquire(c.Query("provider"), registry.RouteAssets)
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()

	assets, err := p.AvailableAssets(c.Request.Context(), search)
	if err != nil {
		respondError(c, err)
		return
	}

	meta := map[string]any{"provider": p.Name()}
	if search != "" {
		meta["search"] = search
	}
	c.JSON(http.StatusOK, envelope.Success(assets, "", meta))
}

func (h *handlers) prices(c *gin.Context) {
	ticker := c.Param("ticker")
	tr := market.TimeRange{
		Range:    c.DefaultQuery("range", "1d"),
		Interval: c.Query("interval"),
	}

	p, release, err := h.reg.Acquire(c.Query("provider"), registry.RoutePrices)
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()

	prices, err := p.HistoricalPrices(c.Request.Context(), ticker, tr)
	if err != nil {
		respondError(c, err)
		return
	}

	meta := map[string]any{
		"provider": p.Name(),
		"ticker":   ticker,
		"range":    tr.Range,
	}
	if tr.Interval != "" {
		meta["interval"] = tr.Interval
	}
	c.JSON(http.StatusOK, envelope.Success(prices, "", meta))
}

func (h *handlers) indicators(c *gin.Context) {
	ticker := c.Param("ticker")

	p, release, err := h.reg.Acquire(c.Query("provider"), registry.RouteIndicators)
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()

	result, err := aggregate.Indicators(c.Request.Context(), p, ticker)
	if err != nil {
		respondError(c, err)
		return
	}

	meta := map[string]any{"provider": p.Name(), "ticker": ticker}
	if result.Partial() {
		meta["partial_data"] = true
		meta["failed_sections"] = result.FailedNames()
	}
	c.JSON(http.StatusOK, envelope.Success(result.Sections, "", meta))
}

func (h *handlers) quotes(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	q := market.QuoteQuery{
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Limit:     limit,
		Sector:    c.Query("sector"),
	}

	p, release, err := h.reg.Acquire(c.Query("provider"), registry.RouteQuotes)
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()

	list, err := p.QuoteList(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope.Success(list, "", map[string]any{"provider": p.Name()}))
}

func respondError(c *gin.Context, err error) {
	e := market.As(err)
	status := envelope.StatusFor(e)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "id", c.GetString("request_id"), "code", string(e.Code), "error", e.Message)
	} else {
		slog.Warn("request rejected", "id", c.GetString("request_id"), "code", string(e.Code), "error", e.Message)
	}
	c.JSON(status, envelope.Error(e))
}
