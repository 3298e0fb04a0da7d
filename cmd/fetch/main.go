// Command fetch resolves a provider and runs one gateway operation
// from the command line, printing the result as JSON. Useful for
// poking upstreams without starting the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"marketgateway/internal/aggregate"
	"marketgateway/internal/config"
	"marketgateway/internal/httpx"
	"marketgateway/internal/market"
	"marketgateway/internal/provider"
	"marketgateway/internal/provider/brapi"
	"marketgateway/internal/provider/registry"
	"marketgateway/internal/provider/yahoo"
)

func main() {
	var (
		op           string
		ticker       string
		rangeToken   string
		interval     string
		search       string
		providerName string
		timeout      int
	)

	flag.StringVar(&op, "op", "prices", "operation: assets | prices | indicators")
	flag.StringVar(&ticker, "ticker", "PETR4", "ticker symbol")
	flag.StringVar(&rangeToken, "range", "1d", "historical range token (1d..max)")
	flag.StringVar(&interval, "interval", "", "interval between points (provider default when empty)")
	flag.StringVar(&search, "search", "", "asset search term")
	flag.StringVar(&providerName, "provider", "", "explicit provider name (overrides route default)")
	flag.IntVar(&timeout, "timeout", 30, "overall timeout seconds")
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	reg := registry.New()
	reg.Register("brapi", func() provider.Provider {
		return brapi.New(brapi.Config{}, httpx.New(httpx.Config{
			BaseURL: cfg.BrapiBaseURL,
			Token:   cfg.BrapiToken,
			Timeout: cfg.RequestTimeout,
		}))
	})
	reg.Register("yahoo", func() provider.Provider {
		return yahoo.New(yahoo.Config{}, httpx.New(httpx.Config{
			BaseURL: cfg.YahooBaseURL,
			Timeout: cfg.RequestTimeout,
		}))
	})
	if err := reg.SetFallback(cfg.DefaultProvider); err != nil {
		fatal(err)
	}
	if err := reg.SetDefaultForRoute(registry.RouteIndicators, "yahoo"); err != nil {
		fatal(err)
	}

	route := map[string]string{
		"assets":     registry.RouteAssets,
		"prices":     registry.RoutePrices,
		"indicators": registry.RouteIndicators,
	}[op]
	if route == "" {
		fatal(fmt.Errorf("unknown operation %q", op))
	}

	p, release, err := reg.Acquire(providerName, route)
	if err != nil {
		fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	var out any
	switch op {
	case "assets":
		out, err = p.AvailableAssets(ctx, search)
	case "prices":
		out, err = p.HistoricalPrices(ctx, ticker, market.TimeRange{Range: rangeToken, Interval: interval})
	case "indicators":
		var result aggregate.Result
		result, err = aggregate.Indicators(ctx, p, ticker)
		if err == nil {
			out = result.Sections
		}
	}
	if err != nil {
		fatal(err)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(b))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fetch:", err)
	os.Exit(1)
}
