// Package aggregate runs the composite indicators call: three
// independent sub-queries whose partial failure is tolerated.
package aggregate

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"marketgateway/internal/market"
)

// Section names the indicator sub-queries, in payload order.
type Section string

const (
	SectionFundamentals Section = "fundamentals"
	SectionMarketData   Section = "market_data"
	SectionAnalystInfo  Section = "analyst_info"
)

// Sections is the fixed evaluation order.
var Sections = []Section{SectionFundamentals, SectionMarketData, SectionAnalystInfo}

// Source is the slice of a provider the aggregation needs.
type Source interface {
	FundamentalIndicators(ctx context.Context, ticker string) (market.Indicators, error)
	MarketIndicators(ctx context.Context, ticker string) (market.Indicators, error)
	AnalystIndicators(ctx context.Context, ticker string) (market.Indicators, error)
}

// Result is an overall-success outcome. Failed sections stay in the
// map with a nil value so they serialize as null.
type Result struct {
	Sections map[Section]market.Indicators
	Failed   []Section
}

// Partial reports whether some, but not all, sections failed.
func (r Result) Partial() bool { return len(r.Failed) > 0 }

// Indicators fans the three sub-queries out concurrently and decides
// the overall outcome:
//
//   - all three failed, at least one not-found: the ticker itself is
//     presumed invalid and that not-found error is the result
//   - all three failed otherwise: IndicatorsUnavailable
//   - some failed: success, failed sections null, Partial true
//
// Every sub-query runs to completion; a failure never cancels its
// siblings, since partial success is a valid outcome.
func Indicators(ctx context.Context, src Source, ticker string) (Result, error) {
	calls := []struct {
		section Section
		fn      func(context.Context, string) (market.Indicators, error)
	}{
		{SectionFundamentals, src.FundamentalIndicators},
		{SectionMarketData, src.MarketIndicators},
		{SectionAnalystInfo, src.AnalystIndicators},
	}

	var mu sync.Mutex
	values := make(map[Section]market.Indicators, len(calls))
	failures := make(map[Section]error, len(calls))

	// Plain errgroup, not WithContext: a sub-query error must not
	// cancel the in-flight siblings.
	var g errgroup.Group
	for _, call := range calls {
		g.Go(func() error {
			v, err := call.fn(ctx, ticker)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[call.section] = err
				return nil
			}
			values[call.section] = v
			return nil
		})
	}
	_ = g.Wait()

	failed := make([]Section, 0, len(failures))
	for _, s := range Sections {
		if err, ok := failures[s]; ok {
			failed = append(failed, s)
			slog.Warn("indicator section failed", "ticker", ticker, "section", string(s), "error", err)
		}
	}

	if len(failed) == len(calls) {
		for _, s := range Sections {
			if market.Is(failures[s], market.CodeAssetNotFound) {
				return Result{}, failures[s]
			}
		}
		names := make([]string, len(failed))
		for i, s := range failed {
			names[i] = string(s)
		}
		return Result{}, market.IndicatorsUnavailable(names)
	}

	sections := make(map[Section]market.Indicators, len(Sections))
	for _, s := range Sections {
		sections[s] = values[s] // nil for failed sections
	}
	return Result{Sections: sections, Failed: failed}, nil
}

// FailedNames returns the failed section names as strings for
// response metadata.
func (r Result) FailedNames() []string {
	names := make([]string, len(r.Failed))
	for i, s := range r.Failed {
		names[i] = string(s)
	}
	return names
}
