package models

import (
	"sort"
	"strings"
	"time"
)

// PriceSource selects the price provider.
type PriceSource string

const (
	PriceSourceYahoo   PriceSource = "yahoo"
	PriceSourceAlpha   PriceSource = "alpha"
	PriceSourceFinnhub PriceSource = "finnhub"
)

// ParsePriceSource normalises a user-supplied source name. Unknown or empty
// values select Yahoo, which needs no credential.
func ParsePriceSource(s string) PriceSource {
	switch PriceSource(strings.ToLower(strings.TrimSpace(s))) {
	case PriceSourceAlpha:
		return PriceSourceAlpha
	case PriceSourceFinnhub:
		return PriceSourceFinnhub
	default:
		return PriceSourceYahoo
	}
}

// PriceBar is one daily OHLCV row.
type PriceBar struct {
	Date          time.Time `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	Volume        int64     `json:"volume"`
	AdjustedClose *float64  `json:"adjusted_close,omitempty"`
}

// NormalizeBars truncates dates to the calendar day (UTC), sorts ascending and
// keeps the last bar seen for any duplicated day.
func NormalizeBars(bars []PriceBar) []PriceBar {
	byDay := make(map[time.Time]int, len(bars))
	out := make([]PriceBar, 0, len(bars))
	for _, b := range bars {
		d := b.Date.UTC()
		b.Date = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if i, ok := byDay[b.Date]; ok {
			out[i] = b
			continue
		}
		byDay[b.Date] = len(out)
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// PriceHistory is the response shape of the prices step.
type PriceHistory struct {
	Ticker string      `json:"ticker"`
	Source PriceSource `json:"source"`
	Days   int         `json:"days"`
	Bars   []PriceBar  `json:"bars"`
}
