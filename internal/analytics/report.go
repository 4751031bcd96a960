// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analytics classifies QR link scans and aggregates them into
// reports.
package analytics

import (
	"sort"
	"time"

	"github.com/unixdj/qrtrack/internal/link"
)

// A Click is a recorded scan of a link.
type Click struct {
	ID        string    `json:"id"`
	LinkID    int64     `json:"link_id"`
	At        time.Time `json:"at"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referer   string    `json:"referer,omitempty"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	Device    string    `json:"device"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Visitor   string    `json:"visitor,omitempty"`
}

// A Filter selects clicks.  Zero fields match everything.
type Filter struct {
	LinkID int64     // link, 0 for all
	Start  time.Time // inclusive
	End    time.Time // inclusive
}

// Match reports whether f selects c.
func (f Filter) Match(c *Click) bool {
	return (f.LinkID == 0 || c.LinkID == f.LinkID) &&
		(f.Start.IsZero() || !c.At.Before(f.Start)) &&
		(f.End.IsZero() || !c.At.After(f.End))
}

// DayRange returns a filter from the start of the day of from to the
// end of the day of to, in from's location.
func DayRange(id int64, from, to time.Time) Filter {
	y, m, d := from.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, from.Location())
	y, m, d = to.In(from.Location()).Date()
	end := time.Date(y, m, d+1, 0, 0, 0, 0, from.Location()).Add(-time.Nanosecond)
	return Filter{LinkID: id, Start: start, End: end}
}

// A Count is a number of clicks for a key.
type Count struct {
	Key    string `json:"key"`
	Clicks int    `json:"clicks"`
}

func countBy(clicks []Click, key func(*Click) string) []Count {
	m := make(map[string]int)
	for i := range clicks {
		m[key(&clicks[i])]++
	}
	out := make([]Count, 0, len(m))
	for k, n := range m {
		out = append(out, Count{k, n})
	}
	return out
}

// sortCounts orders counts by descending clicks, then by key.
func sortCounts(c []Count) []Count {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Clicks != c[j].Clicks {
			return c[i].Clicks > c[j].Clicks
		}
		return c[i].Key < c[j].Key
	})
	return c
}

// ByDay counts clicks per UTC day, YYYY-MM-DD, earliest first.
func ByDay(clicks []Click) []Count {
	c := countBy(clicks, func(c *Click) string {
		return c.At.UTC().Format(time.DateOnly)
	})
	sort.Slice(c, func(i, j int) bool { return c[i].Key < c[j].Key })
	return c
}

// ByDevice counts clicks per device type, most clicks first.
func ByDevice(clicks []Click) []Count {
	return sortCounts(countBy(clicks, func(c *Click) string { return c.Device }))
}

// ByCountry counts clicks per country, most clicks first.  Clicks of
// unknown origin count under "".
func ByCountry(clicks []Click) []Count {
	return sortCounts(countBy(clicks, func(c *Click) string { return c.Country }))
}

// ByBrowser counts clicks per browser, most clicks first.
func ByBrowser(clicks []Click) []Count {
	return sortCounts(countBy(clicks, func(c *Click) string { return c.Browser }))
}

// Totals are overall figures.
type Totals struct {
	Codes    int `json:"total_codes"`
	Active   int `json:"active_codes"`
	Clicks   int `json:"total_clicks"`
	Visitors int `json:"unique_visitors"`
}

// Total computes totals for links and clicks.
func Total(links []link.Link, clicks []Click) Totals {
	t := Totals{Codes: len(links), Clicks: len(clicks)}
	for i := range links {
		if links[i].Active {
			t.Active++
		}
	}
	seen := make(map[string]bool)
	for i := range clicks {
		v := clicks[i].Visitor
		if v == "" {
			v = clicks[i].IP + "\x00" + clicks[i].UserAgent
		}
		seen[v] = true
	}
	t.Visitors = len(seen)
	return t
}

// A LinkCount is a link with its number of clicks.
type LinkCount struct {
	link.Link
	Clicks int `json:"click_count"`
}

// Top returns up to n links with the most clicks, links without clicks
// included.  Ties go to the older link.
func Top(links []link.Link, clicks []Click, n int) []LinkCount {
	m := make(map[int64]int)
	for i := range clicks {
		m[clicks[i].LinkID]++
	}
	out := make([]LinkCount, len(links))
	for i, l := range links {
		out[i] = LinkCount{l, m[l.ID]}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Clicks != out[j].Clicks {
			return out[i].Clicks > out[j].Clicks
		}
		return out[i].ID < out[j].ID
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// A Report summarises the clicks selected by a filter.
type Report struct {
	LinkID    int64     `json:"link_id,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Totals    Totals    `json:"totals"`
	ByDay     []Count   `json:"by_day"`
	ByDevice  []Count   `json:"by_device"`
	ByCountry []Count   `json:"by_country"`
	ByBrowser []Count   `json:"by_browser"`
}

// NewReport builds a report on clicks, already selected by f, for links.
func NewReport(f Filter, links []link.Link, clicks []Click) *Report {
	return &Report{
		LinkID:    f.LinkID,
		Start:     f.Start,
		End:       f.End,
		Totals:    Total(links, clicks),
		ByDay:     ByDay(clicks),
		ByDevice:  ByDevice(clicks),
		ByCountry: ByCountry(clicks),
		ByBrowser: ByBrowser(clicks),
	}
}
