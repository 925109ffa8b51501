// Package attribution computes multi-touch revenue attribution per channel.
package attribution

import (
	"sort"
	"time"

	"github.com/fastygo/revenue-engine/domain"
)

// DefaultLookbackDays is used when a caller does not specify a window.
const DefaultLookbackDays = 90

// Params controls the attribution computation.
type Params struct {
	AccountID    string `json:"account_id,omitempty"`
	LookbackDays int    `json:"lookback_days"`
	// UniqueChannels credits each channel at most once per conversion in the linear split.
	UniqueChannels bool `json:"unique_channels,omitempty"`
}

// Normalize fills defaults.
func (p Params) Normalize() Params {
	if p.LookbackDays <= 0 {
		p.LookbackDays = DefaultLookbackDays
	}
	return p
}

// Since returns the start of the lookback window relative to now.
func (p Params) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.Normalize().LookbackDays)
}

// Channel is the per-channel attribution breakdown.
type Channel struct {
	Channel           string  `json:"channel"`
	FirstTouchRevenue float64 `json:"first_touch_revenue"`
	LastTouchRevenue  float64 `json:"last_touch_revenue"`
	LinearRevenue     float64 `json:"linear_revenue"`
	Conversions       int     `json:"conversions"`
}

// Compute attributes conversion revenue across the touches that precede each conversion.
// Events are grouped by account; anonymous events are ignored. Output is sorted by linear
// revenue descending with ties kept in first-encounter order.
func Compute(events []domain.Event, params Params) []Channel {
	acc := newAccumulator()

	for _, group := range groupByAccount(events) {
		touches := make([]*domain.Event, 0, len(group))
		for _, ev := range group {
			if ev.Channel() != domain.UnknownChannel {
				touches = append(touches, ev)
			}
		}
		if len(touches) == 0 {
			continue
		}

		for _, conv := range group {
			if !conv.IsConversion() {
				continue
			}
			revenue := conv.Revenue()
			if revenue <= 0 {
				continue
			}

			path := pathUntil(touches, conv)
			if len(path) == 0 {
				continue
			}

			acc.stat(path[0].Channel()).FirstTouchRevenue += revenue
			last := acc.stat(path[len(path)-1].Channel())
			last.LastTouchRevenue += revenue
			last.Conversions++

			channels := pathChannels(path, params.UniqueChannels)
			share := revenue / float64(len(channels))
			for _, ch := range channels {
				acc.stat(ch).LinearRevenue += share
			}
		}
	}

	return acc.sorted()
}

// pathUntil returns the touches at or before the conversion timestamp. Touches are time-ordered.
func pathUntil(touches []*domain.Event, conv *domain.Event) []*domain.Event {
	n := sort.Search(len(touches), func(i int) bool {
		return touches[i].CreatedAt.After(conv.CreatedAt)
	})
	return touches[:n]
}

func pathChannels(path []*domain.Event, unique bool) []string {
	out := make([]string, 0, len(path))
	seen := make(map[string]struct{}, len(path))
	for _, ev := range path {
		ch := ev.Channel()
		if unique {
			if _, ok := seen[ch]; ok {
				continue
			}
			seen[ch] = struct{}{}
		}
		out = append(out, ch)
	}
	return out
}

// groupByAccount returns per-account event slices in first-seen account order, each sorted by CreatedAt.
func groupByAccount(events []domain.Event) [][]*domain.Event {
	index := make(map[string]int)
	var groups [][]*domain.Event
	for i := range events {
		ev := &events[i]
		if ev.Anonymous() {
			continue
		}
		pos, ok := index[ev.AccountID]
		if !ok {
			pos = len(groups)
			index[ev.AccountID] = pos
			groups = append(groups, nil)
		}
		groups[pos] = append(groups[pos], ev)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].CreatedAt.Before(g[j].CreatedAt)
		})
	}
	return groups
}

type accumulator struct {
	order []string
	stats map[string]*Channel
}

func newAccumulator() *accumulator {
	return &accumulator{stats: make(map[string]*Channel)}
}

func (a *accumulator) stat(channel string) *Channel {
	if s, ok := a.stats[channel]; ok {
		return s
	}
	s := &Channel{Channel: channel}
	a.stats[channel] = s
	a.order = append(a.order, channel)
	return s
}

func (a *accumulator) sorted() []Channel {
	out := make([]Channel, 0, len(a.order))
	for _, ch := range a.order {
		out = append(out, *a.stats[ch])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LinearRevenue > out[j].LinearRevenue
	})
	return out
}
