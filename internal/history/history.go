// Package history derives display data from a raw stock event sequence.
// All transforms are pure; ordering is handled here, not by the fetch.
package history

import (
	"math"
	"sort"
	"time"

	"github.com/Voxel07/inventory/internal/models"
)

// Change is one row of the per-period delta table: how much the stock
// moved relative to the previous event, and why.
type Change struct {
	Change    int    `json:"change"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// Series is the charting companion: ascending (timestamp, value) pairs
// plus an axis maximum with 10% headroom.
type Series struct {
	Timestamps []time.Time `json:"timestamps"`
	Values     []int       `json:"values"`
	AxisMax    int         `json:"axis_max"`
}

// sorted returns a copy of events in ascending (CreatedAt, Seq) order.
func sorted(events []*models.StockEvent) []*models.StockEvent {
	out := make([]*models.StockEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})
	return out
}

// Deltas computes per-period stock changes in chronological order.
// The first event is measured against a baseline of zero. An empty
// input yields an empty slice.
func Deltas(events []*models.StockEvent) []Change {
	out := make([]Change, 0, len(events))
	previous := 0
	for _, ev := range sorted(events) {
		out = append(out, Change{
			Change:    ev.StockValue - previous,
			Reason:    ev.Reason,
			Timestamp: ev.CreatedAtTime().Local().Format("2006-01-02 15:04:05"),
		})
		previous = ev.StockValue
	}
	return out
}

// BuildSeries computes the chart series for an event sequence.
// The second return value reports whether there is anything to chart;
// an empty input yields (Series{}, false) rather than a zero chart.
func BuildSeries(events []*models.StockEvent) (Series, bool) {
	if len(events) == 0 {
		return Series{}, false
	}

	s := Series{
		Timestamps: make([]time.Time, 0, len(events)),
		Values:     make([]int, 0, len(events)),
	}
	maxValue := 0
	for _, ev := range sorted(events) {
		s.Timestamps = append(s.Timestamps, ev.CreatedAtTime())
		s.Values = append(s.Values, ev.StockValue)
		if ev.StockValue > maxValue {
			maxValue = ev.StockValue
		}
	}
	s.AxisMax = int(math.Ceil(float64(maxValue) * 1.1))
	return s, true
}
