package sim

import "time"

const (
	// HourSeconds is the fixed settlement tick of the simulation.
	HourSeconds = 3600
	daySeconds  = 24 * HourSeconds
	weekSeconds = 7 * daySeconds
)

// DefaultRegionID is the fallback region for traffic lookups. Regions absent
// from the traffic table use the most popular region's curve.
const DefaultRegionID = 637640

// weekShares holds one region's traffic-share fraction per (weekday, hour)
// slot. Weekday is Monday-based (Monday == 0). A full week sums to 1.0.
type weekShares struct {
	grid [7][24]float64
}

// Traffic is the recurring weekly demand model. It assumes a static traffic
// distribution across weekdays; holidays and special days are not considered.
// Read-only after loading, shared by reference across all bidders.
type Traffic struct {
	regions map[int64]*weekShares
}

// NewTraffic returns an empty traffic model. Populate it with AddShare or
// load it from a traffic-share CSV via LoadTraffic.
func NewTraffic() *Traffic {
	return &Traffic{regions: make(map[int64]*weekShares)}
}

// AddShare records the traffic-share fraction for one (region, dow, hour)
// slot. dow is 1-based with Monday == 1, matching the input table.
func (tr *Traffic) AddShare(regionID int64, dow int, hour int, share float64) {
	w, ok := tr.regions[regionID]
	if !ok {
		w = &weekShares{}
		tr.regions[regionID] = w
	}
	w.grid[dow-1][hour] += share
}

// weekdayHour maps a unix timestamp to its Monday-based weekday and hour.
func weekdayHour(ts int64) (int, int) {
	t := time.Unix(ts, 0).UTC()
	return (int(t.Weekday()) + 6) % 7, t.Hour()
}

// Share returns the fraction of one recurring week's traffic falling in
// [start, end) for the region, with hourly precision. A two-week period
// yields 2.0; a full Monday yields Monday's share of the week.
func (tr *Traffic) Share(regionID int64, start, end int64) float64 {
	w, ok := tr.regions[regionID]
	if !ok {
		w, ok = tr.regions[DefaultRegionID]
		if !ok {
			return 0
		}
	}

	share := 0.0
	for end-start > weekSeconds {
		share += 1.0
		end -= weekSeconds
	}
	if end-start == weekSeconds {
		return share + 1.0
	}

	sw, sh := weekdayHour(start)
	ew, eh := weekdayHour(end)

	if ew >= sw {
		share += w.sumBetween(sw, sh, ew, eh)
	} else {
		// The residual interval wraps the end of the week: sum the tail of
		// the first week and the head of the next separately.
		share += w.sumFrom(sw, sh)
		share += w.sumUntil(ew, eh)
	}
	return share
}

// sumBetween sums slots from (sw, sh) inclusive to (ew, eh) exclusive,
// within one week where ew >= sw.
func (w *weekShares) sumBetween(sw, sh, ew, eh int) float64 {
	total := 0.0
	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			afterStart := d > sw || (d == sw && h >= sh)
			beforeEnd := d < ew || (d == ew && h < eh)
			if afterStart && beforeEnd {
				total += w.grid[d][h]
			}
		}
	}
	return total
}

// sumFrom sums slots from (sw, sh) inclusive to the end of the week.
func (w *weekShares) sumFrom(sw, sh int) float64 {
	total := 0.0
	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			if d > sw || (d == sw && h >= sh) {
				total += w.grid[d][h]
			}
		}
	}
	return total
}

// sumUntil sums slots from the start of the week to (ew, eh) exclusive.
func (w *weekShares) sumUntil(ew, eh int) float64 {
	total := 0.0
	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			if d < ew || (d == ew && h < eh) {
				total += w.grid[d][h]
			}
		}
	}
	return total
}
