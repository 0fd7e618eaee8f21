package sim

import "sort"

// StatsRow is one row of the historical auction statistics table: marginal
// surplus columns for a single (campaign, hour, price bin) cell, plus the
// predicted click-through and conversion rates for that bin.
type StatsRow struct {
	CampaignID int64
	Period     int64 // hour-aligned unix seconds
	PriceBin   int

	WinBidSurplus     float64
	VisibilitySurplus float64
	ClicksSurplus     float64
	ContactsSurplus   float64

	CTRPredict float64
	CVRPredict float64
}

// StatsTable holds the historical statistics, keyed by campaign and queried
// by hour window. It is an immutable external input: the core only reads it.
type StatsTable struct {
	byCampaign map[int64][]StatsRow
	sorted     bool
}

// NewStatsTable returns an empty statistics table.
func NewStatsTable() *StatsTable {
	return &StatsTable{byCampaign: make(map[int64][]StatsRow)}
}

// Add appends one statistics row.
func (t *StatsTable) Add(row StatsRow) {
	t.byCampaign[row.CampaignID] = append(t.byCampaign[row.CampaignID], row)
	t.sorted = false
}

func (t *StatsTable) ensureSorted() {
	if t.sorted {
		return
	}
	for _, rows := range t.byCampaign {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })
	}
	t.sorted = true
}

// Window returns the campaign's rows with Period in [from, to).
func (t *StatsTable) Window(campaignID, from, to int64) []StatsRow {
	t.ensureSorted()
	rows := t.byCampaign[campaignID]
	lo := sort.Search(len(rows), func(i int) bool { return rows[i].Period >= from })
	hi := sort.Search(len(rows), func(i int) bool { return rows[i].Period >= to })
	return rows[lo:hi]
}

// NearestWindow returns the one-hour window at ts, or, when that hour has no
// rows, the nearest earlier non-empty window. Returns nil when the campaign
// has no rows before ts+1h at all; the caller keeps its initialized defaults
// in that case.
func (t *StatsTable) NearestWindow(campaignID, ts int64) []StatsRow {
	t.ensureSorted()
	rows := t.byCampaign[campaignID]
	if len(rows) == 0 {
		return nil
	}
	earliest := rows[0].Period
	for from := ts; from+HourSeconds > earliest; from -= HourSeconds {
		if w := t.Window(campaignID, from, from+HourSeconds); len(w) > 0 {
			return w
		}
	}
	return nil
}

// RatesAt estimates the predicted CTR and CVR a bid would face in the given
// window: the rates of the cheapest bin strictly above the bid's bin, or of
// the most expensive recorded bin when the bid clears them all. An empty
// window yields zero rates.
func RatesAt(window []StatsRow, bid float64) (ctr, cvr float64) {
	if len(window) == 0 {
		return 0, 0
	}
	bidBin := PriceToBin(bid)

	targetBin := 0
	found := false
	for _, row := range window {
		if row.PriceBin > bidBin && (!found || row.PriceBin < targetBin) {
			targetBin = row.PriceBin
			found = true
		}
	}
	if !found {
		for i, row := range window {
			if i == 0 || row.PriceBin > targetBin {
				targetBin = row.PriceBin
			}
		}
	}

	for _, row := range window {
		if row.PriceBin != targetBin {
			continue
		}
		if row.CTRPredict > ctr {
			ctr = row.CTRPredict
		}
		if row.CVRPredict > cvr {
			cvr = row.CVRPredict
		}
	}
	return ctr, cvr
}

// RateCurves are the per-bin winning price, CTR and CVR vectors extracted
// from one statistics window, the inputs of the LP and robust sub-solves.
type RateCurves struct {
	WP  []float64
	CTR []float64
	CVR []float64
}

// CurvesFrom extracts the rate curves of a statistics window. Returns nil
// for an empty window.
func CurvesFrom(window []StatsRow) *RateCurves {
	if len(window) == 0 {
		return nil
	}
	curves := &RateCurves{
		WP:  make([]float64, len(window)),
		CTR: make([]float64, len(window)),
		CVR: make([]float64, len(window)),
	}
	for i, row := range window {
		curves.WP[i] = BinToPrice(float64(row.PriceBin))
		curves.CTR[i] = row.CTRPredict
		curves.CVR[i] = row.CVRPredict
	}
	return curves
}
