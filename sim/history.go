package sim

// Record is one settled hour of one campaign: the campaign snapshot at
// settlement time plus the per-step settlement outputs.
type Record struct {
	CurrTime        int64
	CampaignStart   int64
	CampaignEnd     int64
	CampaignID      int64
	Balance         float64
	InitialBalance  float64
	Clicks          float64
	Contacts        float64
	Bid             float64
	LocID           int64
	RegionID        int64
	LogicalCategory string
	MicrocatExt     int64
	PrevTime        int64
	DesiredClicks   int64
	DesiredTime     int64

	// Per-step settlement outputs, pre-clip.
	Spend      float64
	StepClicks float64
	// Running mean CPC over the campaign so far, CTR-normalized.
	CPC float64
}

// History is the append-only sequence of settled steps for one campaign.
// It is the only data a bidder may read about its own past: the loop appends
// one record per settled hour, past entries are never mutated, and a History
// never outlives or crosses its campaign.
type History struct {
	rows []Record
}

// NewHistory returns an empty history for one campaign run.
func NewHistory() *History {
	return &History{}
}

// Add appends one settled step. spend and clicks are the raw settlement
// outputs for the hour; the campaign carries the post-clip accumulators.
func (h *History) Add(c *Campaign, bid, spend, clicks, cpc float64) {
	h.rows = append(h.rows, Record{
		CurrTime:        c.CurrTime,
		CampaignStart:   c.CampaignStart,
		CampaignEnd:     c.CampaignEnd,
		CampaignID:      c.CampaignID,
		Balance:         c.Balance,
		InitialBalance:  c.InitialBalance,
		Clicks:          c.Clicks,
		Contacts:        c.Contacts,
		Bid:             bid,
		LocID:           c.LocID,
		RegionID:        c.RegionID,
		LogicalCategory: c.LogicalCategory,
		MicrocatExt:     c.MicrocatExt,
		PrevTime:        c.PrevTime,
		DesiredClicks:   c.DesiredClicks,
		DesiredTime:     c.DesiredTime,
		Spend:           spend,
		StepClicks:      clicks,
		CPC:             cpc,
	})
}

// Len returns the number of settled steps so far.
func (h *History) Len() int {
	return len(h.rows)
}

// Rows exposes the settled steps in order. Callers must treat the slice as
// read-only.
func (h *History) Rows() []Record {
	return h.rows
}

// Last returns the most recent record. It panics on an empty history;
// callers gate on Len() for the cold-start case.
func (h *History) Last() Record {
	return h.rows[len(h.rows)-1]
}
