package sim

import "fmt"

// Campaign is the mutable record of one advertising campaign's progress.
// It is owned and mutated exclusively by the simulation loop; bidders see
// its fields flattened into a BidderInput snapshot.
type Campaign struct {
	ItemID          int64
	CampaignID      int64
	CampaignStart   int64
	CampaignEnd     int64
	InitialBalance  float64
	Balance         float64
	Clicks          float64
	Contacts        float64
	CurrTime        int64
	LocID           int64
	RegionID        int64
	LogicalCategory string
	MicrocatExt     int64

	// Previous-step snapshot, taken at the end of each settled hour.
	PrevTime     int64
	PrevBid      float64
	PrevClicks   float64
	PrevBalance  float64
	PrevContacts float64

	// Campaign-sizing targets, used only for reporting.
	DesiredClicks int64
	DesiredTime   int64 // desired lifetime, in hours

	// Winning marks a step whose realized clicks crossed the winning
	// threshold; T counts such steps. In cohort mode T is the lagged
	// cohort-wide aggregate instead.
	Winning bool
	T       int
}

// CampaignRecord is one row of the campaigns input table.
type CampaignRecord struct {
	ItemID          int64
	CampaignID      int64
	LocID           int64
	RegionID        int64
	LogicalCategory string
	MicrocatExt     int64
	CampaignStart   int64
	CampaignEnd     int64
	AuctionBudget   float64
}

// NewCampaign constructs a Campaign from an input record. The current time
// is floored to the hour grid the statistics table is keyed on.
// meanClickPrice sizes the desired-clicks reporting target.
func NewCampaign(rec CampaignRecord, meanClickPrice float64) (*Campaign, error) {
	if rec.CampaignStart >= rec.CampaignEnd {
		return nil, fmt.Errorf("campaign %d: start %d is not before end %d",
			rec.CampaignID, rec.CampaignStart, rec.CampaignEnd)
	}
	if rec.AuctionBudget <= 0 {
		return nil, fmt.Errorf("campaign %d: auction budget must be positive, got %v",
			rec.CampaignID, rec.AuctionBudget)
	}

	desiredClicks := int64(rec.AuctionBudget / meanClickPrice)
	if desiredClicks < 1 {
		desiredClicks = 1
	}

	return &Campaign{
		ItemID:          rec.ItemID,
		CampaignID:      rec.CampaignID,
		LocID:           rec.LocID,
		RegionID:        rec.RegionID,
		LogicalCategory: rec.LogicalCategory,
		MicrocatExt:     rec.MicrocatExt,
		CampaignStart:   rec.CampaignStart,
		CampaignEnd:     rec.CampaignEnd,
		InitialBalance:  rec.AuctionBudget,
		Balance:         rec.AuctionBudget,
		CurrTime:        rec.CampaignStart / HourSeconds * HourSeconds,
		PrevTime:        rec.CampaignStart,
		PrevBalance:     rec.AuctionBudget,
		DesiredClicks:   desiredClicks,
		DesiredTime:     (rec.CampaignEnd - rec.CampaignStart) / HourSeconds,
	}, nil
}

// StartHour is the campaign's start hour of day (0..23), the cohort key in
// multi-campaign mode.
func (c *Campaign) StartHour() int {
	_, hour := weekdayHour(c.CampaignStart)
	return hour
}
