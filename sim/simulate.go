package sim

import "fmt"

// balanceEpsilon is the budget-exhaustion threshold: a campaign whose
// balance drops below it terminates.
const balanceEpsilon = 1e-5

// winningClicksThreshold marks a step as winning when its realized clicks
// exceed it.
const winningClicksThreshold = 0.1

// CampaignInstance ties one campaign to its bidder and history, plus the
// rate-estimate bookkeeping the loop maintains between steps. Bidder state
// and History never outlive the instance.
type CampaignInstance struct {
	Campaign *Campaign
	Bidder   Bidder
	History  *History

	// Rate estimates from the nearest non-empty statistics window,
	// refreshed after every settled step.
	ctr, cvr float64
	// Rate curves captured at the first observed window, for the LP
	// sub-solves.
	curves *RateCurves
	// Own conversion-rate samples, the single-campaign stand-in for the
	// cohort's cvr list.
	cvrList []float64

	cpcSum float64
	cpcN   int
	failed bool
}

// NewCampaignInstance binds a campaign to a freshly constructed bidder.
func NewCampaignInstance(campaign *Campaign, bidder Bidder) *CampaignInstance {
	return &CampaignInstance{
		Campaign: campaign,
		Bidder:   bidder,
		History:  NewHistory(),
	}
}

// Active reports whether the campaign can still step: inside its window,
// budget not exhausted, and not quarantined by an earlier error.
func (ci *CampaignInstance) Active() bool {
	c := ci.Campaign
	return !ci.failed && c.CurrTime < c.CampaignEnd && c.Balance >= balanceEpsilon
}

// bidderInput flattens the campaign state and the market signals into the
// per-step snapshot handed to the bidder.
func (ci *CampaignInstance) bidderInput(T int, cvrList []float64) BidderInput {
	c := ci.Campaign
	return BidderInput{
		ItemID:          c.ItemID,
		CampaignID:      c.CampaignID,
		LocID:           c.LocID,
		RegionID:        c.RegionID,
		LogicalCategory: c.LogicalCategory,
		MicrocatExt:     c.MicrocatExt,
		Balance:         c.Balance,
		InitialBalance:  c.InitialBalance,
		Clicks:          c.Clicks,
		CampaignStart:   c.CampaignStart,
		CampaignEnd:     c.CampaignEnd,
		CurrTime:        c.CurrTime,
		PrevBalance:     c.PrevBalance,
		PrevBid:         c.PrevBid,
		PrevClicks:      c.PrevClicks,
		PrevContacts:    c.PrevContacts,
		PrevTime:        c.PrevTime,
		DesiredClicks:   c.DesiredClicks,
		DesiredTime:     c.DesiredTime,
		PrevCTR:         ci.ctr,
		PrevCVR:         ci.cvr,
		Curves:          ci.curves,
		Winning:         c.Winning,
		T:               T,
		CVRList:         cvrList,
	}
}

// step executes one settled hour: bid, settle, clip to the remaining
// budget, update the campaign, refresh rate estimates from the nearest
// non-empty statistics window, and append the history record. T and cvrList
// are the aggregates exposed to the bidder; the cohort loop passes lagged
// cohort-wide values, the single-campaign loop the instance's own.
func (ci *CampaignInstance) step(stats *StatsTable, mode string, T int, cvrList []float64) error {
	c := ci.Campaign

	bid := ci.Bidder.PlaceBid(ci.bidderInput(T, cvrList), ci.History)

	window := stats.Window(c.CampaignID, c.CurrTime, c.CurrTime+HourSeconds)
	outcome, err := Settle(window, bid, mode)
	if err != nil {
		return fmt.Errorf("campaign %d at %d: %w", c.CampaignID, c.CurrTime, err)
	}
	spend, clicks := outcome.Spent, outcome.Clicks

	// CTR-normalized cost per click, skipping the start step and
	// click-less hours.
	if ci.ctr != 0 && clicks != 0 {
		ci.cpcSum += (spend / clicks) / ci.ctr
		ci.cpcN++
	}

	// Spend no more than remains: scale all settlement outputs down when
	// the raw spend exceeds the balance.
	coef := 1.0
	if outcome.Spent > c.Balance {
		coef = c.Balance / outcome.Spent
	}

	c.PrevBalance = c.Balance
	c.PrevClicks = c.Clicks
	c.PrevTime = c.CurrTime
	c.PrevBid = bid
	c.Balance -= outcome.Spent * coef
	c.Clicks += outcome.Clicks * coef
	c.Contacts += outcome.Contacts * coef
	c.CurrTime += HourSeconds

	// Rate estimates for the next step, from the nearest window with logs.
	if w := stats.NearestWindow(c.CampaignID, c.CurrTime); len(w) > 0 {
		if ci.curves == nil {
			ci.curves = CurvesFrom(w)
		}
		ci.ctr, ci.cvr = RatesAt(w, bid)
		ci.cvrList = append(ci.cvrList, ci.cvr)
	}

	if clicks > winningClicksThreshold {
		c.Winning = true
		c.T++
	} else {
		c.Winning = false
	}

	cpc := 0.0
	if ci.cpcN > 0 {
		cpc = ci.cpcSum / float64(ci.cpcN)
	}
	ci.History.Add(c, bid, spend, clicks, cpc)
	return nil
}

// Simulator drives one campaign hour by hour until its window closes or its
// budget is exhausted.
type Simulator struct {
	inst  *CampaignInstance
	stats *StatsTable
	mode  string
}

// NewSimulator creates a single-campaign simulator. The auction mode is
// validated up front.
func NewSimulator(campaign *Campaign, bidder Bidder, stats *StatsTable, mode string) (*Simulator, error) {
	if !ValidAuctionMode(mode) {
		return nil, fmt.Errorf("auction mode must be %q or %q, got %q", AuctionVCG, AuctionFPA, mode)
	}
	return &Simulator{
		inst:  NewCampaignInstance(campaign, bidder),
		stats: stats,
		mode:  mode,
	}, nil
}

// Run advances the campaign to termination and returns its history. The
// history accumulated so far is returned even on error.
func (s *Simulator) Run() (*History, error) {
	for s.inst.Active() {
		if err := s.inst.step(s.stats, s.mode, s.inst.Campaign.T, s.inst.cvrList); err != nil {
			return s.inst.History, err
		}
	}
	return s.inst.History, nil
}
