package sim

// Shared fixtures for the sim package tests.

// mondayMidnight is 2024-01-01 00:00:00 UTC, a Monday, so campaign windows
// in tests line up with the start of the traffic week.
const mondayMidnight int64 = 1704067200

// uniformTraffic returns a traffic model where every hour slot of the week
// carries the same share, for region 1 and the default fallback region.
func uniformTraffic() *Traffic {
	tr := NewTraffic()
	for _, region := range []int64{1, DefaultRegionID} {
		for dow := 1; dow <= 7; dow++ {
			for hour := 0; hour < 24; hour++ {
				tr.AddShare(region, dow, hour, 1.0/(7*24))
			}
		}
	}
	return tr
}

// testCampaign returns a 24-hour campaign starting at mondayMidnight with
// the given budget.
func testCampaign(budget float64) *Campaign {
	c, err := NewCampaign(CampaignRecord{
		CampaignID:    7,
		RegionID:      1,
		CampaignStart: mondayMidnight,
		CampaignEnd:   mondayMidnight + 24*HourSeconds,
		AuctionBudget: budget,
	}, DefaultMeanClickPrice)
	if err != nil {
		panic(err)
	}
	return c
}

// singleBinStats returns a statistics table where bin 0 (price 1) wins every
// hour of the campaign window with the given per-hour surpluses.
func singleBinStats(campaignID int64, start int64, hours int, winBid, clicks, contacts float64) *StatsTable {
	stats := NewStatsTable()
	for h := 0; h < hours; h++ {
		stats.Add(StatsRow{
			CampaignID:      campaignID,
			Period:          start + int64(h)*HourSeconds,
			PriceBin:        0,
			WinBidSurplus:   winBid,
			ClicksSurplus:   clicks,
			ContactsSurplus: contacts,
			CTRPredict:      0.01,
			CVRPredict:      0.005,
		})
	}
	return stats
}

// fractionBidder always bids a fixed fraction of the initial balance, the
// cold-start rule applied on every step.
type fractionBidder struct {
	coef float64
}

func (b *fractionBidder) PlaceBid(input BidderInput, history *History) float64 {
	return input.InitialBalance * b.coef
}

// recordingBidder captures the aggregate inputs it observes on every call.
type recordingBidder struct {
	bid      float64
	seenT    []int
	seenCVRs [][]float64
}

func (b *recordingBidder) PlaceBid(input BidderInput, history *History) float64 {
	b.seenT = append(b.seenT, input.T)
	cvrs := make([]float64, len(input.CVRList))
	copy(cvrs, input.CVRList)
	b.seenCVRs = append(b.seenCVRs, cvrs)
	return b.bid
}
