package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMeanClickPrice sizes the desired-clicks reporting target when the
// caller does not override it.
const DefaultMeanClickPrice = 5.0

// CheckConfig configures one batch check: which strategy to test, the three
// input tables, and how to run the campaigns.
type CheckConfig struct {
	BidderName     string
	Params         Params
	CampaignsPath  string
	StatsPath      string
	TrafficPath    string
	AuctionMode    string
	Cohort         bool
	MeanClickPrice float64
	// OutputPath, when set, receives the concatenated histories as CSV.
	OutputPath string
}

// CheckReport is the outcome of one batch check.
type CheckReport struct {
	Status       string
	StatusMsg    string
	OverallSec   float64
	InferenceSec float64
	Score        Score
	Histories    []*History
}

// RunCheck simulates every campaign of the input table with a fresh
// instance of the named strategy and compiles the score tuple. A campaign
// that fails mid-run keeps its partial history and does not abort the
// check.
func RunCheck(cfg CheckConfig) (*CheckReport, error) {
	overallStart := time.Now()

	if cfg.MeanClickPrice == 0 {
		cfg.MeanClickPrice = DefaultMeanClickPrice
	}
	if !ValidAuctionMode(cfg.AuctionMode) {
		return nil, fmt.Errorf("auction mode must be %q or %q, got %q",
			AuctionVCG, AuctionFPA, cfg.AuctionMode)
	}

	traffic, err := LoadTraffic(cfg.TrafficPath)
	if err != nil {
		return nil, err
	}
	records, err := LoadCampaigns(cfg.CampaignsPath)
	if err != nil {
		return nil, err
	}
	stats, err := LoadStats(cfg.StatsPath)
	if err != nil {
		return nil, err
	}

	// Validate the strategy configuration before touching any campaign.
	if _, err := NewBidder(cfg.BidderName, traffic, cfg.Params); err != nil {
		return nil, err
	}

	inferenceStart := time.Now()
	var histories []*History
	if cfg.Cohort {
		histories, err = runCohortCheck(cfg, traffic, records, stats)
	} else {
		histories, err = runSequentialCheck(cfg, traffic, records, stats)
	}
	if err != nil {
		return nil, err
	}
	inferenceSec := time.Since(inferenceStart).Seconds()

	report := &CheckReport{
		Status:       "OK!",
		OverallSec:   time.Since(overallStart).Seconds(),
		InferenceSec: inferenceSec,
		Score:        CompileMetrics(histories, traffic),
		Histories:    histories,
	}
	if cfg.OutputPath != "" {
		if err := WriteHistoriesCSV(cfg.OutputPath, histories); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// runSequentialCheck runs each campaign to termination on its own, with no
// shared market statistics.
func runSequentialCheck(cfg CheckConfig, traffic *Traffic, records []CampaignRecord, stats *StatsTable) ([]*History, error) {
	histories := make([]*History, 0, len(records))
	for _, rec := range records {
		campaign, err := NewCampaign(rec, cfg.MeanClickPrice)
		if err != nil {
			logrus.Warnf("check: skipping campaign: %v", err)
			continue
		}
		bidder, err := NewBidder(cfg.BidderName, traffic, cfg.Params)
		if err != nil {
			return nil, err
		}
		sim, err := NewSimulator(campaign, bidder, stats, cfg.AuctionMode)
		if err != nil {
			return nil, err
		}
		history, err := sim.Run()
		if err != nil {
			logrus.Errorf("check: campaign %d failed mid-run, keeping partial history: %v",
				campaign.CampaignID, err)
		}
		histories = append(histories, history)
	}
	return histories, nil
}

// runCohortCheck runs all campaigns against the shared global hour clock
// with lagged cohort aggregates.
func runCohortCheck(cfg CheckConfig, traffic *Traffic, records []CampaignRecord, stats *StatsTable) ([]*History, error) {
	cohortSim, err := NewCohortSimulator(stats, cfg.AuctionMode)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		campaign, err := NewCampaign(rec, cfg.MeanClickPrice)
		if err != nil {
			logrus.Warnf("check: skipping campaign: %v", err)
			continue
		}
		bidder, err := NewBidder(cfg.BidderName, traffic, cfg.Params)
		if err != nil {
			return nil, err
		}
		cohortSim.Add(NewCampaignInstance(campaign, bidder))
	}
	if err := cohortSim.Run(); err != nil {
		return nil, err
	}
	return cohortSim.Histories(), nil
}

var historyCSVHeader = []string{
	"curr_timestamp", "campaign_start_time", "campaign_end_time", "campaign_id",
	"balance", "initial_balance", "clicks", "contacts", "bid",
	"loc_id", "region_id", "logical_category", "microcat_ext",
	"prev_timestamp", "desired_clicks", "desired_time",
	"spend", "clicks_step", "cpc",
}

// WriteHistoriesCSV flattens the histories into one CSV table, one row per
// settled hour, for the external reporting collaborators.
func WriteHistoriesCSV(path string, histories []*History) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(historyCSVHeader); err != nil {
		return err
	}
	for _, h := range histories {
		for _, r := range h.Rows() {
			row := []string{
				strconv.FormatInt(r.CurrTime, 10),
				strconv.FormatInt(r.CampaignStart, 10),
				strconv.FormatInt(r.CampaignEnd, 10),
				strconv.FormatInt(r.CampaignID, 10),
				formatFloat(r.Balance),
				formatFloat(r.InitialBalance),
				formatFloat(r.Clicks),
				formatFloat(r.Contacts),
				formatFloat(r.Bid),
				strconv.FormatInt(r.LocID, 10),
				strconv.FormatInt(r.RegionID, 10),
				r.LogicalCategory,
				strconv.FormatInt(r.MicrocatExt, 10),
				strconv.FormatInt(r.PrevTime, 10),
				strconv.FormatInt(r.DesiredClicks, 10),
				strconv.FormatInt(r.DesiredTime, 10),
				formatFloat(r.Spend),
				formatFloat(r.StepClicks),
				formatFloat(r.CPC),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Print displays the check outcome at the end of a run.
func (r *CheckReport) Print() {
	fmt.Println("=== Autobidder Check ===")
	fmt.Printf("Status               : %s\n", r.Status)
	fmt.Printf("Campaigns            : %d\n", len(r.Histories))
	fmt.Printf("Clicks Sum           : %.2f\n", r.Score.ClicksSum)
	fmt.Printf("Spend RMSE (traffic) : %.4f\n", r.Score.RMSE)
	fmt.Printf("Quickspend Fraction  : %.4f\n", r.Score.Quickspend)
	fmt.Printf("CPC Relativity       : %.4f\n", r.Score.CPCRelativity)
	fmt.Printf("Inference Time       : %.3fs (overall %.3fs)\n", r.InferenceSec, r.OverallSec)
}
