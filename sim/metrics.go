package sim

import (
	"fmt"
	"math"
)

// CampaignSummary condenses one campaign's history into the per-campaign
// arrays the scoring formulas consume.
type CampaignSummary struct {
	CampaignID     int64
	StartTime      int64
	EndTime        int64
	RegionID       int64
	Clicks         float64
	InitialBalance float64
	DesiredClicks  int64
	SpendHistory   []float64
	ClicksHistory  []float64
}

// Summarize condenses per-campaign histories for scoring. Empty histories
// are skipped.
func Summarize(histories []*History) []CampaignSummary {
	summaries := make([]CampaignSummary, 0, len(histories))
	for _, h := range histories {
		rows := h.Rows()
		if len(rows) == 0 {
			continue
		}
		first := rows[0]
		s := CampaignSummary{
			CampaignID:     first.CampaignID,
			StartTime:      first.CampaignStart,
			EndTime:        first.CampaignEnd,
			RegionID:       first.RegionID,
			InitialBalance: first.InitialBalance,
			DesiredClicks:  first.DesiredClicks,
		}
		for _, r := range rows {
			s.SpendHistory = append(s.SpendHistory, r.Spend)
			s.ClicksHistory = append(s.ClicksHistory, r.StepClicks)
			if r.Clicks > s.Clicks {
				s.Clicks = r.Clicks
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// Score is the metric tuple of one batch check.
type Score struct {
	CPCRelativity float64
	RMSE          float64
	ClicksSum     float64
	Quickspend    float64
}

func (s Score) String() string {
	return fmt.Sprintf("cpc_rel=%.4f rmse=%.4f clicks_sum=%.2f quickspend=%.4f",
		s.CPCRelativity, s.RMSE, s.ClicksSum, s.Quickspend)
}

// CompileMetrics computes the score tuple over per-campaign histories.
func CompileMetrics(histories []*History, traffic *Traffic) Score {
	summaries := Summarize(histories)
	return Score{
		CPCRelativity: cpcRelativity(summaries),
		RMSE:          rmseWithTraffic(summaries, traffic),
		ClicksSum:     clicksSum(summaries),
		Quickspend:    quickspendFraction(summaries),
	}
}

// clicksSum is the total realized clicks across campaigns.
func clicksSum(summaries []CampaignSummary) float64 {
	total := 0.0
	for _, s := range summaries {
		total += s.Clicks
	}
	return total
}

// padWithZeros extends xs with zeros to the target length.
func padWithZeros(xs []float64, target int) []float64 {
	if len(xs) >= target {
		return xs
	}
	padded := make([]float64, target)
	copy(padded, xs)
	return padded
}

// rmseWithTraffic scores how closely each campaign's hourly spend tracked
// the ideal traffic-weighted spend curve, normalized by the uniform
// per-hour budget, averaged over campaigns.
func rmseWithTraffic(summaries []CampaignSummary, traffic *Traffic) float64 {
	if len(summaries) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range summaries {
		duration := int((s.EndTime-s.StartTime)/HourSeconds) + 1
		spend := padWithZeros(s.SpendHistory, duration)

		trafficCampaign := traffic.Share(s.RegionID, s.StartTime, s.EndTime)
		sum := 0.0
		norm := s.InitialBalance / float64(duration)
		for i := 0; i < duration; i++ {
			hour := s.StartTime + int64(i)*HourSeconds
			share := 0.0
			if trafficCampaign != 0 {
				share = traffic.Share(s.RegionID, hour, hour+HourSeconds) / trafficCampaign
			}
			ideal := s.InitialBalance * share
			diff := ideal - spend[i]
			sum += diff * diff / (norm * norm)
		}
		total += math.Sqrt(sum / float64(duration))
	}
	return total / float64(len(summaries))
}

// quickspendFraction is the share of campaigns that spent at least 90% of
// their budget within the first half of their duration.
func quickspendFraction(summaries []CampaignSummary) float64 {
	if len(summaries) == 0 {
		return 0
	}
	quick := 0
	for _, s := range summaries {
		half := 0.0
		for _, v := range s.SpendHistory[:len(s.SpendHistory)/2] {
			half += v
		}
		if half > s.InitialBalance*0.9 {
			quick++
		}
	}
	return float64(quick) / float64(len(summaries))
}

// cpcRelativity averages each campaign's per-hour cost per click over the
// longest run's padded length. Campaigns with effectively no clicks get a
// large penalty instead of an infinite CPC.
func cpcRelativity(summaries []CampaignSummary) float64 {
	const (
		clicksThreshold = 1e-3
		penalty         = 1e4
	)
	if len(summaries) == 0 {
		return 0
	}

	maxLen := 0
	for _, s := range summaries {
		if len(s.SpendHistory) > maxLen {
			maxLen = len(s.SpendHistory)
		}
	}

	total := 0.0
	for _, s := range summaries {
		spend := padWithZeros(s.SpendHistory, maxLen)
		clicks := padWithZeros(s.ClicksHistory, maxLen)

		clicksTotal := 0.0
		cpcSum := 0.0
		for i := 0; i < maxLen; i++ {
			clicksTotal += clicks[i]
			if clicks[i] != 0 {
				cpcSum += spend[i] / clicks[i]
			}
		}
		campaignCPC := cpcSum / float64(maxLen)
		if clicksTotal < clicksThreshold {
			campaignCPC += penalty
		}
		total += campaignCPC
	}
	return total / float64(len(summaries))
}
