package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// CohortLifetimeHours is the fixed lifetime every campaign shares in
// multi-campaign mode.
const CohortLifetimeHours = 24

// cohort is the set of campaigns sharing a start hour, together with the
// lagged aggregates exposed to their bidders: T counts the members whose
// previous step won, cvrList holds those members' conversion-rate samples.
type cohort struct {
	startHour int
	members   []*CampaignInstance

	T       int
	cvrList []float64
}

// CohortSimulator drives many campaigns against a single global hour clock,
// grouping them into cohorts by start hour. Within each global hour every
// active cohort steps all of its members using the aggregates computed from
// the previous hour's outcomes, then recomputes them for the next hour —
// a strict one-hour lag, never look-ahead. Aggregates are held per cohort;
// cohorts never observe each other's statistics.
type CohortSimulator struct {
	stats   *StatsTable
	mode    string
	cohorts map[int]*cohort
}

// NewCohortSimulator creates a multi-campaign simulator. The auction mode
// is validated up front.
func NewCohortSimulator(stats *StatsTable, mode string) (*CohortSimulator, error) {
	if !ValidAuctionMode(mode) {
		return nil, fmt.Errorf("auction mode must be %q or %q, got %q", AuctionVCG, AuctionFPA, mode)
	}
	return &CohortSimulator{
		stats:   stats,
		mode:    mode,
		cohorts: make(map[int]*cohort),
	}, nil
}

// Add places a campaign instance into its start-hour cohort.
func (cs *CohortSimulator) Add(inst *CampaignInstance) {
	hour := inst.Campaign.StartHour()
	co, ok := cs.cohorts[hour]
	if !ok {
		co = &cohort{startHour: hour}
		cs.cohorts[hour] = co
	}
	co.members = append(co.members, inst)
}

// Run advances the global hour clock from the earliest cohort's start to
// the latest cohort's end. A member whose step fails is logged and
// quarantined; the rest of its cohort, and all other cohorts, keep running.
func (cs *CohortSimulator) Run() error {
	if len(cs.cohorts) == 0 {
		return fmt.Errorf("cohort simulation: no campaigns added")
	}

	hours := make([]int, 0, len(cs.cohorts))
	for hour := range cs.cohorts {
		hours = append(hours, hour)
	}
	sort.Ints(hours)
	minHour := hours[0]
	maxHour := hours[len(hours)-1] + CohortLifetimeHours

	for hour := minHour; hour <= maxHour; hour++ {
		for _, startHour := range hours {
			co := cs.cohorts[startHour]
			if hour < co.startHour || hour >= co.startHour+CohortLifetimeHours {
				continue
			}
			co.stepAll(cs.stats, cs.mode)
		}
	}
	return nil
}

// stepAll advances every active member one hour using the lagged
// aggregates, then recomputes T and cvrList from this hour's outcomes.
func (co *cohort) stepAll(stats *StatsTable, mode string) {
	laggedT, laggedCVRs := co.T, co.cvrList

	for _, inst := range co.members {
		if !inst.Active() {
			continue
		}
		if err := inst.step(stats, mode, laggedT, laggedCVRs); err != nil {
			logrus.Errorf("cohort %d: quarantining campaign: %v", co.startHour, err)
			inst.failed = true
		}
	}

	co.T = 0
	co.cvrList = nil
	for _, inst := range co.members {
		if inst.Campaign.Winning {
			co.T++
			co.cvrList = append(co.cvrList, inst.cvr)
		}
	}
}

// Histories collects every member campaign's history, in a deterministic
// cohort-then-insertion order.
func (cs *CohortSimulator) Histories() []*History {
	hours := make([]int, 0, len(cs.cohorts))
	for hour := range cs.cohorts {
		hours = append(hours, hour)
	}
	sort.Ints(hours)

	var out []*History
	for _, hour := range hours {
		for _, inst := range cs.cohorts[hour].members {
			out = append(out, inst.History)
		}
	}
	return out
}
