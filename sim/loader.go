package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// csvTable wraps one parsed CSV file with header-indexed field access.
type csvTable struct {
	path   string
	header map[string]int
	rows   [][]string
}

func readCSVTable(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty file", path)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[name] = i
	}
	return &csvTable{path: path, header: header, rows: records[1:]}, nil
}

func (t *csvTable) require(columns ...string) error {
	for _, col := range columns {
		if _, ok := t.header[col]; !ok {
			return fmt.Errorf("%s: missing column %q", t.path, col)
		}
	}
	return nil
}

func (t *csvTable) str(row []string, col string) string {
	return row[t.header[col]]
}

func (t *csvTable) int(row []string, col string) (int64, error) {
	v, err := strconv.ParseFloat(row[t.header[col]], 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", col, err)
	}
	return int64(v), nil
}

func (t *csvTable) float(row []string, col string) (float64, error) {
	v, err := strconv.ParseFloat(row[t.header[col]], 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", col, err)
	}
	return v, nil
}

// LoadCampaigns reads the campaigns input table. Rows that fail to parse
// are logged and skipped.
func LoadCampaigns(path string) ([]CampaignRecord, error) {
	table, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}
	if err := table.require("item_id", "campaign_id", "loc_id", "region_id",
		"logical_category", "microcat_ext", "campaign_start", "campaign_end",
		"auction_budget"); err != nil {
		return nil, err
	}

	records := make([]CampaignRecord, 0, len(table.rows))
	for i, row := range table.rows {
		rec := CampaignRecord{LogicalCategory: table.str(row, "logical_category")}
		fields := []struct {
			col string
			dst *int64
		}{
			{"item_id", &rec.ItemID},
			{"campaign_id", &rec.CampaignID},
			{"loc_id", &rec.LocID},
			{"region_id", &rec.RegionID},
			{"microcat_ext", &rec.MicrocatExt},
			{"campaign_start", &rec.CampaignStart},
			{"campaign_end", &rec.CampaignEnd},
		}
		for _, f := range fields {
			if *f.dst, err = table.int(row, f.col); err != nil {
				break
			}
		}
		if err == nil {
			rec.AuctionBudget, err = table.float(row, "auction_budget")
		}
		if err != nil {
			logrus.Warnf("%s: skipping row %d: %v", path, i+2, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadStats reads the historical auction statistics table. The predicted
// CTR column may carry either its plain or noised variant.
func LoadStats(path string) (*StatsTable, error) {
	table, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}
	if err := table.require("campaign_id", "period", "contact_price_bin",
		"AuctionWinBidSurplus", "AuctionVisibilitySurplus",
		"AuctionClicksSurplus", "AuctionContactsSurplus", "CRPredicts"); err != nil {
		return nil, err
	}
	ctrCol := "CTRPredicts"
	if _, ok := table.header[ctrCol]; !ok {
		ctrCol = "CTRPredicts_noised"
		if _, ok := table.header[ctrCol]; !ok {
			return nil, fmt.Errorf("%s: missing column %q (or its noised variant)", path, "CTRPredicts")
		}
	}

	stats := NewStatsTable()
	for i, row := range table.rows {
		var stRow StatsRow
		var bin int64
		fields := []struct {
			col string
			dst *float64
		}{
			{"AuctionWinBidSurplus", &stRow.WinBidSurplus},
			{"AuctionVisibilitySurplus", &stRow.VisibilitySurplus},
			{"AuctionClicksSurplus", &stRow.ClicksSurplus},
			{"AuctionContactsSurplus", &stRow.ContactsSurplus},
			{ctrCol, &stRow.CTRPredict},
			{"CRPredicts", &stRow.CVRPredict},
		}
		stRow.CampaignID, err = table.int(row, "campaign_id")
		if err == nil {
			stRow.Period, err = table.int(row, "period")
		}
		if err == nil {
			if bin, err = table.int(row, "contact_price_bin"); err == nil {
				stRow.PriceBin = int(bin)
			}
		}
		for _, f := range fields {
			if err != nil {
				break
			}
			*f.dst, err = table.float(row, f.col)
		}
		if err != nil {
			logrus.Warnf("%s: skipping row %d: %v", path, i+2, err)
			continue
		}
		stats.Add(stRow)
	}
	return stats, nil
}

// LoadTraffic reads the weekly traffic-share table into a Traffic model.
func LoadTraffic(path string) (*Traffic, error) {
	table, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}
	if err := table.require("region_id", "dow", "hour", "traffic_share"); err != nil {
		return nil, err
	}

	traffic := NewTraffic()
	for i, row := range table.rows {
		regionID, err := table.int(row, "region_id")
		var dow, hour int64
		var share float64
		if err == nil {
			dow, err = table.int(row, "dow")
		}
		if err == nil {
			hour, err = table.int(row, "hour")
		}
		if err == nil {
			share, err = table.float(row, "traffic_share")
		}
		if err == nil && (dow < 1 || dow > 7 || hour < 0 || hour > 23) {
			err = fmt.Errorf("dow %d / hour %d out of range", dow, hour)
		}
		if err != nil {
			logrus.Warnf("%s: skipping row %d: %v", path, i+2, err)
			continue
		}
		traffic.AddShare(regionID, int(dow), int(hour), share)
	}
	return traffic, nil
}
