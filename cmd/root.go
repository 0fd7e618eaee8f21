package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/katyanaveka/BAT/sim"
)

var (
	// CLI flags for the batch check
	campaignsPath  string  // Campaigns input CSV
	statsPath      string  // Historical auction statistics CSV
	trafficPath    string  // Weekly traffic-share CSV
	bidderName     string  // Bidding strategy name
	auctionMode    string  // Auction settlement rule: VCG or FPA
	cohortMode     bool    // Share lagged cohort aggregates across campaigns
	outputPath     string  // Optional history CSV output
	paramsPath     string  // Optional strategy-parameter YAML
	meanClickPrice float64 // Mean click price sizing the desired-clicks target
	seed           int64   // Seed for the sampling-skip randomness
	logLevel       string  // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "bat",
	Short: "Backtester for budget-pacing bidding strategies",
}

// runCmd backtests one strategy across every campaign of the input table
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bidding backtest",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		params, err := LoadParams(paramsPath)
		if err != nil {
			logrus.Fatalf("unable to read strategy params: %v", err)
		}
		params.Seed = seed

		logrus.Infof("Starting backtest with bidder=%s, auction=%s, cohort=%v",
			bidderName, auctionMode, cohortMode)

		report, err := sim.RunCheck(sim.CheckConfig{
			BidderName:     bidderName,
			Params:         params,
			CampaignsPath:  campaignsPath,
			StatsPath:      statsPath,
			TrafficPath:    trafficPath,
			AuctionMode:    auctionMode,
			Cohort:         cohortMode,
			MeanClickPrice: meanClickPrice,
			OutputPath:     outputPath,
		})
		if err != nil {
			logrus.Fatalf("Backtest failed: %v", err)
		}
		report.Print()

		logrus.Info("Backtest complete.")
	},
}

// biddersCmd lists the accepted strategy names
var biddersCmd = &cobra.Command{
	Use:   "bidders",
	Short: "List available bidding strategies",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(strings.Join(sim.ValidBidders(), "\n"))
	},
}

func init() {
	runCmd.Flags().StringVar(&campaignsPath, "campaigns", "", "campaigns input CSV")
	runCmd.Flags().StringVar(&statsPath, "stats", "", "historical auction statistics CSV")
	runCmd.Flags().StringVar(&trafficPath, "traffic", "", "weekly traffic-share CSV")
	runCmd.Flags().StringVar(&bidderName, "bidder", sim.BidderLinear, "bidding strategy: "+strings.Join(sim.ValidBidders(), ", "))
	runCmd.Flags().StringVar(&auctionMode, "auction", sim.AuctionVCG, "auction settlement rule: VCG or FPA")
	runCmd.Flags().BoolVar(&cohortMode, "cohort", false, "run campaigns against a shared hour clock with lagged cohort aggregates")
	runCmd.Flags().StringVar(&outputPath, "output", "", "write the concatenated history CSV here")
	runCmd.Flags().StringVar(&paramsPath, "params", "", "strategy-parameter YAML file")
	runCmd.Flags().Float64Var(&meanClickPrice, "mean-click-price", sim.DefaultMeanClickPrice, "mean click price for the desired-clicks target")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "seed for the sampling-skip randomness")
	runCmd.Flags().StringVar(&logLevel, "loglevel", "info", "log level: debug, info, warn, error")

	_ = runCmd.MarkFlagRequired("campaigns")
	_ = runCmd.MarkFlagRequired("stats")
	_ = runCmd.MarkFlagRequired("traffic")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(biddersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
