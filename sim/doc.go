// Package sim provides the core backtesting engine for budget-pacing
// bidding strategies.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - campaign.go: Campaign state record and its per-step snapshot fields
//   - simulate.go: The hourly loop (bid -> settle -> clip -> update -> log)
//   - cohort.go: The multi-campaign loop with one-hour-lagged cohort aggregates
//
// # Architecture
//
// The engine replays historical per-hour auction outcome curves against a
// pluggable bidding strategy:
//   - traffic.go: recurring weekly demand model shared by the controllers
//   - pricing.go: geometric price ladder used for bid discretization
//   - stats.go / auction.go: statistics windows and VCG/FPA settlement
//   - bidder.go + bidder_*.go: the strategy family behind one interface
//   - metrics.go / check.go: score compilation and the batch-check harness
//
// # Key Interfaces
//
// The extension point is a single-method interface:
//   - Bidder: produce one bid per simulated hour from the campaign snapshot
//     and its append-only History
//
// Strategies are selected by name through NewBidder (bidder.go); each
// variant owns private numeric state whose lifetime equals one campaign run.
package sim
