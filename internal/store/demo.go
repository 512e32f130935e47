package store

import (
	"math/rand"
	"time"

	"papertrade-dash/internal/common"
)

// demoSeed keeps the demo equity curve stable across renders.
const demoSeed = 42

// DemoEquitySeries generates a deterministic random-walk equity curve for
// previewing the dashboard before any paper trading has run.
func DemoEquitySeries(days int, initialCapital float64) []EquityPoint {
	if days <= 0 {
		days = 60
	}

	rng := rand.New(rand.NewSource(demoSeed))
	start := time.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	series := make([]EquityPoint, 0, days)
	equity := initialCapital
	for i := 0; i < days; i++ {
		if i > 0 {
			// Daily returns drawn from N(0.1%, 1.5%)
			equity *= 1 + (rng.NormFloat64()*0.015 + 0.001)
		}
		series = append(series, EquityPoint{
			Date:   start.AddDate(0, 0, i),
			Equity: equity,
		})
	}
	return series
}

// DemoTrades returns a small canned trade history with two winners and
// one loser, enough to populate every trade statistic.
func DemoTrades() []Trade {
	day := func(s string) time.Time {
		t, _ := time.Parse(common.DateFormat, s)
		return t
	}

	return []Trade{
		{Date: day("2025-12-05"), Symbol: "2330.TW", Action: common.ActionBuy, Quantity: 100, Price: 580},
		{Date: day("2025-12-15"), Symbol: "2330.TW", Action: common.ActionSell, Quantity: 100, Price: 610, PnL: 3000},
		{Date: day("2025-12-20"), Symbol: "2330.TW", Action: common.ActionBuy, Quantity: 120, Price: 595},
		{Date: day("2026-01-05"), Symbol: "2330.TW", Action: common.ActionSell, Quantity: 120, Price: 575, PnL: -2400},
		{Date: day("2026-01-10"), Symbol: "2330.TW", Action: common.ActionBuy, Quantity: 150, Price: 560},
		{Date: day("2026-01-20"), Symbol: "2330.TW", Action: common.ActionSell, Quantity: 150, Price: 590, PnL: 4500},
		{Date: day("2026-01-25"), Symbol: "2330.TW", Action: common.ActionBuy, Quantity: 130, Price: 585},
	}
}
