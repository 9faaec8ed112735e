package universe

import "sort"

// Curated symbol groups used to assemble per-tier scan universes.
var (
	MegaCapTech = []string{
		"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA",
		"AMD", "AVGO", "ORCL", "CRM", "ADBE", "NFLX", "INTC",
	}

	MajorETFs = []string{
		"SPY", "QQQ", "IWM", "DIA", "XLK", "XLF", "XLE", "SMH",
	}

	HighMomentum = []string{
		"PLTR", "COIN", "CRWD", "SNOW", "NET", "DDOG", "SHOP",
		"SQ", "ROKU", "MARA", "RIOT", "SOFI",
	}

	LargeCapValue = []string{
		"BRK.B", "JPM", "V", "MA", "UNH", "JNJ", "XOM", "CVX",
		"PG", "KO", "WMT", "HD", "BAC", "DIS",
	}
)

// priority ranks symbols for quota-constrained scans. Anything not
// listed scans at the default rank.
var priority = map[string]int{
	"AAPL": 100, "MSFT": 100, "GOOGL": 100, "AMZN": 100,
	"NVDA": 100, "META": 100, "TSLA": 100,
	"SPY": 95, "QQQ": 95,
	"IWM": 90, "DIA": 90,
	"AMD":  85,
	"INTC": 80, "AVGO": 80, "NFLX": 80,
	"ORCL": 75, "COIN": 75, "PLTR": 75,
	"CRWD": 70,
}

const defaultPriority = 50

// Prioritize orders the symbols by scan priority, highest first, and
// trims to at most max entries. Ties break alphabetically so a given
// universe always scans in a stable order. max <= 0 means no trim.
func Prioritize(symbols []string, max int) []string {
	ordered := make([]string, len(symbols))
	copy(ordered, symbols)

	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := rank(ordered[i]), rank(ordered[j])
		if pi != pj {
			return pi > pj
		}
		return ordered[i] < ordered[j]
	})

	if max > 0 && len(ordered) > max {
		ordered = ordered[:max]
	}
	return ordered
}

func rank(symbol string) int {
	if p, ok := priority[symbol]; ok {
		return p
	}
	return defaultPriority
}

// Merge joins symbol groups, dropping duplicates while preserving the
// first occurrence order.
func Merge(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, group := range groups {
		for _, sym := range group {
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	return out
}
