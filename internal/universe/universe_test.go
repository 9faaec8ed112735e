package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrioritizeOrdersByRank(t *testing.T) {
	got := Prioritize([]string{"CRWD", "ZZZZ", "SPY", "AAPL", "AMD"}, 0)
	assert.Equal(t, []string{"AAPL", "SPY", "AMD", "CRWD", "ZZZZ"}, got)
}

func TestPrioritizeTiesBreakAlphabetically(t *testing.T) {
	got := Prioritize([]string{"TSLA", "AAPL", "NVDA"}, 0)
	assert.Equal(t, []string{"AAPL", "NVDA", "TSLA"}, got)
}

func TestPrioritizeTrimsToMax(t *testing.T) {
	got := Prioritize([]string{"ZZZZ", "CRWD", "AAPL", "SPY"}, 2)
	assert.Equal(t, []string{"AAPL", "SPY"}, got)
}

func TestPrioritizeDoesNotMutateInput(t *testing.T) {
	in := []string{"ZZZZ", "AAPL"}
	Prioritize(in, 1)
	assert.Equal(t, []string{"ZZZZ", "AAPL"}, in)
}

func TestMergeDropsDuplicates(t *testing.T) {
	got := Merge([]string{"AAPL", "SPY"}, []string{"SPY", "QQQ"})
	assert.Equal(t, []string{"AAPL", "SPY", "QQQ"}, got)
}
