package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVotesCSV = `query,output_1,output_2,winner
q1,answer a,answer b,direct
q2,answer a,answer b,pool
q3,answer a,answer b,direct
q4,answer a,answer b,dont_care
q5,answer a,answer b,
`

func TestLoadVotesCSV(t *testing.T) {
	rows, err := LoadVotesCSV(strings.NewReader(sampleVotesCSV))

	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "q1", rows[0].Query)
	assert.Equal(t, "direct", rows[0].Winner)
	assert.Equal(t, "dont_care", rows[3].Winner)
}

func TestLoadVotesCSV_MissingWinnerColumn(t *testing.T) {
	_, err := LoadVotesCSV(strings.NewReader("query,choice\nq,a\n"))
	assert.Error(t, err)
}

func TestWinRates_ExcludingDontCare(t *testing.T) {
	rows, err := LoadVotesCSV(strings.NewReader(sampleVotesCSV))
	require.NoError(t, err)

	rates, total := WinRates(rows, false)

	// dont_care and blank votes are dropped from the denominator.
	assert.Equal(t, 3, total)
	require.Len(t, rates, 2)
	assert.Equal(t, WinRate{Outcome: "direct", Wins: 2, Rate: 2.0 / 3.0}, rates[0])
	assert.Equal(t, WinRate{Outcome: "pool", Wins: 1, Rate: 1.0 / 3.0}, rates[1])
}

func TestWinRates_IncludingDontCare(t *testing.T) {
	rows, err := LoadVotesCSV(strings.NewReader(sampleVotesCSV))
	require.NoError(t, err)

	rates, total := WinRates(rows, true)

	assert.Equal(t, 4, total)
	require.Len(t, rates, 3)

	byOutcome := map[string]WinRate{}
	for _, r := range rates {
		byOutcome[r.Outcome] = r
	}
	assert.Equal(t, 2, byOutcome["direct"].Wins)
	assert.InDelta(t, 0.25, byOutcome["dont_care"].Rate, 1e-9)
}

func TestWinRates_Empty(t *testing.T) {
	rates, total := WinRates(nil, false)
	assert.Empty(t, rates)
	assert.Zero(t, total)
}
