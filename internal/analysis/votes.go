package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
)

// VoteRow is one evaluator vote from the blind comparison.
type VoteRow struct {
	Query  string
	Winner string
}

// WinRate is the share of counted votes one outcome received.
type WinRate struct {
	Outcome string
	Wins    int
	Rate    float64
}

// LoadVotesCSV reads vote rows. The file must carry query and winner
// columns; additional columns (such as the shown answers) are ignored.
func LoadVotesCSV(r io.Reader) ([]VoteRow, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading votes csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := columnIndex(records[0])
	queryIdx, hasQuery := cols["query"]
	winnerIdx, hasWinner := cols["winner"]
	if !hasQuery || !hasWinner {
		return nil, fmt.Errorf("votes csv needs query and winner columns")
	}

	rows := make([]VoteRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if queryIdx >= len(record) || winnerIdx >= len(record) {
			continue
		}
		rows = append(rows, VoteRow{Query: record[queryIdx], Winner: record[winnerIdx]})
	}
	return rows, nil
}

// WinRates aggregates votes into per-outcome shares. With
// includeDontCare false, "don't care" votes are dropped before the
// shares are computed; with true they count as their own outcome.
// The second return value is the number of votes in the denominator.
func WinRates(rows []VoteRow, includeDontCare bool) ([]WinRate, int) {
	wins := make(map[string]int)
	total := 0
	for _, row := range rows {
		if row.Winner == "" {
			continue
		}
		if !includeDontCare && row.Winner == LabelDontCare {
			continue
		}
		wins[row.Winner]++
		total++
	}

	outcomes := make([]string, 0, len(wins))
	for outcome := range wins {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	rates := make([]WinRate, 0, len(outcomes))
	for _, outcome := range outcomes {
		rate := 0.0
		if total > 0 {
			rate = float64(wins[outcome]) / float64(total)
		}
		rates = append(rates, WinRate{Outcome: outcome, Wins: wins[outcome], Rate: rate})
	}
	return rates, total
}
