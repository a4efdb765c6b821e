package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Pipeline labels used in evaluation CSVs.
const (
	LabelDirect   = "direct"
	LabelPool     = "pool"
	LabelDontCare = "dont_care"
)

// TimingRow is one per-query measurement exported by the comparison
// surface. Missing measurements stay nil and are excluded from means.
type TimingRow struct {
	Query         string
	DirectSeconds *float64
	PoolSeconds   *float64
}

// LongRow is the aggregate for one (query, pipeline) pair in long
// format, the shape plotting tools want. A query measured in several
// sessions contributes one row with the mean over its samples.
type LongRow struct {
	QueryID     int
	Query       string
	Samples     int
	Pipeline    string
	MeanSeconds float64
}

// OverallRow is the mean duration of one pipeline across all queries
// that measured it.
type OverallRow struct {
	Pipeline    string
	MeanSeconds float64
	Samples     int
}

// LoadTimingCSV reads rows with header query,direct_seconds,pool_seconds.
// Unparseable or empty duration cells are treated as missing.
func LoadTimingCSV(r io.Reader) ([]TimingRow, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading timing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := columnIndex(records[0])
	queryIdx, ok := cols["query"]
	if !ok {
		return nil, fmt.Errorf("timing csv is missing a query column")
	}
	directIdx, hasDirect := cols["direct_seconds"]
	poolIdx, hasPool := cols["pool_seconds"]
	if !hasDirect && !hasPool {
		return nil, fmt.Errorf("timing csv has no duration columns")
	}

	rows := make([]TimingRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if queryIdx >= len(record) {
			continue
		}
		row := TimingRow{Query: record[queryIdx]}
		if hasDirect {
			row.DirectSeconds = parseSeconds(record, directIdx)
		}
		if hasPool {
			row.PoolSeconds = parseSeconds(record, poolIdx)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LongReport aggregates timing rows per distinct query and pipeline.
// Query IDs are assigned by the alphabetical order of the distinct
// query texts, so the same input always yields the same IDs.
func LongReport(rows []TimingRow) []LongRow {
	sums := make(map[string]*queryTotals)
	queries := make([]string, 0, len(rows))
	for _, row := range rows {
		totals, ok := sums[row.Query]
		if !ok {
			totals = &queryTotals{}
			sums[row.Query] = totals
			queries = append(queries, row.Query)
		}
		if row.DirectSeconds != nil {
			totals.directSum += *row.DirectSeconds
			totals.directN++
		}
		if row.PoolSeconds != nil {
			totals.poolSum += *row.PoolSeconds
			totals.poolN++
		}
	}
	sort.Strings(queries)

	var long []LongRow
	for i, query := range queries {
		totals := sums[query]
		if totals.directN > 0 {
			long = append(long, LongRow{
				QueryID:     i + 1,
				Query:       query,
				Samples:     totals.directN,
				Pipeline:    LabelDirect,
				MeanSeconds: totals.directSum / float64(totals.directN),
			})
		}
		if totals.poolN > 0 {
			long = append(long, LongRow{
				QueryID:     i + 1,
				Query:       query,
				Samples:     totals.poolN,
				Pipeline:    LabelPool,
				MeanSeconds: totals.poolSum / float64(totals.poolN),
			})
		}
	}

	sort.SliceStable(long, func(i, j int) bool {
		if long[i].Pipeline != long[j].Pipeline {
			return long[i].Pipeline < long[j].Pipeline
		}
		return long[i].QueryID < long[j].QueryID
	})
	return long
}

type queryTotals struct {
	directSum, poolSum float64
	directN, poolN     int
}

// OverallReport computes per-pipeline mean durations.
func OverallReport(rows []TimingRow) []OverallRow {
	var directSum, poolSum float64
	var directN, poolN int
	for _, row := range rows {
		if row.DirectSeconds != nil {
			directSum += *row.DirectSeconds
			directN++
		}
		if row.PoolSeconds != nil {
			poolSum += *row.PoolSeconds
			poolN++
		}
	}

	var overall []OverallRow
	if directN > 0 {
		overall = append(overall, OverallRow{Pipeline: LabelDirect, MeanSeconds: directSum / float64(directN), Samples: directN})
	}
	if poolN > 0 {
		overall = append(overall, OverallRow{Pipeline: LabelPool, MeanSeconds: poolSum / float64(poolN), Samples: poolN})
	}
	return overall
}

// WriteLongCSV writes the long-format report.
func WriteLongCSV(w io.Writer, rows []LongRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"query_id", "query", "samples", "pipeline", "mean_seconds"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.QueryID),
			row.Query,
			strconv.Itoa(row.Samples),
			row.Pipeline,
			formatSeconds(row.MeanSeconds),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteOverallCSV writes the per-pipeline mean report.
func WriteOverallCSV(w io.Writer, rows []OverallRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"pipeline", "mean_seconds", "samples"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Pipeline,
			formatSeconds(row.MeanSeconds),
			strconv.Itoa(row.Samples),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	return cols
}

func parseSeconds(record []string, idx int) *float64 {
	if idx >= len(record) || record[idx] == "" {
		return nil
	}
	value, err := strconv.ParseFloat(record[idx], 64)
	if err != nil {
		return nil
	}
	return &value
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
