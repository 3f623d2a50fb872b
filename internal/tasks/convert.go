package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/oarlock/ferry/pkg/structs"
)

const (
	paramDateColumn = "date_column"

	defDateColumn = "TI_LN_DATE_OPEN"
)

// Convert reads every csv file from the input mount & rewrites the rows into
// the output mount, partitioned hive-style by the year & month of the given
// date column. Two extra columns holding the year & month are appended to
// each row.
//
// Parameters:
//
//	date_column: column to partition on (default TI_LN_DATE_OPEN)
func Convert(ctx context.Context, spec *structs.JobSpec) ([]string, error) {
	in, err := inputDir(spec)
	if err != nil {
		return nil, err
	}
	out, err := outputDir(spec)
	if err != nil {
		return nil, err
	}

	tab, err := readTables(in)
	if err != nil {
		return nil, err
	}

	dateCol := param(spec, paramDateColumn, defDateColumn)
	idx, err := tab.col(dateCol)
	if err != nil {
		return nil, err
	}

	// bucket rows by year/month of the date column
	parts := map[string][][]string{}
	for _, row := range tab.rows {
		ts, err := parseDate(row[idx])
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("%s_YEAR=%d/%s_MONTH=%d", dateCol, ts.Year(), dateCol, int(ts.Month()))
		parts[key] = append(parts[key], append(row,
			strconv.Itoa(ts.Year()),
			strconv.Itoa(int(ts.Month())),
		))
	}

	header := append(tab.header, dateCol+"_YEAR", dateCol+"_MONTH")

	keys := make([]string, 0, len(parts))
	for key := range parts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := filepath.Join(out, filepath.FromSlash(key), "part-00000.csv")
		if err := writeCSV(path, header, parts[key]); err != nil {
			return nil, err
		}
	}

	return nil, nil
}
