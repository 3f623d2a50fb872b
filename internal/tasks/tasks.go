// Package tasks holds the built-in entrypoints the bundled worker can run.
//
// Handlers work purely on the mounted channel directories of the spec they're
// given: data is read from the first input channel's mount path & results are
// written under the first output channel's mount path. Moving data between the
// mounts and wherever the channels point is the runner's problem, not ours.
package tasks

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oarlock/ferry/pkg/backend"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

const (
	EntrypointConvert   = "convert"
	EntrypointAggregate = "aggregate"
)

// RegisterAll registers every built-in entrypoint on the given worker.
func RegisterAll(a *backend.Asynq) error {
	for name, h := range map[string]backend.Handler{
		EntrypointConvert:   Convert,
		EntrypointAggregate: Aggregate,
	} {
		if err := a.Register(name, h); err != nil {
			return err
		}
	}
	return nil
}

// table is csv data with a header row.
type table struct {
	header []string
	rows   [][]string
}

// col returns the index of the named column (case insensitive).
func (t *table) col(name string) (int, error) {
	for i, h := range t.header {
		if strings.EqualFold(h, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w column %s not found", errors.ErrInvalidArg, name)
}

// readTables reads every .csv file in dir into one table. All files must
// share the same header.
func readTables(dir string) (*table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := &table{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		records, err := readCSV(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			continue
		}
		if out.header == nil {
			out.header = records[0]
		} else if !equalHeader(out.header, records[0]) {
			return nil, fmt.Errorf("%w file %s header does not match", errors.ErrInvalidArg, e.Name())
		}
		out.rows = append(out.rows, records[1:]...)
	}

	if out.header == nil {
		return nil, fmt.Errorf("%w no csv files in %s", errors.ErrInvalidArg, dir)
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// inputDir returns the mount path of the spec's first input channel.
func inputDir(spec *structs.JobSpec) (string, error) {
	if len(spec.Inputs) == 0 {
		return "", fmt.Errorf("%w no input channels", errors.ErrInvalidArg)
	}
	return spec.Inputs[0].MountPath, nil
}

// outputDir returns the mount path of the spec's first output channel.
func outputDir(spec *structs.JobSpec) (string, error) {
	if len(spec.Outputs) == 0 {
		return "", fmt.Errorf("%w no output channels", errors.ErrInvalidArg)
	}
	return spec.Outputs[0].MountPath, nil
}

// param returns a spec parameter, falling back to a default.
func param(spec *structs.JobSpec, key, def string) string {
	if v, ok := spec.Parameters[key]; ok && v != "" {
		return v
	}
	return def
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w cannot parse date %q", errors.ErrInvalidArg, value)
}
