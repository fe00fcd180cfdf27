package csvdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/dashboard"
	"github.com/trezcool/gmao/core/kpi"
)

// Source reads the data set from CSV files on disk.
type Source struct {
	FailurePaths []string // concatenated in this order
	WorkloadPath string
	Delimiter    rune
	logger       core.Logger
}

var _ dashboard.Source = (*Source)(nil) // interface compliance check

func NewSource(conf *core.Config, logger core.Logger) *Source {
	delim, _ := utf8.DecodeRuneInString(conf.Data.Delimiter)
	if delim == utf8.RuneError {
		delim = DefaultDelimiter
	}
	return &Source{
		FailurePaths: conf.Data.FailurePaths(),
		WorkloadPath: conf.Data.WorkloadPath(),
		Delimiter:    delim,
		logger:       logger,
	}
}

func (src *Source) Load(ctx context.Context) (dashboard.DataSet, error) {
	version, err := src.Version(ctx)
	if err != nil {
		return dashboard.DataSet{}, err
	}
	ds := dashboard.DataSet{
		Failures: make([]kpi.FailureRecord, 0),
		Workload: make([]kpi.WorkloadRecord, 0),
		Version:  version,
	}

	for _, fp := range src.FailurePaths {
		if err := ctx.Err(); err != nil {
			return dashboard.DataSet{}, err
		}
		tbl, stat := src.read(fp, dashboard.KindFailures)
		if stat.Error == "" {
			var recs []kpi.FailureRecord
			recs, stat.ColumnsFound = NormalizeFailures(tbl)
			stat.Kept = len(recs)
			ds.Failures = append(ds.Failures, recs...)
		}
		ds.Sources = append(ds.Sources, stat)
	}

	if src.WorkloadPath != "" {
		tbl, stat := src.read(src.WorkloadPath, dashboard.KindWorkload)
		if stat.Error == "" {
			var recs []kpi.WorkloadRecord
			recs, stat.ColumnsFound = NormalizeWorkload(tbl)
			stat.Kept = len(recs)
			ds.Workload = recs
		}
		ds.Sources = append(ds.Sources, stat)
	}
	return ds, nil
}

// read never fails: an unreadable file is reported in the stat and yields no rows.
func (src *Source) read(fp, kind string) (Table, dashboard.SourceStat) {
	stat := dashboard.SourceStat{Name: filepath.Base(fp), Kind: kind}

	f, err := os.Open(fp)
	if err != nil {
		src.logger.Error(fmt.Sprintf("csvdata.Load(%s): %v", stat.Name, err), err)
		stat.Error = err.Error()
		return Table{}, stat
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		stat.ModTime = fi.ModTime().UTC()
	}
	tbl, err := ReadCSV(f, src.Delimiter)
	if err != nil {
		src.logger.Error(fmt.Sprintf("csvdata.Load(%s): %v", stat.Name, err), err)
		stat.Error = err.Error()
		return Table{}, stat
	}
	stat.Rows = len(tbl.Rows)
	return tbl, stat
}

// Version fingerprints the files by modification time and size.
func (src *Source) Version(_ context.Context) (string, error) {
	paths := append(append([]string{}, src.FailurePaths...), src.WorkloadPath)
	parts := make([]string, 0, len(paths))
	for _, fp := range paths {
		if fp == "" {
			continue
		}
		fi, err := os.Stat(fp)
		switch {
		case err == nil:
			parts = append(parts, fmt.Sprintf("%s@%d:%d", filepath.Base(fp), fi.ModTime().UnixNano(), fi.Size()))
		case os.IsNotExist(err):
			parts = append(parts, filepath.Base(fp)+"@missing")
		default:
			return "", err
		}
	}
	return strings.Join(parts, ";"), nil
}
