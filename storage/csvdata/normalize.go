package csvdata

import (
	"strings"

	"github.com/trezcool/gmao/core/kpi"
)

// findColumn returns the first header (in file order) matched by pred, on its lowercased form.
func findColumn(headers []string, pred func(h string) bool) (string, bool) {
	for _, h := range headers {
		if pred(strings.ToLower(h)) {
			return h, true
		}
	}
	return "", false
}

func has(subs ...string) func(string) bool {
	return func(h string) bool {
		for _, s := range subs {
			if !strings.Contains(h, s) {
				return false
			}
		}
		return true
	}
}

func copyRow(row map[string]string) map[string]string {
	raw := make(map[string]string, len(row))
	for k, v := range row {
		raw[k] = v
	}
	return raw
}

// NormalizeFailures maps a failure export to records. The second result is false when
// the type, downtime or designation column could not be located; rows missing one of them are dropped.
func NormalizeFailures(t Table) ([]kpi.FailureRecord, bool) {
	typeCol, ok1 := findColumn(t.Headers, has("type"))
	downtimeCol, ok2 := findColumn(t.Headers, has("arr", "t"))
	designCol, ok3 := findColumn(t.Headers, has("signation"))
	if !(ok1 && ok2 && ok3) {
		return []kpi.FailureRecord{}, false
	}

	records := make([]kpi.FailureRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		typ := strings.TrimSpace(row[typeCol])
		downtime := strings.TrimSpace(row[downtimeCol])
		design := strings.TrimSpace(row[designCol])
		if typ == "" || downtime == "" || design == "" {
			continue
		}
		records = append(records, kpi.FailureRecord{
			Type:               typ,
			DowntimeHours:      kpi.ParseNumber(downtime),
			MachineDesignation: design,
			Raw:                copyRow(row),
		})
	}
	return records, true
}

// NormalizeWorkload maps a workload export to records. The technician column is optional.
func NormalizeWorkload(t Table) ([]kpi.WorkloadRecord, bool) {
	typeCol, ok1 := findColumn(t.Headers, has("type"))
	hoursCol, ok2 := findColumn(t.Headers, func(h string) bool {
		return strings.Contains(h, "heure") && !strings.Contains(h, "mo interne")
	})
	costCol, ok3 := findColumn(t.Headers, has("total", "intervention"))
	techCol, hasTech := findColumn(t.Headers, has("nom", "interne"))
	if !(ok1 && ok2 && ok3) {
		return []kpi.WorkloadRecord{}, false
	}

	records := make([]kpi.WorkloadRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		typ := strings.TrimSpace(row[typeCol])
		hours := strings.TrimSpace(row[hoursCol])
		cost := strings.TrimSpace(row[costCol])
		if typ == "" || hours == "" || cost == "" {
			continue
		}
		rec := kpi.WorkloadRecord{
			Type:  typ,
			Hours: kpi.ParseNumber(hours),
			Cost:  kpi.ParseNumber(cost),
			Raw:   copyRow(row),
		}
		if hasTech {
			rec.Technician = strings.TrimSpace(row[techCol])
		}
		records = append(records, rec)
	}
	return records, true
}
