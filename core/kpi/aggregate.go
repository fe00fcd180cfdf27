package kpi

import "sort"

// Summary holds the headline KPIs. It is derived on every read and never persisted.
type Summary struct {
	TotalFailures         int     `json:"total_failures"`
	TotalDowntimeHours    float64 `json:"total_downtime_hours"`
	TotalCost             float64 `json:"total_cost"`
	AvgDowntimePerFailure float64 `json:"avg_downtime_per_failure"`
}

// Summarize counts the failures, sums their downtime and the intervention costs.
func Summarize(failures []FailureRecord, workload []WorkloadRecord) Summary {
	var s Summary
	s.TotalFailures = len(failures)
	for _, f := range failures {
		s.TotalDowntimeHours += f.DowntimeHours
	}
	for _, w := range workload {
		s.TotalCost += w.Cost
	}
	if s.TotalFailures > 0 {
		s.AvgDowntimePerFailure = s.TotalDowntimeHours / float64(s.TotalFailures)
	}
	return s
}

// Grouping accumulates values per key and remembers the order in which keys were first seen.
type Grouping struct {
	keys   []string
	values map[string]float64
}

func NewGrouping() *Grouping {
	return &Grouping{values: make(map[string]float64)}
}

// Add adds v to the value of key.
func (g *Grouping) Add(key string, v float64) {
	if g.values == nil {
		g.values = make(map[string]float64)
	}
	if _, ok := g.values[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.values[key] += v
}

func (g *Grouping) Len() int { return len(g.keys) }

// Value returns the accumulated value of key.
func (g *Grouping) Value(key string) (float64, bool) {
	v, ok := g.values[key]
	return v, ok
}

// Metrics returns the (key, value) pairs in first-encounter order.
func (g *Grouping) Metrics() GroupedMetric {
	m := make(GroupedMetric, 0, len(g.keys))
	for _, k := range g.keys {
		m = append(m, Metric{Key: k, Value: g.values[k]})
	}
	return m
}

// GroupCount counts the n records per key. keyFn returns the key of the i-th record;
// records for which it returns ok=false are skipped.
func GroupCount(n int, keyFn func(i int) (key string, ok bool)) *Grouping {
	g := NewGrouping()
	for i := 0; i < n; i++ {
		if key, ok := keyFn(i); ok {
			g.Add(key, 1)
		}
	}
	return g
}

// GroupSum sums valueFn over the n records per key, skipping the records keyFn rejects.
func GroupSum(n int, keyFn func(i int) (key string, ok bool), valueFn func(i int) float64) *Grouping {
	g := NewGrouping()
	for i := 0; i < n; i++ {
		if key, ok := keyFn(i); ok {
			g.Add(key, valueFn(i))
		}
	}
	return g
}

type Metric struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// GroupedMetric is an ordered sequence of (key, value) pairs.
type GroupedMetric []Metric

// Keys returns the keys, in order.
func (m GroupedMetric) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, mt := range m {
		keys = append(keys, mt.Key)
	}
	return keys
}

// Values returns the values, in order.
func (m GroupedMetric) Values() []float64 {
	vals := make([]float64, 0, len(m))
	for _, mt := range m {
		vals = append(vals, mt.Value)
	}
	return vals
}

// Top returns the first n metrics at most.
func (m GroupedMetric) Top(n int) GroupedMetric {
	if n < 0 || n >= len(m) {
		return m
	}
	return m[:n]
}

// SortDescending sorts the grouping by value, highest first. Ties keep first-encounter order.
func SortDescending(g *Grouping) GroupedMetric {
	m := g.Metrics()
	sort.SliceStable(m, func(i, j int) bool { return m[i].Value > m[j].Value })
	return m
}
