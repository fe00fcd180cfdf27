package kpi

// Charts holds the grouped breakdowns shown on the dashboard, each sorted highest first.
type Charts struct {
	FailuresByType    GroupedMetric `json:"failures_by_type"`
	DowntimeByType    GroupedMetric `json:"downtime_by_type"`
	FailuresByMachine GroupedMetric `json:"failures_by_machine"`
	CostByType        GroupedMetric `json:"cost_by_type"`
	TechWorkload      GroupedMetric `json:"tech_workload"`
}

type Dashboard struct {
	KPIs   Summary `json:"kpis"`
	Charts Charts  `json:"charts"`
}

// BuildDashboard runs the full aggregation pipeline.
func BuildDashboard(failures []FailureRecord, workload []WorkloadRecord) Dashboard {
	failureType := func(i int) (string, bool) { return failures[i].Type, true }
	workloadType := func(i int) (string, bool) { return workload[i].Type, true }

	return Dashboard{
		KPIs: Summarize(failures, workload),
		Charts: Charts{
			FailuresByType: SortDescending(GroupCount(len(failures), failureType)),
			DowntimeByType: SortDescending(GroupSum(len(failures), failureType,
				func(i int) float64 { return failures[i].DowntimeHours },
			)),
			FailuresByMachine: SortDescending(GroupCount(len(failures),
				func(i int) (string, bool) { return failures[i].MachineDesignation, true },
			)),
			CostByType: SortDescending(GroupSum(len(workload), workloadType,
				func(i int) float64 { return workload[i].Cost },
			)),
			// interventions without a technician are left out
			TechWorkload: SortDescending(GroupSum(len(workload),
				func(i int) (string, bool) { return workload[i].Technician, workload[i].Technician != "" },
				func(i int) float64 { return workload[i].Hours },
			)),
		},
	}
}
