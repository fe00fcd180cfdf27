// Package kpi computes the maintenance KPIs of the dashboard from normalized failure and workload records.
// All functions are pure: nothing here does I/O or keeps state between calls.
package kpi

// FailureRecord is one failure (breakdown) event coming from the AMDEC or GMAO exports.
type FailureRecord struct {
	Type               string            `json:"type"`
	DowntimeHours      float64           `json:"downtime_hours"`
	MachineDesignation string            `json:"machine_designation"`
	Raw                map[string]string `json:"raw,omitempty"` // every original column, verbatim
}

// WorkloadRecord is one intervention from the workload export.
type WorkloadRecord struct {
	Type       string            `json:"type"`
	Hours      float64           `json:"hours"`
	Cost       float64           `json:"cost"`
	Technician string            `json:"technician,omitempty"`
	Raw        map[string]string `json:"raw,omitempty"`
}
