// Package dashboard serves the KPI dashboard computed from the maintenance data set.
// The data set is cached and rebuilt wholesale whenever its source changes.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/kpi"
)

// Source kinds
const (
	KindFailures = "failures"
	KindWorkload = "workload"
)

type (
	// SourceStat describes how one input file was ingested.
	SourceStat struct {
		Name         string    `json:"name"`
		Kind         string    `json:"kind"`
		Rows         int       `json:"rows"`
		Kept         int       `json:"kept"`
		ColumnsFound bool      `json:"columns_found"`
		ModTime      time.Time `json:"mod_time,omitempty"`
		Error        string    `json:"error,omitempty"`
	}

	DataSet struct {
		Failures []kpi.FailureRecord
		Workload []kpi.WorkloadRecord
		Sources  []SourceStat
		Version  string
	}

	// Source provides the data set. A missing or broken input is reported in SourceStat, not as an error.
	// DataSet.Version is taken before the data is read, so a change made during a load is seen by the next Get.
	Source interface {
		Load(ctx context.Context) (DataSet, error)
		// Version changes whenever the underlying data changes.
		Version(ctx context.Context) (string, error)
	}

	// Observer is notified of every reload.
	Observer interface {
		ObserveReload(took time.Duration, ds DataSet, err error)
	}

	Snapshot struct {
		kpi.Dashboard
		LoadedAt time.Time    `json:"loaded_at"`
		Sources  []SourceStat `json:"sources"`
	}

	Service struct {
		src     Source
		logger  core.Logger
		obs     Observer
		nowFunc func() time.Time

		mu      sync.RWMutex
		snap    *Snapshot
		version string
	}
)

func NewService(src Source, logger core.Logger, obs Observer) *Service {
	return &Service{
		src:     src,
		logger:  logger,
		obs:     obs,
		nowFunc: time.Now,
	}
}

// Get returns the cached snapshot, reloading it first if it was never loaded or the source changed.
func (svc *Service) Get(ctx context.Context) (Snapshot, error) {
	version, err := svc.src.Version(ctx)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "getting data version")
	}

	svc.mu.RLock()
	snap, current := svc.snap, svc.version
	svc.mu.RUnlock()

	if snap != nil && version == current {
		return *snap, nil
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	// reloaded by another request while waiting for the lock
	if svc.snap != nil && svc.version == version {
		return *svc.snap, nil
	}
	return svc.reload(ctx)
}

// Reload re-reads the whole data set and recomputes the dashboard.
func (svc *Service) Reload(ctx context.Context) (Snapshot, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.reload(ctx)
}

// reload must be called with mu held.
func (svc *Service) reload(ctx context.Context) (Snapshot, error) {
	start := svc.nowFunc()
	ds, err := svc.src.Load(ctx)
	if svc.obs != nil {
		svc.obs.ObserveReload(svc.nowFunc().Sub(start), ds, err)
	}
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "loading data set")
	}

	for _, s := range ds.Sources {
		if s.Error != "" {
			svc.logger.Warn("dashboard: source " + s.Name + " unavailable: " + s.Error)
		} else if !s.ColumnsFound {
			svc.logger.Warn("dashboard: required columns not found in " + s.Name)
		}
	}

	snap := &Snapshot{
		Dashboard: kpi.BuildDashboard(ds.Failures, ds.Workload),
		LoadedAt:  svc.nowFunc().UTC(),
		Sources:   ds.Sources,
	}
	if snap.Sources == nil {
		snap.Sources = []SourceStat{}
	}
	svc.snap = snap
	svc.version = ds.Version
	return *snap, nil
}
