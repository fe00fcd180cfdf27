package tests

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gmao/core/dashboard"
	"github.com/trezcool/gmao/core/kpi"
	"github.com/trezcool/gmao/core/prediction"
	"github.com/trezcool/gmao/core/user"
	"github.com/trezcool/gmao/tests"
)

func Test_dashboardApi(t *testing.T) {
	e := setup(t)
	manager := testutil.CreateUser(t, e.usrRepo, "Ali", "ali@gmao.ma", "", user.RoleManager, true)
	sara := testutil.CreateUser(t, e.usrRepo, "Sara", "sara@gmao.ma", "", user.RoleTechnician, true)
	token := getToken(t, e.conf, manager)

	runHTTPTests(t, e.app, []httpTest{
		{name: "auth required", path: "/v1/dashboard", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "manager required", path: "/v1/dashboard", token: getToken(t, e.conf, sara), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "reload: manager required", method: http.MethodPost, path: "/v1/dashboard/reload", token: getToken(t, e.conf, sara), wantCode: http.StatusForbidden},
	})

	get := func(t *testing.T, method, path string) dashboard.Snapshot {
		req, rec := newAuthRequest(method, path, token)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var snap dashboard.Snapshot
		decode(t, rec, &snap)
		return snap
	}

	t.Run("computed from the CSV files", func(t *testing.T) {
		snap := get(t, http.MethodGet, "/v1/dashboard")
		assert.Equal(t, kpi.Summary{TotalFailures: 4, TotalDowntimeHours: 10, TotalCost: 230.5, AvgDowntimePerFailure: 2.5}, snap.KPIs)
		assert.Equal(t, kpi.GroupedMetric{{Key: "Mécanique", Value: 2}, {Key: "Électrique", Value: 1}, {Key: "Hydraulique", Value: 1}}, snap.Charts.FailuresByType)
		assert.Equal(t, kpi.GroupedMetric{{Key: "Mécanique", Value: 4}, {Key: "Électrique", Value: 4}, {Key: "Hydraulique", Value: 2}}, snap.Charts.DowntimeByType)
		assert.Equal(t, kpi.GroupedMetric{{Key: "Presse P1", Value: 3}, {Key: "Convoyeur C2", Value: 1}}, snap.Charts.FailuresByMachine)
		assert.Equal(t, kpi.GroupedMetric{{Key: "Mécanique", Value: 150}, {Key: "Électrique", Value: 80.5}}, snap.Charts.CostByType)
		assert.Equal(t, kpi.GroupedMetric{{Key: "Ali", Value: 3.25}}, snap.Charts.TechWorkload)
		assert.Len(t, snap.Sources, 3)
	})

	t.Run("follows file changes", func(t *testing.T) {
		writeFile(t, e.dataDir, "GMAO_Integrator.csv", integratorCSV+"Hydraulique;3;Presse P2\n")
		later := time.Now().Add(time.Minute)
		require.NoError(t, os.Chtimes(filepath.Join(e.dataDir, "GMAO_Integrator.csv"), later, later))

		snap := get(t, http.MethodGet, "/v1/dashboard")
		assert.Equal(t, 5, snap.KPIs.TotalFailures)
		assert.Equal(t, 13.0, snap.KPIs.TotalDowntimeHours)
	})

	t.Run("missing file yields empty data", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(e.dataDir, "Workload.csv")))

		snap := get(t, http.MethodPost, "/v1/dashboard/reload")
		assert.Equal(t, 0.0, snap.KPIs.TotalCost)
		assert.Empty(t, snap.Charts.TechWorkload)
		assert.Equal(t, 5, snap.KPIs.TotalFailures)
	})
}

func Test_dashboardApi_predictions(t *testing.T) {
	e := setup(t)
	manager := testutil.CreateUser(t, e.usrRepo, "Ali", "ali@gmao.ma", "", user.RoleManager, true)
	token := getToken(t, e.conf, manager)

	req, rec := newAuthRequest(http.MethodGet, "/v1/predictions", token)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fc prediction.Forecast
	decode(t, rec, &fc)
	assert.Equal(t, []string{"S1"}, fc.Failures.Labels)
	assert.Equal(t, []float64{3}, fc.Failures.Actual)
	assert.Equal(t, []float64{2.5}, fc.Failures.Predicted)
	assert.Empty(t, fc.Downtime.Labels)

	require.NoError(t, os.Remove(filepath.Join(e.dataDir, "ml_predictions.json")))
	runHTTPTests(t, e.app, []httpTest{
		{
			name: "unavailable", path: "/v1/predictions", token: token, wantCode: http.StatusServiceUnavailable,
			wantData: marchallObj(t, httpErr{Error: prediction.ErrUnavailable.Error()}),
		},
	})
}
