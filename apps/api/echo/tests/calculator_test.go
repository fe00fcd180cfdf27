package tests

import (
	"net/http"
	"testing"

	"github.com/trezcool/gmao/core/calculator"
	"github.com/trezcool/gmao/core/user"
	"github.com/trezcool/gmao/tests"
)

func Test_calculatorApi(t *testing.T) {
	e := setup(t)
	manager := testutil.CreateUser(t, e.usrRepo, "Ali", "ali@gmao.ma", "", user.RoleManager, true)
	sara := testutil.CreateUser(t, e.usrRepo, "Sara", "sara@gmao.ma", "", user.RoleTechnician, true)
	token := getToken(t, e.conf, manager)

	tests := []httpTest{
		{name: "manager required", path: "/v1/calculators", token: getToken(t, e.conf, sara), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "definitions", path: "/v1/calculators", token: token, wantData: marchallObj(t, calculator.Definitions)},
		{
			name: "mtbf", method: http.MethodPost, path: "/v1/calculators/mtbf", token: token,
			body:     []byte(`{"time": 1000, "failures": 4}`),
			wantData: marchallObj(t, calculator.Result{Type: "mtbf", Value: 250, Display: "250.00 heures"}),
		},
		{
			name: "rpn", method: http.MethodPost, path: "/v1/calculators/rpn", token: token,
			body:     []byte(`{"severity": 9, "occurrence": 8, "detection": 7}`),
			wantData: marchallObj(t, calculator.Result{Type: "rpn", Value: 504, Display: "504 - URGENT", Priority: "URGENT"}),
		},
		{
			name: "missing field", method: http.MethodPost, path: "/v1/calculators/mtbf", token: token,
			body: []byte(`{"time": 1000}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"failures": "this field is required"}),
		},
		{
			name: "zero divisor", method: http.MethodPost, path: "/v1/calculators/availability", token: token,
			body: []byte(`{"mtbf": 0, "mttr": 0}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"mtbf": "mtbf + mttr must be greater than 0"}),
		},
		{
			name: "unknown calculator", method: http.MethodPost, path: "/v1/calculators/tco", token: token,
			body: []byte(`{}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "unknown calculator"}),
		},
	}
	runHTTPTests(t, e.app, tests)
}
