package calculator

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gmao/core"
)

func calculate(t *testing.T, typ, body string) (Result, error) {
	t.Helper()
	validate, _ := core.NewValidator()
	in, err := NewInput(typ)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(body), in))
	return Calculate(validate, in)
}

func invalidFields(err error) []string {
	var flds []string
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range e {
			flds = append(flds, fe.Field())
		}
	case *core.ValidationError:
		for _, fe := range e.Fields {
			flds = append(flds, fe.Field)
		}
	}
	return flds
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		typ         string
		body        string
		wantValue   float64
		wantDisplay string
		wantPrio    string
	}{
		{TypeMTBF, `{"time": 1000, "failures": 4}`, 250, "250.00 heures", ""},
		{TypeMTBF, `{"time": 10, "failures": 3}`, 10.0 / 3, "3.33 heures", ""},
		{TypeMTTR, `{"time": 12.5, "failures": 5}`, 2.5, "2.50 heures", ""},
		{TypeAvailability, `{"mtbf": 95, "mttr": 5}`, 95, "95.00%", ""},
		{TypeAvailability, `{"mtbf": 0, "mttr": 5}`, 0, "0.00%", ""},
		{TypeOEE, `{"availability": 90, "performance": 90, "quality": 90}`, 72.9, "72.90%", ""},
		{TypeRPN, `{"severity": 10, "occurrence": 10, "detection": 6}`, 600, "600 - URGENT", PriorityUrgent},
		{TypeRPN, `{"severity": 5, "occurrence": 5, "detection": 8}`, 200, "200 - IMPORTANT", PriorityImportant},
		{TypeRPN, `{"severity": 1, "occurrence": 1, "detection": 1}`, 1, "1 - NORMAL", PriorityNormal},
		{TypeStock, `{"consumption": 12.5, "lead": 2, "safety": 10}`, 35, "Stock min: 25.0\nPoint commande: 35.0", ""},
	}

	for _, tc := range tests {
		t.Run(tc.typ+" "+tc.body, func(t *testing.T) {
			res, err := calculate(t, tc.typ, tc.body)
			require.NoError(t, err)
			assert.Equal(t, tc.typ, res.Type)
			assert.InDelta(t, tc.wantValue, res.Value, 1e-9)
			assert.Equal(t, tc.wantDisplay, res.Display)
			assert.Equal(t, tc.wantPrio, res.Priority)
		})
	}
}

func TestCalculate_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		typ        string
		body       string
		wantFields []string
	}{
		{"missing fields", TypeMTBF, `{}`, []string{"time", "failures"}},
		{"zero failures", TypeMTBF, `{"time": 10, "failures": 0}`, []string{"failures"}},
		{"negative time", TypeMTTR, `{"time": -1, "failures": 2}`, []string{"time"}},
		{"zero divisor", TypeAvailability, `{"mtbf": 0, "mttr": 0}`, []string{"mtbf"}},
		{"percentage above 100", TypeOEE, `{"availability": 101, "performance": 50, "quality": 50}`, []string{"availability"}},
		{"score out of bounds", TypeRPN, `{"severity": 0, "occurrence": 11, "detection": 5}`, []string{"severity", "occurrence"}},
		{"negative safety stock", TypeStock, `{"consumption": 1, "lead": 1, "safety": -5}`, []string{"safety"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calculate(t, tc.typ, tc.body)
			require.Error(t, err)
			assert.Equal(t, tc.wantFields, invalidFields(err))
		})
	}
}

func TestNewInput_Unknown(t *testing.T) {
	_, err := NewInput("nope")
	assert.Equal(t, ErrUnknownCalculator, err)
}

func TestRPNPriority(t *testing.T) {
	tests := []struct {
		rpn  int
		want string
	}{
		{1000, PriorityUrgent},
		{501, PriorityUrgent},
		{500, PriorityHigh},
		{201, PriorityHigh},
		{200, PriorityImportant},
		{101, PriorityImportant},
		{100, PriorityNormal},
		{1, PriorityNormal},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, RPNPriority(tc.rpn), "rpn=%d", tc.rpn)
	}
}

func TestDefinitions(t *testing.T) {
	for _, def := range Definitions {
		_, err := NewInput(def.Type)
		assert.NoError(t, err, def.Type)
		assert.NotEmpty(t, def.Fields, def.Type)
	}
}
