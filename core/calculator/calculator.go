// Package calculator holds the static maintenance KPI calculators (MTBF, MTTR, availability, OEE, RPN, spare parts stock).
package calculator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core"
)

// Calculator types
const (
	TypeMTBF         = "mtbf"
	TypeMTTR         = "mttr"
	TypeAvailability = "availability"
	TypeOEE          = "oee"
	TypeRPN          = "rpn"
	TypeStock        = "stock"
)

// RPN priorities
const (
	PriorityUrgent    = "URGENT"
	PriorityHigh      = "PRIORITAIRE"
	PriorityImportant = "IMPORTANT"
	PriorityNormal    = "NORMAL"
)

var ErrUnknownCalculator = errors.New("unknown calculator")

type (
	// Input is the body of a calculation request. Fields are pointers so missing values are rejected.
	Input interface {
		calculate() (Result, error)
	}

	Result struct {
		Type     string             `json:"type"`
		Value    float64            `json:"value"`
		Display  string             `json:"display"`
		Priority string             `json:"priority,omitempty"`
		Details  map[string]float64 `json:"details,omitempty"`
	}

	MTBFInput struct {
		Time     *float64 `json:"time" validate:"required,gte=0"`
		Failures *float64 `json:"failures" validate:"required,gt=0"`
	}

	MTTRInput struct {
		Time     *float64 `json:"time" validate:"required,gte=0"`
		Failures *float64 `json:"failures" validate:"required,gt=0"`
	}

	AvailabilityInput struct {
		MTBF *float64 `json:"mtbf" validate:"required,gte=0"`
		MTTR *float64 `json:"mttr" validate:"required,gte=0"`
	}

	OEEInput struct {
		Availability *float64 `json:"availability" validate:"required,gte=0,lte=100"`
		Performance  *float64 `json:"performance" validate:"required,gte=0,lte=100"`
		Quality      *float64 `json:"quality" validate:"required,gte=0,lte=100"`
	}

	RPNInput struct {
		Severity   *int `json:"severity" validate:"required,gte=1,lte=10"`
		Occurrence *int `json:"occurrence" validate:"required,gte=1,lte=10"`
		Detection  *int `json:"detection" validate:"required,gte=1,lte=10"`
	}

	StockInput struct {
		Consumption *float64 `json:"consumption" validate:"required,gte=0"`
		Lead        *float64 `json:"lead" validate:"required,gte=0"`
		Safety      *float64 `json:"safety" validate:"required,gte=0"`
	}
)

// NewInput returns an empty input for the calculator `typ`, to bind the request body to.
func NewInput(typ string) (Input, error) {
	switch typ {
	case TypeMTBF:
		return new(MTBFInput), nil
	case TypeMTTR:
		return new(MTTRInput), nil
	case TypeAvailability:
		return new(AvailabilityInput), nil
	case TypeOEE:
		return new(OEEInput), nil
	case TypeRPN:
		return new(RPNInput), nil
	case TypeStock:
		return new(StockInput), nil
	default:
		return nil, ErrUnknownCalculator
	}
}

// Calculate validates `in` and computes its result.
// Validation failures are validator.ValidationErrors or *core.ValidationError.
func Calculate(validate *validator.Validate, in Input) (Result, error) {
	if err := validate.Struct(in); err != nil {
		return Result{}, err
	}
	return in.calculate()
}

func (in MTBFInput) calculate() (Result, error) {
	v := *in.Time / *in.Failures
	return Result{Type: TypeMTBF, Value: v, Display: fmt.Sprintf("%.2f heures", v)}, nil
}

func (in MTTRInput) calculate() (Result, error) {
	v := *in.Time / *in.Failures
	return Result{Type: TypeMTTR, Value: v, Display: fmt.Sprintf("%.2f heures", v)}, nil
}

func (in AvailabilityInput) calculate() (Result, error) {
	total := *in.MTBF + *in.MTTR
	if total == 0 {
		return Result{}, core.NewFieldValidationError("mtbf", "mtbf + mttr must be greater than 0")
	}
	v := *in.MTBF / total * 100
	return Result{Type: TypeAvailability, Value: v, Display: fmt.Sprintf("%.2f%%", v)}, nil
}

func (in OEEInput) calculate() (Result, error) {
	v := (*in.Availability / 100) * (*in.Performance / 100) * (*in.Quality / 100) * 100
	return Result{Type: TypeOEE, Value: v, Display: fmt.Sprintf("%.2f%%", v)}, nil
}

func (in RPNInput) calculate() (Result, error) {
	rpn := *in.Severity * *in.Occurrence * *in.Detection
	prio := RPNPriority(rpn)
	return Result{
		Type:     TypeRPN,
		Value:    float64(rpn),
		Display:  fmt.Sprintf("%d - %s", rpn, prio),
		Priority: prio,
	}, nil
}

// RPNPriority classifies a risk priority number.
func RPNPriority(rpn int) string {
	switch {
	case rpn > 500:
		return PriorityUrgent
	case rpn > 200:
		return PriorityHigh
	case rpn > 100:
		return PriorityImportant
	default:
		return PriorityNormal
	}
}

func (in StockInput) calculate() (Result, error) {
	minStock := *in.Consumption * *in.Lead
	orderPoint := minStock + *in.Safety
	return Result{
		Type:    TypeStock,
		Value:   orderPoint,
		Display: fmt.Sprintf("Stock min: %.1f\nPoint commande: %.1f", minStock, orderPoint),
		Details: map[string]float64{"min_stock": minStock, "order_point": orderPoint},
	}, nil
}
