package echoapi

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/gmao/core"
)

const orderingParam = "ordering"

// bindOrdering reads the `ordering` query parameter: a comma separated list of fields,
// each one ascending unless prefixed by "-" (e.g. `?ordering=-due_date,title`).
// The parameter may be repeated. A field outside `allowed` is a validation error,
// a repeated field keeps its first direction.
func bindOrdering(ctx echo.Context, allowed []string) ([]core.DBOrdering, error) {
	var (
		ords []core.DBOrdering
		seen = make(map[string]bool)
	)
	for _, val := range ctx.QueryParams()[orderingParam] {
		for _, field := range strings.Split(val, ",") {
			field = strings.ToLower(strings.TrimSpace(field))
			descending := strings.HasPrefix(field, "-")
			field = strings.TrimPrefix(field, "-")
			if field == "" || seen[field] {
				continue
			}
			if !contains(allowed, field) {
				return nil, core.NewFieldValidationError(orderingParam, fmt.Sprintf(
					"unknown field %q, expected one of %s", field, strings.Join(allowed, ", "),
				))
			}
			seen[field] = true
			ords = append(ords, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
	return ords, nil
}

func contains(vals []string, v string) bool {
	for _, val := range vals {
		if val == v {
			return true
		}
	}
	return false
}
