package csvdata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gmao/core/kpi"
)

func TestNormalizeFailures(t *testing.T) {
	tests := []struct {
		name      string
		table     Table
		wantFound bool
		want      []kpi.FailureRecord
	}{
		{
			name:      "no rows",
			table:     Table{Headers: []string{"Type", "Durée arrêt", "Désignation"}},
			wantFound: true,
			want:      []kpi.FailureRecord{},
		},
		{
			name: "missing designation column",
			table: Table{
				Headers: []string{"Type", "Durée arrêt"},
				Rows:    []map[string]string{{"Type": "A", "Durée arrêt": "1"}},
			},
			wantFound: false,
			want:      []kpi.FailureRecord{},
		},
		{
			name: "first matching column wins",
			table: Table{
				Headers: []string{"Type de panne", "Sous-type", "Temps d'arrêt", "Désignation"},
				Rows: []map[string]string{
					{"Type de panne": "Mécanique", "Sous-type": "x", "Temps d'arrêt": "1,5", "Désignation": " P1 "},
				},
			},
			wantFound: true,
			want: []kpi.FailureRecord{{
				Type:               "Mécanique",
				DowntimeHours:      1.5,
				MachineDesignation: "P1",
				Raw:                map[string]string{"Type de panne": "Mécanique", "Sous-type": "x", "Temps d'arrêt": "1,5", "Désignation": " P1 "},
			}},
		},
		{
			name: "drops rows missing a required field",
			table: Table{
				Headers: []string{"TYPE", "ARRET TOTAL", "DESIGNATION"},
				Rows: []map[string]string{
					{"TYPE": "", "ARRET TOTAL": "1", "DESIGNATION": "P1"},
					{"TYPE": "A", "ARRET TOTAL": " ", "DESIGNATION": "P1"},
					{"TYPE": "A", "ARRET TOTAL": "n/a", "DESIGNATION": "P2"},
				},
			},
			wantFound: true,
			want: []kpi.FailureRecord{{
				Type:               "A",
				DowntimeHours:      0,
				MachineDesignation: "P2",
				Raw:                map[string]string{"TYPE": "A", "ARRET TOTAL": "n/a", "DESIGNATION": "P2"},
			}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, found := NormalizeFailures(tc.table)
			assert.Equal(t, tc.wantFound, found)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeWorkload(t *testing.T) {
	headers := []string{"Type de panne", "[MO interne].Prénom", "[MO interne].Nombre d'heures", "Nombre d'heures", "Coût total intervention"}
	row := func(typ, hours, cost, tech string) map[string]string {
		return map[string]string{
			"Type de panne":                typ,
			"[MO interne].Nombre d'heures": "99",
			"Nombre d'heures":              hours,
			"Coût total intervention":      cost,
			"[MO interne].Prénom":          tech,
		}
	}

	t.Run("maps columns", func(t *testing.T) {
		tbl := Table{Headers: headers, Rows: []map[string]string{
			row("Mécanique", "3,25", "150", " Ali "),
			row("Électrique", "2", "80,5", ""),
			row("Hydraulique", "", "300", "Sara"),
		}}
		got, found := NormalizeWorkload(tbl)
		assert.True(t, found)
		if assert.Len(t, got, 2) {
			assert.Equal(t, "Mécanique", got[0].Type)
			assert.Equal(t, 3.25, got[0].Hours)
			assert.Equal(t, 150.0, got[0].Cost)
			assert.Equal(t, "Ali", got[0].Technician)
			assert.Equal(t, 80.5, got[1].Cost)
			assert.Equal(t, "", got[1].Technician)
		}
	})

	t.Run("technician column is optional", func(t *testing.T) {
		tbl := Table{
			Headers: []string{"Type", "Heures", "Total intervention"},
			Rows:    []map[string]string{{"Type": "A", "Heures": "1", "Total intervention": "2"}},
		}
		got, found := NormalizeWorkload(tbl)
		assert.True(t, found)
		assert.Len(t, got, 1)
	})

	t.Run("missing cost column", func(t *testing.T) {
		tbl := Table{
			Headers: []string{"Type", "Heures"},
			Rows:    []map[string]string{{"Type": "A", "Heures": "1"}},
		}
		got, found := NormalizeWorkload(tbl)
		assert.False(t, found)
		assert.Empty(t, got)
	})
}
