package calculator

type (
	Field struct {
		ID    string   `json:"id"`
		Label string   `json:"label"`
		Step  float64  `json:"step,omitempty"`
		Min   *float64 `json:"min,omitempty"`
		Max   *float64 `json:"max,omitempty"`
	}

	Definition struct {
		Type   string  `json:"type"`
		Title  string  `json:"title"`
		Fields []Field `json:"fields"`
	}
)

func bound(v float64) *float64 { return &v }

// Definitions describes the calculators, in display order.
var Definitions = []Definition{
	{
		Type:  TypeMTBF,
		Title: "Calculateur MTBF",
		Fields: []Field{
			{ID: "time", Label: "Temps total de fonctionnement (heures)", Step: 0.1, Min: bound(0)},
			{ID: "failures", Label: "Nombre de pannes", Min: bound(1)},
		},
	},
	{
		Type:  TypeMTTR,
		Title: "Calculateur MTTR",
		Fields: []Field{
			{ID: "time", Label: "Temps total de réparation (heures)", Step: 0.1, Min: bound(0)},
			{ID: "failures", Label: "Nombre de pannes", Min: bound(1)},
		},
	},
	{
		Type:  TypeAvailability,
		Title: "Calculateur de Disponibilité",
		Fields: []Field{
			{ID: "mtbf", Label: "MTBF (heures)", Step: 0.1, Min: bound(0)},
			{ID: "mttr", Label: "MTTR (heures)", Step: 0.1, Min: bound(0)},
		},
	},
	{
		Type:  TypeOEE,
		Title: "Calculateur OEE",
		Fields: []Field{
			{ID: "availability", Label: "Disponibilité (%)", Step: 0.1, Min: bound(0), Max: bound(100)},
			{ID: "performance", Label: "Performance (%)", Step: 0.1, Min: bound(0), Max: bound(100)},
			{ID: "quality", Label: "Qualité (%)", Step: 0.1, Min: bound(0), Max: bound(100)},
		},
	},
	{
		Type:  TypeRPN,
		Title: "Calculateur RPN",
		Fields: []Field{
			{ID: "severity", Label: "Gravité (1-10)", Min: bound(1), Max: bound(10)},
			{ID: "occurrence", Label: "Occurrence (1-10)", Min: bound(1), Max: bound(10)},
			{ID: "detection", Label: "Détection (1-10)", Min: bound(1), Max: bound(10)},
		},
	},
	{
		Type:  TypeStock,
		Title: "Calculateur Stock Minimum",
		Fields: []Field{
			{ID: "consumption", Label: "Consommation moyenne (pièces/mois)", Step: 0.1, Min: bound(0)},
			{ID: "lead", Label: "Délai réapprovisionnement (mois)", Step: 0.1, Min: bound(0)},
			{ID: "safety", Label: "Stock de sécurité (pièces)", Min: bound(0)},
		},
	},
}
