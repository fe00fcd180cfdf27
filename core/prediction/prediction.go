// Package prediction serves the pre-generated failure, downtime and workload forecasts as chart series.
package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrUnavailable is the cause of every error returned when no forecast can be served.
var ErrUnavailable = errors.New("predictions are unavailable")

type (
	Point struct {
		Step      int     `json:"step"`
		Actual    float64 `json:"actual"`
		Predicted float64 `json:"predicted"`
	}

	// file is the JSON written by the model export.
	file struct {
		Failures []Point `json:"failures"`
		Downtime []Point `json:"downtime"`
		Workload []Point `json:"workload"`
	}

	Series struct {
		Title     string    `json:"title"`
		Label     string    `json:"label"` // of the predicted dataset
		Labels    []string  `json:"labels"`
		Actual    []float64 `json:"actual"`
		Predicted []float64 `json:"predicted"`
	}

	Forecast struct {
		Failures  Series    `json:"failures"`
		Downtime  Series    `json:"downtime"`
		Workload  Series    `json:"workload"`
		UpdatedAt time.Time `json:"updated_at"`
	}
)

// NewSeries turns points into chart-ready series, labelled S<step>, in file order.
func NewSeries(title, label string, points []Point) Series {
	s := Series{
		Title:     title,
		Label:     label,
		Labels:    make([]string, 0, len(points)),
		Actual:    make([]float64, 0, len(points)),
		Predicted: make([]float64, 0, len(points)),
	}
	for _, p := range points {
		s.Labels = append(s.Labels, fmt.Sprintf("S%d", p.Step))
		s.Actual = append(s.Actual, p.Actual)
		s.Predicted = append(s.Predicted, p.Predicted)
	}
	return s
}

// Parse decodes the export. Missing sections yield empty series.
func Parse(data []byte) (Forecast, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return Forecast{}, err
	}
	return Forecast{
		Failures: NewSeries("Prévision des Pannes", "Prédiction (Pannes)", f.Failures),
		Downtime: NewSeries("Prévision des Arrêts (h)", "Prédiction (Heures)", f.Downtime),
		Workload: NewSeries("Prévision de la Charge de Travail (Workload)", "Prédiction (Heures Tech)", f.Workload),
	}, nil
}

// Store reads the export from disk, re-reading it when it changes.
type Store struct {
	path string

	mu      sync.Mutex
	cached  *Forecast
	modTime time.Time
	size    int64
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Get(_ context.Context) (Forecast, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Forecast{}, errors.Wrap(ErrUnavailable, "no forecast file")
		}
		return Forecast{}, errors.Wrap(err, "reading forecast file")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && fi.ModTime().Equal(s.modTime) && fi.Size() == s.size {
		return *s.cached, nil
	}

	data, err := ioutil.ReadFile(s.path)
	if err != nil {
		return Forecast{}, errors.Wrap(err, "reading forecast file")
	}
	fc, err := Parse(data)
	if err != nil {
		return Forecast{}, errors.Wrap(ErrUnavailable, "malformed forecast file: "+err.Error())
	}
	fc.UpdatedAt = fi.ModTime().UTC()

	s.cached = &fc
	s.modTime = fi.ModTime()
	s.size = fi.Size()
	return fc, nil
}
