// Package storage persists flight runs under a base directory: one
// subdirectory per run with metadata.json and a samples.csv holding
// the full trajectory and telemetry.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/kitesim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Program   string             `json:"program"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	WindSpeed float64            `json:"wind_speed"`
	LineLen   float64            `json:"line_length"`
	Metrics   map[string]float64 `json:"metrics"`
}

var csvHeader = []string{
	"time",
	"px", "py", "pz",
	"vx", "vy", "vz",
	"qw", "qx", "qy", "qz",
	"wx", "wy", "wz",
	"apparent_wind", "lift", "drag", "aoa_deg",
	"tension_l", "tension_r", "bar_angle", "input",
}

// Save writes one run and returns its generated ID.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("flight_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Metrics = result.Metrics

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, smp := range result.Samples {
		if err := w.Write(sampleRow(smp)); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func sampleRow(smp sim.Sample) []string {
	st, tel := smp.State, smp.Telemetry
	vals := []float64{
		smp.Time,
		st.Position.X(), st.Position.Y(), st.Position.Z(),
		st.Velocity.X(), st.Velocity.Y(), st.Velocity.Z(),
		st.Orientation.W, st.Orientation.X(), st.Orientation.Y(), st.Orientation.Z(),
		st.AngularVelocity.X(), st.AngularVelocity.Y(), st.AngularVelocity.Z(),
		tel.ApparentWindSpeed, tel.Lift, tel.Drag, tel.AngleOfAttackDeg,
		tel.TensionLeft, tel.TensionRight, tel.BarAngle, smp.Input,
	}
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return row
}

// List returns the metadata of every stored run.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Series is one named column of a stored run.
type Series struct {
	Name   string
	Values []float64
}

// LoadSeries reads samples.csv back as named columns.
func (s *Store) LoadSeries(runID string) (map[string]Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return map[string]Series{}, nil
	}

	header := records[0]
	out := make(map[string]Series, len(header))
	cols := make([][]float64, len(header))
	for i := range cols {
		cols[i] = make([]float64, 0, len(records)-1)
	}

	for _, rec := range records[1:] {
		for i, field := range rec {
			if i >= len(cols) {
				break
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: bad value %q: %w", runID, field, err)
			}
			cols[i] = append(cols[i], v)
		}
	}

	for i, name := range header {
		out[name] = Series{Name: name, Values: cols[i]}
	}
	return out, nil
}

// ExportJSON writes a full run (metadata plus samples) as indented
// JSON to path, or stdout when path is empty.
func ExportJSON(path string, meta RunMetadata, result *sim.Result) error {
	payload := struct {
		Meta    RunMetadata  `json:"meta"`
		Samples []sim.Sample `json:"samples"`
	}{Meta: meta, Samples: result.Samples}

	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
