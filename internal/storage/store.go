package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/fireworks/internal/fireworks"
)

const (
	metadataFile  = "metadata.json"
	positionsFile = "positions.csv"
	densityFile   = "density.csv"
)

type Store struct {
	baseDir string
	logger  *log.Logger
}

func New(baseDir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{baseDir: baseDir, logger: logger}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Particles   int                `json:"particles"`
	Steps       int                `json:"steps"`
	StepsTaken  int                `json:"steps_taken"`
	BoxSize     float64            `json:"box_size"`
	Slowdown    float64            `json:"slowdown"`
	Dt          float64            `json:"dt"`
	Gravity     float64            `json:"gravity"`
	BinsX       int                `json:"bins_x"`
	BinsY       int                `json:"bins_y"`
	SpeedMin    float64            `json:"speed_min"`
	SpeedMax    float64            `json:"speed_max"`
	Launch      string             `json:"launch"`
	Mode        string             `json:"mode"`
	FloorClamp  bool               `json:"floor_clamp"`
	Metrics     map[string]float64 `json:"metrics"`
	InBox       []int              `json:"in_box"`
	DensityPeak uint64             `json:"density_peak"`
	DensityHits uint64             `json:"density_total"`
}

// Params rebuilds the simulation parameters a run was made with.
func (m *RunMetadata) Params() fireworks.Params {
	return fireworks.Params{
		Particles:  m.Particles,
		Steps:      m.Steps,
		BoxSize:    m.BoxSize,
		Slowdown:   m.Slowdown,
		Dt:         m.Dt,
		Gravity:    m.Gravity,
		BinsX:      m.BinsX,
		BinsY:      m.BinsY,
		SpeedMin:   m.SpeedMin,
		SpeedMax:   m.SpeedMax,
		Seed:       m.Seed,
		Launch:     fireworks.Launch(m.Launch),
		Mode:       fireworks.Mode(m.Mode),
		FloorClamp: m.FloorClamp,
	}
}

// Save writes a run directory holding metadata.json, positions.csv and
// density.csv, and returns the run ID.
func (s *Store) Save(p fireworks.Params, result *fireworks.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("fireworks_%d", now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   now,
		Seed:        p.Seed,
		Particles:   p.Particles,
		Steps:       p.Steps,
		StepsTaken:  result.StepsTaken,
		BoxSize:     p.BoxSize,
		Slowdown:    p.Slowdown,
		Dt:          p.Dt,
		Gravity:     p.Gravity,
		BinsX:       p.BinsX,
		BinsY:       p.BinsY,
		SpeedMin:    p.SpeedMin,
		SpeedMax:    p.SpeedMax,
		Launch:      string(p.Launch),
		Mode:        string(p.Mode),
		FloorClamp:  p.FloorClamp,
		Metrics:     result.Metrics,
		InBox:       result.InBox,
		DensityPeak: result.Density.Max(),
		DensityHits: result.Density.Total,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writePositions(filepath.Join(runDir, positionsFile), result); err != nil {
		return "", err
	}
	if err := writeDensity(filepath.Join(runDir, densityFile), result.Density); err != nil {
		return "", err
	}

	s.logger.Debug("saved run", "id", runID, "dir", runDir, "steps", result.StepsTaken)
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writePositions(path string, result *fireworks.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"step", "time"}
	if len(result.X) > 0 {
		for i := range result.X[0] {
			header = append(header, fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for k := range result.X {
		row := make([]string, 0, 2+2*len(result.X[k]))
		row = append(row, strconv.Itoa(k+1), formatFloat(result.Times[k]))
		for i := range result.X[k] {
			row = append(row, formatFloat(result.X[k][i]), formatFloat(result.Y[k][i]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// writeDensity lays the map out as an image: one row per y bin, highest y
// first, one column per x bin.
func writeDensity(path string, snap fireworks.DensitySnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	bx, by := snap.Bins()
	for iy := by - 1; iy >= 0; iy-- {
		row := make([]string, bx)
		for ix := 0; ix < bx; ix++ {
			row[ix] = strconv.FormatUint(snap.Counts[ix][iy], 10)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
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
			s.logger.Warn("skipping unreadable run", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadPositions returns per-step x and y arrays and the step times.
func (s *Store) LoadPositions(runID string) (xs, ys [][]float64, times []float64, err error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, [][]float64{}, []float64{}, nil
	}

	for _, record := range records[1:] {
		if len(record) < 2 || len(record)%2 != 0 {
			return nil, nil, nil, fmt.Errorf("run %s: malformed positions row", runID)
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("run %s: %w", runID, err)
		}

		n := (len(record) - 2) / 2
		x := make([]float64, n)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			if x[i], err = strconv.ParseFloat(record[2+2*i], 64); err != nil {
				return nil, nil, nil, fmt.Errorf("run %s: %w", runID, err)
			}
			if y[i], err = strconv.ParseFloat(record[3+2*i], 64); err != nil {
				return nil, nil, nil, fmt.Errorf("run %s: %w", runID, err)
			}
		}
		times = append(times, t)
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys, times, nil
}

// LoadDensity reads density.csv back into a snapshot over the run's box.
func (s *Store) LoadDensity(runID string) (fireworks.DensitySnapshot, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return fireworks.DensitySnapshot{}, err
	}
	records, err := readCSV(filepath.Join(s.baseDir, runID, densityFile))
	if err != nil {
		return fireworks.DensitySnapshot{}, err
	}

	by := len(records)
	if by != meta.BinsY {
		return fireworks.DensitySnapshot{}, fmt.Errorf("run %s: density has %d rows, want %d", runID, by, meta.BinsY)
	}

	snap := fireworks.DensitySnapshot{
		Box:    meta.Params().Box(),
		Counts: make([][]uint64, meta.BinsX),
	}
	for ix := range snap.Counts {
		snap.Counts[ix] = make([]uint64, by)
	}
	for row, record := range records {
		if len(record) != meta.BinsX {
			return fireworks.DensitySnapshot{}, fmt.Errorf("run %s: density row %d has %d cells, want %d", runID, row, len(record), meta.BinsX)
		}
		iy := by - 1 - row
		for ix, cell := range record {
			c, err := strconv.ParseUint(cell, 10, 64)
			if err != nil {
				return fireworks.DensitySnapshot{}, fmt.Errorf("run %s: %w", runID, err)
			}
			snap.Counts[ix][iy] = c
			snap.Total += c
		}
	}
	return snap, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
