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

	"github.com/san-kum/molsim/internal/analysis"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	snapshotFile = "snapshot.json"
	metricsFile  = "metrics.csv"
)

// Store keeps saved runs under baseDir, one directory per run.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Ticks     uint64             `json:"ticks"`
	Atoms     int                `json:"atoms"`
	Bonds     int                `json:"bonds"`
	Params    dynamo.Params      `json:"params"`
	Molecules []string           `json:"molecules,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Run is everything a save writes.
type Run struct {
	Name    string
	Seed    int64
	Ticks   uint64
	World   *dynamo.World
	Params  dynamo.Params
	History []metrics.Sample
	Metrics map[string]float64
}

// Save writes run into a new directory and returns its id.
func (s *Store) Save(run Run) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d_%s", run.Name, now.Unix(), dynamo.NewRandomID()[:4])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      run.Name,
		Timestamp: now,
		Seed:      run.Seed,
		Ticks:     run.Ticks,
		Atoms:     run.World.NumAtoms(),
		Bonds:     run.World.NumBonds(),
		Params:    run.Params,
		Metrics:   run.Metrics,
	}
	for _, m := range analysis.Components(run.World) {
		if m.Size() > 1 {
			meta.Molecules = append(meta.Molecules, m.Formula)
		}
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	snap, err := Encode(run.World, run.Params)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, snapshotFile), snap, 0644); err != nil {
		return "", err
	}

	if err := writeHistory(filepath.Join(runDir, metricsFile), run.History); err != nil {
		return "", err
	}

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

var historyHeader = []string{"tick", "atoms", "bonds", "over_valency", "kinetic_energy"}

func writeHistory(path string, history []metrics.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(historyHeader); err != nil {
		return err
	}
	for _, h := range history {
		row := []string{
			strconv.FormatUint(h.Tick, 10),
			strconv.Itoa(h.Atoms),
			strconv.Itoa(h.Bonds),
			strconv.Itoa(h.OverValency),
			strconv.FormatFloat(h.KineticEnergy, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSnapshot reads the raw snapshot of a run, ready for Restore.
func (s *Store) LoadSnapshot(runID string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.baseDir, runID, snapshotFile))
}

// LoadHistory reads the per-tick metrics of a run. Malformed rows are
// skipped.
func (s *Store) LoadHistory(runID string) ([]metrics.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, metricsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []metrics.Sample{}, nil
	}

	out := make([]metrics.Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(historyHeader) {
			continue
		}
		tick, err1 := strconv.ParseUint(rec[0], 10, 64)
		atoms, err2 := strconv.Atoi(rec[1])
		bonds, err3 := strconv.Atoi(rec[2])
		over, err4 := strconv.Atoi(rec[3])
		ke, err5 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		out = append(out, metrics.Sample{Tick: tick, Atoms: atoms, Bonds: bonds, OverValency: over, KineticEnergy: ke})
	}
	return out, nil
}
