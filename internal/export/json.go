package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/molsim/internal/analysis"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/metrics"
	"github.com/san-kum/molsim/internal/sim"
)

type MoleculeData struct {
	Formula string  `json:"formula"`
	Name    string  `json:"name,omitempty"`
	Mass    float64 `json:"mass"`
	Atoms   int     `json:"atoms"`
}

// ExportData is a self-describing dump of one frame plus its chemistry.
type ExportData struct {
	Tick      uint64             `json:"tick"`
	Params    dynamo.Params      `json:"params"`
	Frame     *sim.Frame         `json:"frame"`
	Molecules []MoleculeData     `json:"molecules"`
	History   []metrics.Sample   `json:"history,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Collect gathers the export view of an engine's current state.
func Collect(e *sim.Engine, history []metrics.Sample, m map[string]float64) ExportData {
	data := ExportData{
		Tick:    e.Ticks(),
		Params:  e.Params(),
		Frame:   e.Frame(),
		History: history,
		Metrics: m,
	}
	for _, mol := range analysis.Components(e.World()) {
		data.Molecules = append(data.Molecules, MoleculeData{
			Formula: mol.Formula,
			Name:    mol.Name,
			Mass:    mol.Mass,
			Atoms:   mol.Size(),
		})
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func ExportJSONStdout(data ExportData) error {
	return WriteJSON(os.Stdout, data)
}
