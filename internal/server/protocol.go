package server

import (
	"encoding/json"

	"github.com/san-kum/molsim/internal/analysis"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/sim"
)

// Command types accepted from clients.
const (
	CmdSpawn    = "spawn"
	CmdLink     = "link"
	CmdUnlink   = "unlink"
	CmdPick     = "pick"
	CmdDelete   = "delete"
	CmdDrag     = "drag"
	CmdMove     = "move"
	CmdDrop     = "drop"
	CmdCycle    = "cycle"
	CmdSelect   = "select"
	CmdClear    = "clear"
	CmdPause    = "pause"
	CmdParams   = "params"
	CmdPreset   = "preset"
	CmdSnapshot = "snapshot"
	CmdRestore  = "restore"
)

// Command is one client request. Atom-targeting commands name the atom by
// ID, or by position when ID is empty.
type Command struct {
	Type    string          `json:"type"`
	Seq     int             `json:"seq,omitempty"`
	ID      dynamo.AtomID   `json:"id,omitempty"`
	A       dynamo.AtomID   `json:"a,omitempty"`
	B       dynamo.AtomID   `json:"b,omitempty"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Element int             `json:"element"`
	Delta   int             `json:"delta,omitempty"`
	Name    string          `json:"name,omitempty"`
	Spin    bool            `json:"spin,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Message types sent to clients.
const (
	MsgFrame  = "frame"
	MsgResult = "result"
	MsgError  = "error"
)

// Message is everything the server sends. Frames go to every client;
// results and errors answer one command.
type Message struct {
	Type     string          `json:"type"`
	Seq      int             `json:"seq,omitempty"`
	Frame    *sim.Frame      `json:"frame,omitempty"`
	Result   string          `json:"result,omitempty"`
	IDs      []dynamo.AtomID `json:"ids,omitempty"`
	Molecule *MoleculeView   `json:"molecule,omitempty"`
	Params   *dynamo.Params  `json:"params,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// MoleculeView is the analysed selection as clients see it.
type MoleculeView struct {
	Atoms   []dynamo.AtomID `json:"atoms"`
	Formula string          `json:"formula"`
	Display string          `json:"display"`
	Name    string          `json:"name,omitempty"`
	Mass    float64         `json:"mass"`
}

func moleculeView(m *analysis.Molecule) *MoleculeView {
	if m == nil {
		return nil
	}
	return &MoleculeView{
		Atoms:   m.Atoms,
		Formula: m.Formula,
		Display: m.Display,
		Name:    m.Name,
		Mass:    m.Mass,
	}
}

func encode(m Message) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		data, _ = json.Marshal(Message{Type: MsgError, Seq: m.Seq, Error: err.Error()})
	}
	return data
}
