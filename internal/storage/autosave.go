package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/logging"
)

// Autosaver keeps one session file current. Save encodes on the caller's
// goroutine, which owns the world, and writes on a background goroutine.
// Writes that queue up collapse to the latest snapshot.
type Autosaver struct {
	path string
	log  logging.Logger

	mu      sync.Mutex
	pending []byte
	busy    bool
	wg      sync.WaitGroup
}

func NewAutosaver(path string, log logging.Logger) *Autosaver {
	if log == nil {
		log = logging.Discard
	}
	return &Autosaver{path: path, log: log}
}

func (a *Autosaver) Path() string { return a.path }

// Save snapshots w and p and schedules the write. It never blocks on I/O.
func (a *Autosaver) Save(w *dynamo.World, p dynamo.Params) {
	data, err := Encode(w, p)
	if err != nil {
		a.log.Errorf("autosave encode: %v", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = data
	if a.busy {
		return
	}
	a.busy = true
	a.wg.Add(1)
	go a.drain()
}

func (a *Autosaver) drain() {
	defer a.wg.Done()
	for {
		a.mu.Lock()
		data := a.pending
		a.pending = nil
		if data == nil {
			a.busy = false
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()

		if err := writeAtomic(a.path, data); err != nil {
			a.log.Warnf("autosave %s: %v", a.path, err)
			continue
		}
		a.log.Debugf("autosaved %d bytes to %s", len(data), a.path)
	}
}

// Flush waits for queued writes to finish.
func (a *Autosaver) Flush() { a.wg.Wait() }

// Load reads the session file. A missing file is not an error and returns
// nil data.
func (a *Autosaver) Load() ([]byte, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
