package ledger

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"arpdeploy/internal/sequencer"
)

// Writer records a single run. It implements [sequencer.HandleRecorder].
type Writer struct {
	fs    afero.Fs
	path  string
	clock func() time.Time

	mu    sync.Mutex
	runID string
}

// NewWriter creates a [Writer] for the ledger at path.
func NewWriter(fsys afero.Fs, path string) *Writer {
	return &Writer{fs: fsys, path: path, clock: time.Now}
}

// SetClock replaces the time source for run timestamps.
func (w *Writer) SetClock(now func() time.Time) {
	w.clock = now
}

// RunID returns the ID of the run started by [Writer.Begin].
func (w *Writer) RunID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runID
}

// Begin appends a new running entry and returns its ID.
func (w *Writer) Begin(network string, chainID uint64) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.runID != "" {
		return "", fmt.Errorf("run %s already started", w.runID)
	}

	unlock, err := w.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	id := uuid.NewString()
	l, err := read(w.fs, w.path)
	if err != nil {
		return "", err
	}
	l.Runs = append(l.Runs, Run{
		ID:        id,
		Network:   network,
		ChainID:   chainID,
		StartedAt: w.clock().UTC(),
		State:     StateRunning,
		Contracts: []Contract{},
	})
	if err := w.write(l); err != nil {
		return "", err
	}

	w.runID = id
	return id, nil
}

// RecordHandle appends a deployed contract to the current run.
func (w *Writer) RecordHandle(h sequencer.Handle) error {
	return w.update(func(run *Run) {
		run.Contracts = append(run.Contracts, contractFromHandle(h))
	})
}

// Finish sets the run's final state. runErr is stored when non-nil.
func (w *Writer) Finish(state sequencer.State, runErr error) error {
	return w.update(func(run *Run) {
		finished := w.clock().UTC()
		run.FinishedAt = &finished
		run.State = StateOf(state)
		if runErr != nil {
			run.Error = runErr.Error()
		}
	})
}

func (w *Writer) update(fn func(run *Run)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.runID == "" {
		return errors.New("ledger run not started")
	}

	unlock, err := w.lock()
	if err != nil {
		return err
	}
	defer unlock()

	l, err := read(w.fs, w.path)
	if err != nil {
		return err
	}

	for i := range l.Runs {
		if l.Runs[i].ID == w.runID {
			fn(&l.Runs[i])
			return w.write(l)
		}
	}
	return fmt.Errorf("run %s not found in ledger", w.runID)
}

// write replaces the ledger file atomically.
func (w *Writer) write(l *Ledger) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if err := w.fs.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := afero.TempFile(w.fs, filepath.Dir(w.path), ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = w.fs.Chmod(tmpPath, 0644)
	}
	if err == nil {
		err = w.fs.Rename(tmpPath, w.path)
	}
	if err != nil {
		_ = w.fs.Remove(tmpPath)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// pathLocks serializes writers of the same ledger within the process.
var pathLocks sync.Map

// lock holds the ledger for one read-modify-write. On the OS filesystem a
// lock file next to the ledger also excludes other processes.
func (w *Writer) lock() (func(), error) {
	path := filepath.Clean(w.path)
	mu, _ := pathLocks.LoadOrStore(path, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()

	if _, ok := w.fs.(*afero.OsFs); !ok {
		return mu.(*sync.Mutex).Unlock, nil
	}

	if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		mu.(*sync.Mutex).Unlock()
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		mu.(*sync.Mutex).Unlock()
		return nil, fmt.Errorf("failed to lock ledger: %w", err)
	}
	return func() {
		_ = fl.Unlock()
		mu.(*sync.Mutex).Unlock()
	}, nil
}
