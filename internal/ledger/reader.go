package ledger

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Reader reads the ledger file.
type Reader struct {
	fs   afero.Fs
	path string
}

// NewReader creates a [Reader] for the ledger at path.
func NewReader(fsys afero.Fs, path string) *Reader {
	return &Reader{fs: fsys, path: path}
}

// Read parses the ledger. A missing file is an empty ledger.
func (r *Reader) Read() (*Ledger, error) {
	return read(r.fs, r.path)
}

// Runs returns the runs recorded for a network, oldest first. An empty
// network returns every run.
func (r *Reader) Runs(network string) ([]Run, error) {
	l, err := r.Read()
	if err != nil {
		return nil, err
	}

	var out []Run
	for _, run := range l.Runs {
		if network == "" || run.Network == network {
			out = append(out, run)
		}
	}
	return out, nil
}

// Latest returns the most recent run for a network.
//
// Returns [ErrNoRuns] if the network has none.
func (r *Reader) Latest(network string) (*Run, error) {
	runs, err := r.Runs(network)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w for network %s", ErrNoRuns, network)
	}
	latest := runs[len(runs)-1]
	return &latest, nil
}

func read(fsys afero.Fs, path string) (*Ledger, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Ledger{}, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var l Ledger
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	return &l, nil
}
