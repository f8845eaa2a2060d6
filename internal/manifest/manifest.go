// Package manifest keeps the run history of an output directory in manifest.json.
package manifest

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/autoclean-cli/internal/filter"
	"github.com/KaramelBytes/autoclean-cli/internal/normalize"
	"github.com/KaramelBytes/autoclean-cli/internal/utils"
)

const fileName = "manifest.json"

// ErrNotFound is returned by Load when the directory has no manifest.
var ErrNotFound = eris.New("manifest not found")

// Entry records one cleaning run.
type Entry struct {
	ID         string                  `json:"id"`
	Input      string                  `json:"input"`
	Profile    string                  `json:"profile"`
	Policy     string                  `json:"policy"`
	Rows       filter.Stats            `json:"rows"`
	Columns    []normalize.ColumnStats `json:"columns,omitempty"`
	Outputs    []string                `json:"outputs,omitempty"`
	Error      string                  `json:"error,omitempty"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

// Manifest is the run history persisted on disk.
type Manifest struct {
	Runs      []*Entry  `json:"runs"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// on-disk directory holding manifest.json
	rootDir string `json:"-"`
}

// New constructs an empty in-memory manifest. Call Save() to persist.
func New(dir string) *Manifest {
	now := time.Now()
	return &Manifest{CreatedAt: now, UpdatedAt: now, rootDir: dir}
}

// Load reads manifest.json from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, fileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrNotFound, "%s", path)
		}
		return nil, eris.Wrap(err, "read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, eris.Wrap(err, "parse manifest")
	}
	m.rootDir = dir
	return &m, nil
}

// Open loads the manifest in dir or starts a new one when none exists.
func Open(dir string) (*Manifest, error) {
	m, err := Load(dir)
	if eris.Is(err, ErrNotFound) {
		return New(dir), nil
	}
	return m, err
}

// RootDir returns the directory holding manifest.json.
func (m *Manifest) RootDir() string { return m.rootDir }

// Path returns the manifest file location.
func (m *Manifest) Path() string { return filepath.Join(m.rootDir, fileName) }

// Add appends an entry, assigning an ID when it has none.
func (m *Manifest) Add(e *Entry) *Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	m.Runs = append(m.Runs, e)
	m.UpdatedAt = time.Now()
	return e
}

// Find returns the entry with the given ID.
func (m *Manifest) Find(id string) (*Entry, bool) {
	for _, e := range m.Runs {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Latest returns up to n entries, most recently finished first. n <= 0 returns all.
func (m *Manifest) Latest(n int) []*Entry {
	out := make([]*Entry, len(m.Runs))
	copy(out, m.Runs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Save writes manifest.json using atomic write.
func (m *Manifest) Save() error {
	if m.rootDir == "" {
		return eris.New("manifest directory not set")
	}
	if err := utils.EnsureDir(m.rootDir); err != nil {
		return eris.Wrap(err, "ensure dir")
	}
	m.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(m.Path(), data)
}
