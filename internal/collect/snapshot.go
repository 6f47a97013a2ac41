package collect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/jonathan/etender-index/internal/schemas"
	"github.com/jonathan/etender-index/internal/types"
	"github.com/jonathan/etender-index/internal/window"
)

var snapshotName = regexp.MustCompile(`^(\d{4})-(\d{2})-p(\d+)\.json$`)

// SnapshotStore writes raw page batches under {root}/{YYYY}/{MM}/{YYYY}-{MM}-p{page}.json.
type SnapshotStore struct {
	root string
}

// NewSnapshotStore creates a store rooted at root.
func NewSnapshotStore(root string) *SnapshotStore {
	return &SnapshotStore{root: root}
}

// Root returns the store's root directory.
func (s *SnapshotStore) Root() string {
	return s.root
}

// MonthDir returns the directory holding one month's snapshots.
func (s *SnapshotStore) MonthDir(w window.Window) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", w.Year), fmt.Sprintf("%02d", int(w.Month)))
}

// PagePath returns the snapshot path for one page.
func (s *SnapshotStore) PagePath(w window.Window, page int) string {
	return filepath.Join(s.MonthDir(w), fmt.Sprintf("%s-p%d.json", w.Label(), page))
}

// EnsureMonth creates the month directory if needed.
func (s *SnapshotStore) EnsureMonth(w window.Window) error {
	if err := os.MkdirAll(s.MonthDir(w), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", s.MonthDir(w), err)
	}
	return nil
}

// Write stores the raw batch of one page unchanged and returns its path.
func (s *SnapshotStore) Write(w window.Window, page int, raw json.RawMessage) (string, error) {
	path := s.PagePath(w, page)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return path, nil
}

// Prune removes the month's snapshots numbered fromPage and above, left behind by
// an earlier run that paged further, and returns the removed paths. A missing
// month directory has nothing to prune.
func (s *SnapshotStore) Prune(w window.Window, fromPage int) ([]string, error) {
	dir := s.MonthDir(w)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory %s: %w", dir, err)
	}

	var removed []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := snapshotName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		page, _ := strconv.Atoi(m[3])
		if year != w.Year || month != int(w.Month) || page < fromPage {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove stale snapshot %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// Snapshot identifies one stored page.
type Snapshot struct {
	Path  string
	Year  int
	Month int
	Page  int
}

// List returns every snapshot under the root ordered by year, month, then page.
// Files not matching the snapshot naming scheme are ignored.
func (s *SnapshotStore) List() ([]Snapshot, error) {
	var out []Snapshot
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m := snapshotName.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		page, _ := strconv.Atoi(m[3])
		out = append(out, Snapshot{Path: path, Year: year, Month: month, Page: page})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots in %s: %w", s.root, err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Page < b.Page
	})
	return out, nil
}

// Load validates and decodes one snapshot file.
func (s *SnapshotStore) Load(path string) ([]types.TenderRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	if err := schemas.ValidateBytes(schemas.PageBatch, data); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []types.TenderRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return records, nil
}
