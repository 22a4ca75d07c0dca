package xg

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/richard-senior/tactimerge/internal/logger"
)

// strengthHeader is the canonical column order of a persisted strength table
var strengthHeader = []string{"team", "atk_home", "def_home", "atk_away", "def_away"}

// VersionedPath suffixes the base filename with the version tag before its
// extension, so data/team_strengths.csv at v2 becomes
// data/team_strengths_v2.csv
func VersionedPath(basePath, version string) string {
	ext := filepath.Ext(basePath)
	base := strings.TrimSuffix(basePath, ext)
	return fmt.Sprintf("%s_%s%s", base, version, ext)
}

// SaveStrengthTable writes the table to the versioned path derived from
// basePath, creating any missing directories. An existing file at that exact
// path is overwritten, last write wins. Returns the path written.
func SaveStrengthTable(table *StrengthTable, basePath string) (string, error) {
	path := VersionedPath(basePath, table.Version)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create strengths directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create strengths file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(strengthHeader); err != nil {
		return "", err
	}
	for _, name := range table.TeamNames() {
		s := table.Teams[name]
		row := []string{
			name,
			strconv.FormatFloat(s.AtkHome, 'f', -1, 64),
			strconv.FormatFloat(s.DefHome, 'f', -1, 64),
			strconv.FormatFloat(s.AtkAway, 'f', -1, 64),
			strconv.FormatFloat(s.DefAway, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	logger.Info("Saved team strengths", table.Version, "to", path)
	return path, nil
}

// LoadStrengthTable reads a persisted strength table. An absent or unreadable
// file surfaces as a StorageUnavailableError; the load fails fast and is
// never retried here.
func LoadStrengthTable(path string) (*StrengthTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StorageUnavailableError{Path: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &StorageUnavailableError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, &StorageUnavailableError{Path: path, Err: fmt.Errorf("strengths file is empty")}
	}

	table := &StrengthTable{Teams: map[string]*TeamStrength{}}
	for _, row := range rows[1:] {
		if len(row) < 5 {
			return nil, &StorageUnavailableError{Path: path, Err: fmt.Errorf("malformed strengths row %v", row)}
		}
		values := make([]float64, 4)
		for i := 0; i < 4; i++ {
			values[i], err = strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
			if err != nil {
				return nil, &StorageUnavailableError{Path: path, Err: fmt.Errorf("bad value in row %v: %w", row, err)}
			}
		}
		table.Teams[row[0]] = &TeamStrength{
			Team:    row[0],
			AtkHome: values[0],
			DefHome: values[1],
			AtkAway: values[2],
			DefAway: values[3],
		}
	}

	return table, nil
}

// TableCache is the shared in-memory copy of the strength table used by the
// serving process. It loads lazily on first access under a scoped lock, so
// concurrent first callers cannot race into two divergent copies; after a
// successful load the table is never mutated and is refreshed only by
// process restart.
type TableCache struct {
	mu    sync.Mutex
	path  string
	table *StrengthTable
}

// NewTableCache returns a cache that will load from path on first access
func NewTableCache(path string) *TableCache {
	return &TableCache{path: path}
}

// Get returns the cached table, loading it on the first call. A failed load
// caches nothing, so the error surfaces to every caller until the file
// exists.
func (c *TableCache) Get() (*StrengthTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table != nil {
		return c.table, nil
	}

	table, err := LoadStrengthTable(c.path)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded strength table from", c.path, "with", len(table.Teams), "teams")
	c.table = table
	return c.table, nil
}

var (
	defaultCacheMu sync.Mutex
	defaultCache   *TableCache
)

// GetStrengths is the process-wide accessor for the canonical strength table
// at Config.StrengthsPath. The first caller triggers the load; everyone else
// shares the same in-memory copy.
func GetStrengths() (*StrengthTable, error) {
	defaultCacheMu.Lock()
	if defaultCache == nil {
		defaultCache = NewTableCache(Config.StrengthsPath)
	}
	cache := defaultCache
	defaultCacheMu.Unlock()

	return cache.Get()
}
