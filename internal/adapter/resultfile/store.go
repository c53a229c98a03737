// Package resultfile persists result tables to the save directory.
package resultfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
)

// Store writes one JSON file per run under dir. Files are replaced
// atomically, so a rerun overwrites the previous result in place.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. The directory is created on first write.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the save directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where a run's table is written.
func (s *Store) Path(run domain.Run) string {
	return domain.ResultPath(s.dir, run)
}

// Load writes table to the run's result path.
func (s *Store) Load(ctx context.Context, run domain.Run, table domain.ResultTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}

	data, err := sonic.ConfigStd.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result table: %w", err)
	}

	path := s.Path(run)
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}

	s.logger.Info("result table saved", "run", run.Name, "path", path, "rows", table.Len())
	return nil
}

// Read decodes a result file written by Load.
func Read(path string) (domain.ResultTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ResultTable{}, fmt.Errorf("read result file: %w", err)
	}
	var table domain.ResultTable
	if err := sonic.Unmarshal(data, &table); err != nil {
		return domain.ResultTable{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if table.Rows == nil {
		table.Rows = []domain.ResultRow{}
	}
	return table, nil
}
