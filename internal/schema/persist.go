package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PersistedSchema is a JSON sidecar snapshot of a file's inferred
// TableSchema, letting a reopen skip re-sampling. Adapted from
// schema/manager.go's Schema (Load/Save, getSchemaPath naming convention),
// repurposed from virtual-column defaults to a persisted column schema.
type PersistedSchema struct {
	Columns []ColumnSchema `json:"columns"`
	path    string
	mu      sync.Mutex
}

// LoadPersisted reads the schema sidecar for csvPath, if present. A missing
// sidecar is not an error - the caller falls back to InferSchema.
func LoadPersisted(csvPath string) (*PersistedSchema, bool, error) {
	path := schemaSidecarPath(csvPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PersistedSchema{path: path}, false, nil
		}
		return nil, false, fmt.Errorf("schema: read sidecar %s: %w", path, err)
	}
	ps := &PersistedSchema{path: path}
	if err := json.Unmarshal(data, ps); err != nil {
		return nil, false, fmt.Errorf("schema: unmarshal sidecar %s: %w", path, err)
	}
	return ps, true, nil
}

// Save persists the schema sidecar next to csvPath.
func (ps *PersistedSchema) Save(s *TableSchema) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.Columns = s.Columns
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("schema: marshal sidecar: %w", err)
	}
	if err := os.WriteFile(ps.path, data, 0o644); err != nil {
		return fmt.Errorf("schema: write sidecar %s: %w", ps.path, err)
	}
	return nil
}

// TableSchema converts a persisted snapshot back into a TableSchema.
func (ps *PersistedSchema) TableSchema() *TableSchema {
	return &TableSchema{Columns: ps.Columns}
}

func schemaSidecarPath(csvPath string) string {
	dir := filepath.Dir(csvPath)
	base := filepath.Base(csvPath)
	return filepath.Join(dir, base+".vschema.json")
}
