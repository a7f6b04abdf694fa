package localconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/quill-cms/quill/internal/platform"
)

// Record is the on-disk cloud configuration.
type Record struct {
	Token     string `json:"token,omitempty"`
	InstallID string `json:"installId,omitempty"`

	// Extra holds keys this version does not know about.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownKeys = []string{"token", "installId"}

// UnmarshalJSON decodes the known fields and keeps everything else in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Record(p)

	for _, k := range knownKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

// MarshalJSON encodes the known fields merged with Extra.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+len(knownKeys))
	for k, v := range r.Extra {
		out[k] = v
	}
	if r.Token != "" {
		out["token"] = r.Token
	}
	if r.InstallID != "" {
		out["installId"] = r.InstallID
	}
	return json.Marshal(out)
}

// Store reads and writes a Record at Path.
type Store struct {
	Path string
}

// NewStore returns a store for the record at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the record. A missing file yields an empty record.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return &Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cloud record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing cloud record %s: %w", s.Path, err)
	}
	return &rec, nil
}

// Save replaces the record on disk with rec.
func (s *Store) Save(rec *Record) error {
	if rec == nil {
		return errors.New("saving cloud record: nil record")
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cloud record: %w", err)
	}
	if err := platform.WriteFileAtomic(s.Path, data, platform.FilePermSecure); err != nil {
		return fmt.Errorf("writing cloud record: %w", err)
	}
	return nil
}
