// Package record persists finished summaries as timestamped JSON files.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileTimeLayout is the YYYYMMDD_HHMMSS stamp used in file names.
const fileTimeLayout = "20060102_150405"

// maxSuffix bounds the _N collision search.
const maxSuffix = 1000

// SummaryRecord is what gets written to disk for one summary.
type SummaryRecord struct {
	Summary    string    `json:"summary"`
	Timestamp  time.Time `json:"timestamp"`
	Transcript string    `json:"transcript,omitempty"`
}

// Store writes records into a directory. Records are never overwritten.
type Store struct {
	dir               string
	includeTranscript bool
	docx              bool
	now               func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTranscript stores the source transcript next to the summary.
func WithTranscript(include bool) Option {
	return func(s *Store) { s.includeTranscript = include }
}

// WithDocx also writes a .docx rendering of every summary.
func WithDocx(enabled bool) Option {
	return func(s *Store) { s.docx = enabled }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates the directory if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("record: create summary dir %s: %w", dir, err)
	}
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory records are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes summary (and optionally the transcript) to
// summary_YYYYMMDD_HHMMSS.json and returns the path of the JSON file.
func (s *Store) Save(summary, transcript string) (string, error) {
	now := s.now()
	rec := SummaryRecord{
		Summary:   summary,
		Timestamp: now.Truncate(time.Second),
	}
	if s.includeTranscript {
		rec.Transcript = transcript
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("record: encode: %w", err)
	}
	data = append(data, '\n')

	f, path, err := s.create("summary_"+now.Format(fileTimeLayout), ".json")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("record: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("record: close %s: %w", path, err)
	}

	if s.docx {
		docPath := strings.TrimSuffix(path, ".json") + ".docx"
		title := "Meeting summary " + now.Format("2006-01-02 15:04")
		if err := WriteDocx(docPath, title, summary); err != nil {
			return path, err
		}
	}
	return path, nil
}

// create opens a new file named base+ext, or base_N+ext when that is taken.
func (s *Store) create(base, ext string) (*os.File, string, error) {
	for n := 0; n < maxSuffix; n++ {
		name := base + ext
		if n > 0 {
			name = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("record: create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("record: no free file name for %s%s in %s", base, ext, s.dir)
}

// Load reads a record written by Save.
func Load(path string) (*SummaryRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("record: read %s: %w", path, err)
	}
	var rec SummaryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("record: parse %s: %w", path, err)
	}
	return &rec, nil
}
