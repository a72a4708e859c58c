package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultRawDataDir is the directory the curation phase reads from.
const DefaultRawDataDir = "Raw_Data"

// RawDocument is one extracted page ready to be persisted as a raw text file.
type RawDocument struct {
	Subject     string    `json:"subject"`
	SourceURL   string    `json:"source_url"`
	SourceIndex int       `json:"source_index"`
	Text        string    `json:"-"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// RawFile describes one file in the raw data directory.
type RawFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// RawStore persists extracted page text as UTF-8 files under a flat
// directory, named deterministically from subject and source index. Files
// are written exactly once per successful fetch and overwritten when a batch
// is re-run for the same subject and index.
type RawStore struct {
	dir string
}

// NewRawStore creates the raw data directory if needed. Failure here aborts
// the whole batch since no output could be persisted.
func NewRawStore(dir string) (*RawStore, error) {
	if dir == "" {
		dir = DefaultRawDataDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create raw data directory %s: %w", dir, err)
	}
	return &RawStore{dir: dir}, nil
}

// Dir returns the raw data directory path.
func (rs *RawStore) Dir() string {
	return rs.dir
}

// SanitizeSubject makes a subject name filesystem-safe: spaces become
// underscores and path separators are dropped.
func SanitizeSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	subject = strings.ReplaceAll(subject, " ", "_")
	subject = strings.ReplaceAll(subject, "/", "")
	subject = strings.ReplaceAll(subject, "\\", "")
	return subject
}

// FileName returns the deterministic output name for a subject and
// 1-based source index.
func FileName(subject string, sourceIndex int) string {
	return fmt.Sprintf("%s_Source_%d.txt", SanitizeSubject(subject), sourceIndex)
}

// Write persists a raw document and returns the file name. The file opens
// with a short provenance header (the curation phase infers the subject from
// the "Role Model:" line) followed by the extracted text verbatim.
func (rs *RawStore) Write(doc *RawDocument) (string, error) {
	name := FileName(doc.Subject, doc.SourceIndex)
	path := filepath.Join(rs.dir, name)

	var builder strings.Builder
	builder.WriteString("Role Model: " + doc.Subject + "\n")
	builder.WriteString("Source URL: " + doc.SourceURL + "\n")
	builder.WriteString("Retrieved: " + doc.RetrievedAt.UTC().Format(time.RFC3339) + "\n")
	builder.WriteString("\n")
	builder.WriteString(doc.Text)
	builder.WriteString("\n")

	if err := os.WriteFile(path, []byte(builder.String()), 0644); err != nil {
		return "", fmt.Errorf("write raw file %s: %w", path, err)
	}

	log.Info().
		Str("file", name).
		Str("source_url", doc.SourceURL).
		Int("characters", len(doc.Text)).
		Msg("Raw document persisted")

	return name, nil
}

// List returns the raw text files available for curation, sorted by name.
func (rs *RawStore) List() ([]RawFile, error) {
	entries, err := os.ReadDir(rs.dir)
	if err != nil {
		return nil, fmt.Errorf("list raw data directory %s: %w", rs.dir, err)
	}

	files := make([]RawFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, RawFile{
			Name: entry.Name(),
			Path: filepath.Join(rs.dir, entry.Name()),
			Size: info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Read returns the content of a raw file by name.
func (rs *RawStore) Read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(rs.dir, name))
	if err != nil {
		return "", fmt.Errorf("read raw file %s: %w", name, err)
	}
	return string(data), nil
}

// InferSubject extracts the subject from a raw file's provenance header.
// Returns the empty string when no header is present.
func InferSubject(content string) string {
	for _, line := range strings.Split(content, "\n") {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "role model:") {
			return strings.TrimSpace(line[len("role model:"):])
		}
	}
	return ""
}
