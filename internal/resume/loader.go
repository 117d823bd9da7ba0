package resume

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// ErrInvalidStructure reports a resume document that cannot enter a run.
var ErrInvalidStructure = errors.New("invalid resume structure")

//go:embed schema.json
var schemaDocument []byte

var schema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaDocument))
	if err != nil {
		panic(fmt.Sprintf("compile resume schema: %v", err))
	}
	return s
}

// StructureError lists the schema violations found in a single document.
type StructureError struct {
	File   string
	Issues []string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidStructure, e.File, strings.Join(e.Issues, "; "))
}

func (e *StructureError) Is(target error) bool { return target == ErrInvalidStructure }

// Skipped records a document left out of a batch.
type Skipped struct {
	File   string
	Reason string
}

// DirSource loads parsed resumes from *.json files in a directory.
type DirSource struct {
	Dir    string
	Limit  int
	Logger *zap.Logger

	skipped []Skipped
}

func NewDirSource(dir string, limit int, logger *zap.Logger) *DirSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirSource{Dir: dir, Limit: limit, Logger: logger}
}

// Load reads every *.json file in name order. A document that fails to
// decode or validate is skipped with a warning. The only error returned is
// a failure to read the directory itself; an empty result is for the caller
// to judge.
func (s *DirSource) Load(ctx context.Context) ([]*Resume, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read resume directory %q: %w", s.Dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	s.skipped = nil
	resumes := make([]*Resume, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Limit > 0 && len(resumes) >= s.Limit {
			break
		}

		path := filepath.Join(s.Dir, name)
		r, err := ReadFile(path)
		if err != nil {
			s.skip(name, err)
			continue
		}

		for _, warning := range Warnings(r) {
			s.Logger.Debug("resume has gaps", zap.String("file", name), zap.String("warning", warning))
		}
		resumes = append(resumes, r)
	}

	s.Logger.Info("loaded resumes",
		zap.String("dir", s.Dir),
		zap.Int("loaded", len(resumes)),
		zap.Int("skipped", len(s.skipped)),
	)

	return resumes, nil
}

// Skipped returns the documents left out by the last Load.
func (s *DirSource) Skipped() []Skipped {
	return s.skipped
}

func (s *DirSource) skip(name string, err error) {
	s.skipped = append(s.skipped, Skipped{File: name, Reason: err.Error()})
	s.Logger.Warn("skipping resume", zap.String("file", name), zap.Error(err))
}

// ReadFile reads, validates and normalizes a single parsed resume document.
// The candidate ID is the file name without its extension.
func ReadFile(path string) (*Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}

	name := filepath.Base(path)
	if err := Validate(name, data); err != nil {
		return nil, err
	}

	var r Resume
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &StructureError{File: name, Issues: []string{err.Error()}}
	}

	r.ID = strings.TrimSuffix(name, filepath.Ext(name))
	r.Filename = name
	Normalize(&r)

	return &r, nil
}

// Validate checks a raw document against the embedded resume schema.
func Validate(name string, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &StructureError{File: name, Issues: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return &StructureError{File: name, Issues: issues}
}

// Warnings lists non-fatal gaps in a resume that weaken its scoring.
func Warnings(r *Resume) []string {
	var warnings []string
	if r.PersonalInfo.Email == "" {
		warnings = append(warnings, "missing candidate email")
	}
	if len(r.Experience) == 0 {
		warnings = append(warnings, "no experience listed")
	}
	if len(r.Skills.Technical) == 0 && len(r.Skills.Tools) == 0 {
		warnings = append(warnings, "no skills listed")
	}
	return warnings
}
