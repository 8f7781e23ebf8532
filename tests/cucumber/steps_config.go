//go:build cucumber

package cucumber

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
)

// aProjectWithStepFiles writes one decorator declaration per table row.
func (s *featureState) aProjectWithStepFiles(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("step file table needs a header and rows")
	}
	bodies := map[string]*strings.Builder{}
	order := []string{}
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 3 {
			return fmt.Errorf("expected file, keyword and pattern columns")
		}
		file := strings.TrimSpace(row.Cells[0].Value)
		keyword := strings.TrimSpace(row.Cells[1].Value)
		pattern := strings.TrimSpace(row.Cells[2].Value)
		body, ok := bodies[file]
		if !ok {
			body = &strings.Builder{}
			bodies[file] = body
			order = append(order, file)
		}
		fmt.Fprintf(body, "@%s(%q)\nasync step%d() {}\n\n", keyword, pattern, body.Len())
	}
	for _, file := range order {
		if err := s.writeProjectFile(file, bodies[file].String()); err != nil {
			return err
		}
	}
	return nil
}

// theCommonStepFile adds a file loaded for every non-empty run.
func (s *featureState) theCommonStepFile(file string) error {
	s.commonFiles = append(s.commonFiles, file)
	return nil
}

// aFeatureFileWithSteps wraps the given steps in a single scenario.
func (s *featureState) aFeatureFileWithSteps(path string, steps *godog.DocString) error {
	var b strings.Builder
	b.WriteString("Feature: Generated\n  Scenario: Generated scenario\n")
	for _, line := range strings.Split(steps.Content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString("    " + line + "\n")
		}
	}
	return s.writeProjectFile(path, b.String())
}

// aFeatureFileContaining writes the document verbatim.
func (s *featureState) aFeatureFileContaining(path string, content *godog.DocString) error {
	return s.writeProjectFile(path, content.Content+"\n")
}

func (s *featureState) writeProjectFile(rel, body string) error {
	path := filepath.Join(s.projectDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}
