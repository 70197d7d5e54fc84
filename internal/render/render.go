// Package render turns an assembled fixture into file contents and writes
// it into the fixture directory.
package render

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// DefaultNamespace is used when an artifact carries no namespace.
const DefaultNamespace = "App"

// DefaultPath is the fixture directory relative to the application root.
const DefaultPath = "tests/Fixture"

// ErrFileExists is returned when the target file exists and overwriting
// was not requested.
var ErrFileExists = errors.New("fixture file already exists")

//go:embed templates/fixture.php.tmpl
var fixtureTemplate string

var tmpl = template.Must(template.New("fixture").Funcs(template.FuncMap{
	"quote": func(s string) string { return literal.Serialize(literal.String(s)) },
}).Parse(fixtureTemplate))

type view struct {
	model.Artifact
	ClassName string
}

// Render fills the fixture class template with the artifact sections.
func Render(art model.Artifact) ([]byte, error) {
	if art.Namespace == "" {
		art.Namespace = DefaultNamespace
	}
	v := view{
		Artifact:  art,
		ClassName: strings.TrimSuffix(art.FileName, filepath.Ext(art.FileName)),
	}
	if v.ClassName == "" {
		return nil, fmt.Errorf("render %q: artifact has no file name", art.Model)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render %q: %w", art.Model, err)
	}
	return buf.Bytes(), nil
}

// Path returns the fixture directory for an application or a plugin.
// An empty base falls back to DefaultPath.
func Path(base, plugin string) string {
	if plugin != "" {
		return filepath.Join("plugins", plugin, "tests", "Fixture")
	}
	if base == "" {
		return DefaultPath
	}
	return base
}

// Writer stores rendered fixtures on disk.
type Writer struct {
	Dir   string
	Force bool
}

// Write stores content as <Dir>/<FileName> and returns the path written.
// An existing file is only replaced when Force is set.
func (w Writer) Write(art model.Artifact, content []byte) (string, error) {
	if art.FileName == "" {
		return "", fmt.Errorf("write %q: artifact has no file name", art.Model)
	}
	path := filepath.Join(w.Dir, art.FileName)

	if !w.Force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s: %w", path, ErrFileExists)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create fixture directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write fixture: %w", err)
	}
	return path, nil
}
