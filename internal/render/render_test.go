package render

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/faucetdb/fixturebake/internal/model"
)

func sampleArtifact() model.Artifact {
	return model.Artifact{
		Model:    "Articles",
		Schema:   "[\n\t\t'id' => ['type' => 'integer', 'null' => false, 'default' => null],\n]",
		Records:  "[\n\t\t[\n\t\t\t'id' => 1\n\t\t],\n\t]",
		FileName: "ArticlesFixture.php",
	}
}

func TestRender(t *testing.T) {
	out, err := Render(sampleArtifact())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"<?php\n",
		`namespace App\Test\Fixture;`,
		"class ArticlesFixture extends TestFixture {",
		"\tpublic $fields = [\n\t\t'id' => ['type' => 'integer', 'null' => false, 'default' => null],\n];",
		"\tpublic $records = [\n\t\t[\n\t\t\t'id' => 1\n\t\t],\n\t];",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered fixture missing %q\n%s", want, text)
		}
	}
	for _, absent := range []string{"$table", "$import"} {
		if strings.Contains(text, absent) {
			t.Errorf("rendered fixture should not contain %s", absent)
		}
	}
	if !strings.HasSuffix(text, "\n}\n") {
		t.Errorf("rendered fixture should end with the class brace, got %q", text[len(text)-10:])
	}
}

func TestRenderImportAndTable(t *testing.T) {
	art := sampleArtifact()
	art.Schema = ""
	art.Import = "['model' => 'Articles', 'records' => true]"
	art.Table = "legacy's"
	art.Namespace = "Blog"

	out, err := Render(art)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(out)

	for _, want := range []string{
		`namespace Blog\Test\Fixture;`,
		`public $table = 'legacy\'s';`,
		"public $import = ['model' => 'Articles', 'records' => true];",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered fixture missing %q\n%s", want, text)
		}
	}
	if strings.Contains(text, "$fields") {
		t.Error("imported schema must not render $fields")
	}
}

func TestRenderRequiresFileName(t *testing.T) {
	art := sampleArtifact()
	art.FileName = ""
	if _, err := Render(art); err == nil {
		t.Error("expected error for artifact without file name")
	}
}

func TestPath(t *testing.T) {
	tests := []struct {
		base, plugin, want string
	}{
		{"", "", DefaultPath},
		{"custom/fixtures", "", "custom/fixtures"},
		{"custom/fixtures", "Blog", filepath.Join("plugins", "Blog", "tests", "Fixture")},
	}
	for _, tt := range tests {
		if got := Path(tt.base, tt.plugin); got != tt.want {
			t.Errorf("Path(%q, %q) = %q, want %q", tt.base, tt.plugin, got, tt.want)
		}
	}
}

func TestWriterOverwriteProtection(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tests", "Fixture")
	art := sampleArtifact()

	path, err := Writer{Dir: dir}.Write(art, []byte("first"))
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	if path != filepath.Join(dir, "ArticlesFixture.php") {
		t.Errorf("path = %q", path)
	}

	_, err = Writer{Dir: dir}.Write(art, []byte("second"))
	if !errors.Is(err, ErrFileExists) {
		t.Fatalf("second write err = %v, want ErrFileExists", err)
	}
	if got, _ := os.ReadFile(path); string(got) != "first" {
		t.Errorf("file was overwritten without force: %q", got)
	}

	if _, err := (Writer{Dir: dir, Force: true}).Write(art, []byte("third")); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	if got, _ := os.ReadFile(path); string(got) != "third" {
		t.Errorf("forced write content = %q", got)
	}
}
