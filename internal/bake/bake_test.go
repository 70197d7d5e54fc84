package bake

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/faucetdb/fixturebake/internal/config"
	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/connector/sqlite"
	"github.com/faucetdb/fixturebake/internal/fixture"
	"github.com/faucetdb/fixturebake/internal/render"
)

const testSchema = `
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title VARCHAR(20) NOT NULL,
	published BOOLEAN NOT NULL DEFAULT 0
);
CREATE TABLE legacy_users (
	id INTEGER PRIMARY KEY,
	name VARCHAR(50)
);
INSERT INTO posts (id, title, published) VALUES
	(1, 'Hello', 1),
	(2, 'Draft', 0),
	(3, 'World', 1);
`

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

type testEnv struct {
	baker *Baker
	out   *bytes.Buffer
	dir   string
	cfg   *config.YAMLConfig
}

// newTestEnv creates a SQLite database file, a config pointing at it and a
// Baker writing fixtures under a temporary directory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	db.Close()

	cfg := config.DefaultYAMLConfig()
	cfg.Fixtures.Path = filepath.Join(dir, "tests", "Fixture")
	cfg.Connections[config.DefaultConnection] = config.ConnectionYAML{Driver: "sqlite", DSN: dbPath}
	cfg.Connections["reporting"] = config.ConnectionYAML{Driver: "sqlite", DSN: dbPath}

	registry := connector.NewRegistry()
	registry.RegisterDriver("sqlite", sqlite.New)
	t.Cleanup(registry.CloseAll)

	b := New(cfg, registry, nil)
	out := &bytes.Buffer{}
	b.SetOutput(out)
	b.SetGenerator(&fixture.Generator{
		Now:     func() time.Time { return fixedNow },
		NewUUID: func() string { return "uuid" },
	})
	return &testEnv{baker: b, out: out, dir: dir, cfg: cfg}
}

func intPtr(n int) *int { return &n }

func TestBuild(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		model       string
		opts        Options
		contains    []string
		notContains []string
		records     int
	}{
		{
			name:  "single bake defaults to one record",
			model: "posts",
			contains: []string{
				"class PostsFixture extends TestFixture {",
				`namespace App\Test\Fixture;`,
				"'title' => ['type' => 'string', 'length' => 20",
				"'title' => 'Lorem ipsum dolor '",
			},
			notContains: []string{"$import", "$table"},
			records:     1,
		},
		{
			name:     "explicit count",
			model:    "Posts",
			opts:     Options{Count: intPtr(3)},
			records:  3,
			contains: []string{"public $fields"},
		},
		{
			name:        "import schema drops fields",
			model:       "Posts",
			opts:        Options{ImportSchema: true},
			contains:    []string{"public $import = ['model' => 'Posts'];"},
			notContains: []string{"public $fields"},
			records:     1,
		},
		{
			name:     "non-default connection is named in the import",
			model:    "Posts",
			opts:     Options{ImportSchema: true, Connection: "reporting"},
			contains: []string{"public $import = ['model' => 'Posts', 'connection' => 'reporting'];"},
			records:  1,
		},
		{
			name:     "table override",
			model:    "Users",
			opts:     Options{Table: "legacy_users"},
			contains: []string{"public $table = 'legacy_users';", "class UsersFixture"},
			records:  1,
		},
		{
			name:     "plugin name sets namespace",
			model:    "Blog.Posts",
			contains: []string{`namespace Blog\Test\Fixture;`},
			records:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.baker.Build(ctx, tt.model, fixture.ModeSingle, tt.opts)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			text := string(res.Content)
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("missing %q in\n%s", want, text)
				}
			}
			for _, absent := range tt.notContains {
				if strings.Contains(text, absent) {
					t.Errorf("unexpected %q in\n%s", absent, text)
				}
			}
			if got := strings.Count(res.Artifact.Records, "\t\t[\n"); got != tt.records {
				t.Errorf("records = %d, want %d", got, tt.records)
			}
		})
	}
}

func TestBuild_SampledRecords(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.baker.Build(context.Background(), "Posts", fixture.ModeSingle, Options{
		Records:    true,
		Conditions: "WHERE published = 1",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	text := string(res.Content)

	if strings.Contains(text, "$import") {
		t.Errorf("a named bake with sampled records should not import\n%s", text)
	}
	if got := strings.Count(res.Artifact.Records, "\t\t[\n"); got != 2 {
		t.Errorf("sampled records = %d, want 2", got)
	}
	for _, want := range []string{"'title' => 'Hello'", "'title' => 'World'", "'published' => 1"} {
		if !strings.Contains(res.Artifact.Records, want) {
			t.Errorf("missing %q in records\n%s", want, res.Artifact.Records)
		}
	}
	if strings.Contains(res.Artifact.Records, "Draft") {
		t.Error("condition should exclude unpublished posts")
	}
}

func TestBuild_ConfiguredCount(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Fixtures.Count = 3
	ctx := context.Background()

	tests := []struct {
		name  string
		mode  fixture.Mode
		count *int
		want  int
	}{
		{"single keeps one record", fixture.ModeSingle, nil, 1},
		{"batch uses configured count", fixture.ModeBatch, nil, 3},
		{"explicit count wins", fixture.ModeBatch, intPtr(2), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.baker.Build(ctx, "Posts", tt.mode, Options{Count: tt.count})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := strings.Count(res.Artifact.Records, "\t\t[\n"); got != tt.want {
				t.Errorf("records = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.baker.Build(ctx, "Posts", fixture.ModeSingle, Options{Connection: "missing"}); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("unknown connection: expected ErrNotFound, got %v", err)
	}
	if _, err := env.baker.Build(ctx, "Comments", fixture.ModeSingle, Options{}); err == nil {
		t.Error("expected error for missing table")
	}
	if _, err := env.baker.Build(ctx, "", fixture.ModeSingle, Options{}); err == nil {
		t.Error("expected error for empty model name")
	}

	for _, tt := range []struct {
		name   string
		plugin string
	}{
		{"../../etc.Posts", ""},
		{"Posts", "../outside"},
		{"/abs.Posts", ""},
		{"Vendor/Blog/Extra.Posts", ""},
		{"Posts", `Blog\Admin`},
	} {
		_, err := env.baker.Build(ctx, tt.name, fixture.ModeSingle, Options{Plugin: tt.plugin, Stdout: true})
		if !errors.Is(err, ErrInvalidPlugin) {
			t.Errorf("Build(%q, plugin %q): err = %v, want ErrInvalidPlugin", tt.name, tt.plugin, err)
		}
	}
	if _, err := env.baker.Build(ctx, "Vendor/Blog.Posts", fixture.ModeSingle, Options{}); err != nil {
		t.Errorf("vendor plugin should be accepted: %v", err)
	}
}

func TestBake_WritesFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.baker.Bake(ctx, "Posts", Options{})
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	want := filepath.Join(env.cfg.Fixtures.Path, "PostsFixture.php")
	if res.Path != want {
		t.Errorf("path = %q, want %q", res.Path, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if !bytes.Equal(data, res.Content) {
		t.Error("written file differs from rendered content")
	}
	if !strings.Contains(env.out.String(), "Baking test fixture for Posts...") {
		t.Errorf("missing status line in %q", env.out.String())
	}

	// A second bake must not overwrite without Force.
	if _, err := env.baker.Bake(ctx, "Posts", Options{}); !errors.Is(err, render.ErrFileExists) {
		t.Errorf("expected ErrFileExists, got %v", err)
	}
	if _, err := env.baker.Bake(ctx, "Posts", Options{Force: true}); err != nil {
		t.Errorf("forced bake: %v", err)
	}
}

func TestBake_Stdout(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.baker.Bake(context.Background(), "Posts", Options{Stdout: true})
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if res.Path != "" {
		t.Errorf("stdout bake should not write, got path %q", res.Path)
	}
	if env.out.String() != string(res.Content) {
		t.Error("stdout should carry exactly the fixture")
	}
	if _, err := os.Stat(env.cfg.Fixtures.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("fixture directory should not be created")
	}
}

func TestBake_PluginPath(t *testing.T) {
	env := newTestEnv(t)
	wd, _ := os.Getwd()
	if err := os.Chdir(env.dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	res, err := env.baker.Bake(context.Background(), "Blog.Posts", Options{})
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	want := filepath.Join("plugins", "Blog", "tests", "Fixture", "PostsFixture.php")
	if res.Path != want {
		t.Errorf("path = %q, want %q", res.Path, want)
	}
}

func TestBakeAll(t *testing.T) {
	env := newTestEnv(t)
	results, err := env.baker.BakeAll(context.Background(), Options{ImportSchema: true})
	if err != nil {
		t.Fatalf("BakeAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	byModel := map[string]*Result{}
	for _, r := range results {
		byModel[r.Model] = r
	}
	posts, ok := byModel["Posts"]
	if !ok {
		t.Fatalf("missing Posts in %v", byModel)
	}
	if got := strings.Count(posts.Artifact.Records, "\t\t[\n"); got != 10 {
		t.Errorf("batch records = %d, want 10", got)
	}
	if posts.Artifact.Import != "['model' => 'Posts']" {
		t.Errorf("import = %q", posts.Artifact.Import)
	}
	if _, ok := byModel["LegacyUsers"]; !ok {
		t.Errorf("missing LegacyUsers in %v", byModel)
	}
	for _, r := range results {
		if _, err := os.Stat(r.Path); err != nil {
			t.Errorf("fixture %s not written: %v", r.Path, err)
		}
	}
}

func TestBakeAll_SampledRecords(t *testing.T) {
	env := newTestEnv(t)
	results, err := env.baker.BakeAll(context.Background(), Options{Records: true, Stdout: true})
	if err != nil {
		t.Fatalf("BakeAll: %v", err)
	}
	for _, r := range results {
		if r.Artifact.Import != "" {
			t.Errorf("%s: import = %q, want none", r.Model, r.Artifact.Import)
		}
		if r.Artifact.Schema == "" {
			t.Errorf("%s: schema should stay embedded", r.Model)
		}
	}
}

func TestInteractive(t *testing.T) {
	env := newTestEnv(t)
	delete(env.cfg.Connections, "reporting")

	// Choose table 2 (posts), then the default count.
	in := strings.NewReader("2\n\n")
	res, err := env.baker.Interactive(context.Background(), in, Options{Stdout: true})
	if err != nil {
		t.Fatalf("Interactive: %v", err)
	}
	if res.Table != "posts" || res.Model != "Posts" {
		t.Errorf("baked %s/%s, want Posts/posts", res.Model, res.Table)
	}
	if got := strings.Count(res.Artifact.Records, "\t\t[\n"); got != 10 {
		t.Errorf("records = %d, want prompt default 10", got)
	}
	out := env.out.String()
	for _, want := range []string{"Bake Fixture", " 1. legacy_users", " 2. posts"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in prompt output\n%s", want, out)
		}
	}
}

func TestInteractive_SampledRecords(t *testing.T) {
	env := newTestEnv(t)

	// Connection, table by name, a condition and a count of 1.
	in := strings.NewReader("default\nposts\nWHERE id > 1\n1\n")
	res, err := env.baker.Interactive(context.Background(), in, Options{Records: true, Stdout: true})
	if err != nil {
		t.Fatalf("Interactive: %v", err)
	}
	if got := strings.Count(res.Artifact.Records, "\t\t[\n"); got != 1 {
		t.Errorf("records = %d, want 1", got)
	}
	if !strings.Contains(res.Artifact.Records, "'id' => 2") {
		t.Errorf("expected row 2 in\n%s", res.Artifact.Records)
	}
	if !strings.Contains(string(res.Content), "public $import = ['records' => true];") {
		t.Errorf("interactive sampling should import records\n%s", res.Content)
	}
	if !strings.Contains(env.out.String(), "Example: WHERE 1=1") {
		t.Error("missing conditions prompt")
	}
}

func TestInteractive_InvalidThenValid(t *testing.T) {
	env := newTestEnv(t)
	delete(env.cfg.Connections, "reporting")

	in := strings.NewReader("9\nposts\nmany\n2\n")
	res, err := env.baker.Interactive(context.Background(), in, Options{Stdout: true})
	if err != nil {
		t.Fatalf("Interactive: %v", err)
	}
	if got := strings.Count(res.Artifact.Records, "\t\t[\n"); got != 2 {
		t.Errorf("records = %d, want 2", got)
	}
	out := env.out.String()
	if !strings.Contains(out, `"9" is not a valid choice`) || !strings.Contains(out, `"many" is not a valid number`) {
		t.Errorf("expected validation messages in\n%s", out)
	}
}

func TestInteractive_EOF(t *testing.T) {
	env := newTestEnv(t)
	delete(env.cfg.Connections, "reporting")
	if _, err := env.baker.Interactive(context.Background(), strings.NewReader(""), Options{}); err == nil {
		t.Error("expected error on empty input")
	}
}
