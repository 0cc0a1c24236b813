package integration

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"repo2text/internal/core/app"
	"repo2text/internal/core/config"
	"repo2text/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shopFiles = map[string]string{
	"src/Program.cs":       "using System;\nusing Shop.Services;\n\nnamespace Shop\n{\n    class Program { }\n}\n",
	"src/Services/Mail.cs": "using Shop.Models;\n\nnamespace Shop.Services\n{\n    class Mail { }\n}\n",
	"src/Models/Order.cs":  "namespace Shop.Models\n{\n    class Order { }\n}\n",
	"src/Unused.cs":        "namespace Shop.Unused\n{\n    class Unused { }\n}\n",
	"README.md":            "# shop\n",
}

// fakeGitHub serves a single repository and counts content requests per path.
type fakeGitHub struct {
	mu    sync.Mutex
	reads map[string]int
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const repo = "/repos/acme/shop"
	switch p := r.URL.Path; {
	case p == repo:
		writeJSON(w, map[string]any{"default_branch": "main"})
	case p == repo+"/git/trees/main":
		tree := []map[string]any{{"path": "src", "type": "tree"}}
		for path, content := range shopFiles {
			tree = append(tree, map[string]any{"path": path, "type": "blob", "size": len(content)})
		}
		writeJSON(w, map[string]any{"sha": "abc", "tree": tree})
	case strings.HasPrefix(p, repo+"/contents/"):
		path := strings.TrimPrefix(p, repo+"/contents/")
		content, ok := shopFiles[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		f.mu.Lock()
		f.reads[path]++
		f.mu.Unlock()
		_, _ = w.Write([]byte(content))
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newApp(t *testing.T, mutate func(*config.Config)) *app.App {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.GitHub.Token = ""
	cfg.GitHub.RequestsPerSecond = 1000
	cfg.GitHub.Burst = 100
	if mutate != nil {
		mutate(cfg)
	}
	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestGitHubPipelineIntegration(t *testing.T) {
	fake := &fakeGitHub{reads: map[string]int{}}
	server := httptest.NewServer(fake)
	defer server.Close()

	historyPath := filepath.Join(t.TempDir(), "history.db")
	a := newApp(t, func(cfg *config.Config) {
		cfg.GitHub.APIURL = server.URL
		cfg.History.Enabled = true
		cfg.History.Path = historyPath
	})

	var out bytes.Buffer
	result, err := a.Generate(context.Background(), ports.GenerateRequest{
		Source: "https://github.com/acme/shop",
		DepsOf: "src/Program.cs",
		Stdout: &out,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Resolution)
	assert.ElementsMatch(t,
		[]string{"src/Models/Order.cs", "src/Program.cs", "src/Services/Mail.cs"},
		result.Resolution.Files.Paths())

	doc := out.String()
	assert.Contains(t, doc, "Directory Structure:\n\n└── src\n")
	assert.Contains(t, doc, "File: /src/Models/Order.cs")
	assert.NotContains(t, doc, "File: /src/Unused.cs")
	assert.NotContains(t, doc, "File: /README.md")

	// Resolution and rendering share one fetch per file.
	fake.mu.Lock()
	for path, n := range fake.reads {
		assert.Equal(t, 1, n, "reads of %s", path)
	}
	assert.NotContains(t, fake.reads, "README.md")
	fake.mu.Unlock()

	runs, err := a.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "generate", runs[0].Command)
	assert.Equal(t, "github", runs[0].SourceKind)
	assert.Equal(t, "src/Program.cs", runs[0].RootPath)
	assert.Equal(t, 3, runs[0].FileCount)
	assert.Equal(t, result.Stats.Bytes, runs[0].OutputBytes)
}

func writeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entries := map[string]string{".gitignore": "*.md\nbin/\n", "bin/Debug.cs": "namespace Bin { }\n"}
	for name, content := range shopFiles {
		entries[name] = content
	}
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestZipPipelineIntegration(t *testing.T) {
	archive := writeArchive(t)
	a := newApp(t, nil)

	listed, err := a.List(context.Background(), ports.ListRequest{Source: archive})
	require.NoError(t, err)
	var paths []string
	for _, f := range listed.Files {
		paths = append(paths, f.Path)
	}
	assert.NotContains(t, paths, "README.md")
	assert.NotContains(t, paths, "bin/Debug.cs")
	assert.Contains(t, paths, ".gitignore")

	res, err := a.Resolve(context.Background(), ports.ResolveRequest{Source: archive, Root: "src/Services/Mail.cs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/Models/Order.cs", "src/Services/Mail.cs"}, res.Files.Paths())

	outPath := filepath.Join(t.TempDir(), "out", "context.txt")
	result, err := a.Generate(context.Background(), ports.GenerateRequest{
		Source:     archive,
		Paths:      []string{"src/Models"},
		Extensions: []string{".gitignore"},
		OutputPath: outPath,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Files)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "File: /.gitignore")
	assert.Contains(t, string(data), "File: /src/Models/Order.cs")
}
