package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestLoadDirOrderAndNames(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"b/2":        "beta two",
		"a/10":       "alpha ten",
		"a/1":        "alpha one",
		"b/1":        "beta one",
		"stray.txt":  "ignored, not in a collection",
	})
	docs, err := LoadDir(root, Options{})
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	var names []string
	for _, d := range docs {
		names = append(names, d.Name)
	}
	want := []string{"a/1", "a/10", "b/1", "b/2"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if docs[0].Text != "alpha one" {
		t.Errorf("text = %q", docs[0].Text)
	}
}

func TestLoadDirDevLimit(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"a/1": "x", "a/2": "x", "a/3": "x",
		"b/1": "x", "b/2": "x",
	})
	docs, err := LoadDir(root, Options{PerCollectionLimit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 4 {
		t.Errorf("got %d docs, want 4", len(docs))
	}
}

func TestLoadDirMissingRoot(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope"), Options{}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestExtractText(t *testing.T) {
	page := `<html><head><title>Cat Facts</title><style>p{color:red}</style></head>
<body><h1>Cats</h1><script>var dogs = 1;</script><p>Cats sleep a lot.</p></body></html>`
	got, err := ExtractText([]byte(page))
	if err != nil {
		t.Fatal(err)
	}
	if want := "Cat Facts Cats Cats sleep a lot."; got != want {
		t.Errorf("ExtractText = %q, want %q", got, want)
	}
}

func TestLoadDirExtractsHTML(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"web/page.html": "<html><body><p>hello <b>world</b></p></body></html>",
	})
	docs, err := LoadDir(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Text != "hello world" {
		t.Errorf("docs = %+v", docs)
	}
}
