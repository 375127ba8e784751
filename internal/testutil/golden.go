package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// Golden compares output against testdata/<name>.golden.
// Setting GOLDEN_UPDATE rewrites the file instead of comparing.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")

	if os.Getenv("GOLDEN_UPDATE") != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("create testdata dir: %v", err)
		}
		if err := os.WriteFile(path, got, 0644); err != nil {
			t.Fatalf("update golden file: %v", err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden file %s: %v\nGot:\n%s", path, err, got)
	}

	if bytes.Equal(got, want) {
		return
	}
	line, wantLine, gotLine := firstDiff(want, got)
	t.Errorf("output mismatch for %s at line %d\nwant: %q\ngot:  %q\nFull output:\n%s", name, line, wantLine, gotLine, got)
}

// firstDiff returns the 1-based number of the first differing line and both versions of it.
func firstDiff(want, got []byte) (int, string, string) {
	wantLines := bytes.Split(want, []byte("\n"))
	gotLines := bytes.Split(got, []byte("\n"))
	for i := 0; i < len(wantLines) || i < len(gotLines); i++ {
		var w, g []byte
		if i < len(wantLines) {
			w = wantLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if !bytes.Equal(w, g) || i >= len(wantLines) || i >= len(gotLines) {
			return i + 1, string(w), string(g)
		}
	}
	return 0, "", ""
}
