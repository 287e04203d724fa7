package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTraces(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("Idle: 1.0\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpandPatterns_LiteralPath(t *testing.T) {
	dir := t.TempDir()
	writeTraces(t, dir, "output_RM.txt")
	file := filepath.Join(dir, "output_RM.txt")

	result, err := ExpandPatterns([]string{file})
	if err != nil {
		t.Fatalf("ExpandPatterns() error = %v", err)
	}
	if !reflect.DeepEqual(result, []string{file}) {
		t.Errorf("ExpandPatterns() = %v, want [%s]", result, file)
	}
}

func TestExpandPatterns_Glob(t *testing.T) {
	dir := t.TempDir()
	writeTraces(t, dir, "run2.txt", "run1.txt", "notes.md")

	result, err := ExpandPatterns([]string{filepath.Join(dir, "run*.txt")})
	if err != nil {
		t.Fatalf("ExpandPatterns() error = %v", err)
	}
	want := []string{filepath.Join(dir, "run1.txt"), filepath.Join(dir, "run2.txt")}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("ExpandPatterns() = %v, want %v", result, want)
	}
}

func TestExpandPatterns_KeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	writeTraces(t, dir, "b.txt", "a.txt")
	a, b := filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")

	result, err := ExpandPatterns([]string{b, a, b})
	if err != nil {
		t.Fatalf("ExpandPatterns() error = %v", err)
	}
	if !reflect.DeepEqual(result, []string{b, a}) {
		t.Errorf("ExpandPatterns() = %v, want [%s %s]", result, b, a)
	}
}

func TestExpandPatterns_NoMatchKeptLiterally(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "*.trace")

	result, err := ExpandPatterns([]string{missing})
	if err != nil {
		t.Fatalf("ExpandPatterns() error = %v", err)
	}
	if !reflect.DeepEqual(result, []string{missing}) {
		t.Errorf("ExpandPatterns() = %v, want [%s]", result, missing)
	}
}

func TestExpandPatterns_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	writeTraces(t, dir, "x.txt")
	if err := os.Mkdir(filepath.Join(dir, "y.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	result, err := ExpandPatterns([]string{filepath.Join(dir, "*.txt")})
	if err != nil {
		t.Fatalf("ExpandPatterns() error = %v", err)
	}
	if !reflect.DeepEqual(result, []string{filepath.Join(dir, "x.txt")}) {
		t.Errorf("ExpandPatterns() = %v", result)
	}
}

func TestExpandPatterns_InvalidPattern(t *testing.T) {
	if _, err := ExpandPatterns([]string{"[invalid"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
