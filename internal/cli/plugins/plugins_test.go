package plugins

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindPlugin_NotFound(t *testing.T) {
	t.Setenv(EnvPluginDir, t.TempDir())

	_, err := FindPlugin("nonexistent-plugin-xyz")
	if !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestFindPlugin_InPluginDirEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvPluginDir, dir)

	pluginPath := filepath.Join(dir, "schedcompare-testplugin")
	if err := os.WriteFile(pluginPath, []byte("#!/bin/sh\necho test"), 0o755); err != nil {
		t.Fatalf("failed to create test plugin: %v", err)
	}

	found, err := FindPlugin("testplugin")
	if err != nil {
		t.Fatalf("expected to find plugin, got error: %v", err)
	}
	if found != pluginPath {
		t.Errorf("expected %s, got %s", pluginPath, found)
	}
}

func TestFindIn_Order(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	for _, dir := range []string{first, second} {
		p := filepath.Join(dir, "schedcompare-dup")
		if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	found, err := findIn([]string{first, second}, "dup")
	if err != nil {
		t.Fatalf("findIn() error = %v", err)
	}
	if filepath.Dir(found) != first {
		t.Errorf("found %s, want the copy in %s", found, first)
	}
}

func TestFindIn_SkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "schedcompare-plain"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", t.TempDir())

	if _, err := findIn([]string{dir}, "plain"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestSearchDirs_IncludesEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvPluginDir, dir)

	var seen bool
	for _, d := range SearchDirs() {
		if d == dir {
			seen = true
		}
	}
	if !seen {
		t.Errorf("SearchDirs() = %v, missing %s", SearchDirs(), dir)
	}
}

func TestExecute_ExitCode(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "schedcompare-fail")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 3\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if code := Execute(script, nil); code != 3 {
		t.Errorf("Execute() = %d, want 3", code)
	}
}

func TestFormatNotFoundError_KnownPlugin(t *testing.T) {
	msg := FormatNotFoundError("capture")

	if !strings.Contains(msg, "available as a plugin") {
		t.Error("expected message to mention plugin availability")
	}
	if !strings.Contains(msg, "schedcompare-capture") {
		t.Error("expected message to mention schedcompare-capture")
	}
}

func TestFormatNotFoundError_UnknownPlugin(t *testing.T) {
	msg := FormatNotFoundError("unknown")

	if !strings.Contains(msg, `unknown command "unknown"`) {
		t.Errorf("unexpected message: %s", msg)
	}
	if !strings.Contains(msg, "schedcompare-unknown") {
		t.Error("expected message to mention schedcompare-unknown")
	}
	if strings.Contains(msg, "available as a plugin") {
		t.Error("should not mention plugin availability for unknown plugins")
	}
}

func TestIsExecutable(t *testing.T) {
	tmpDir := t.TempDir()

	nonExec := filepath.Join(tmpDir, "nonexec")
	if err := os.WriteFile(nonExec, []byte("test"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if isExecutable(nonExec) {
		t.Error("non-executable file should not be detected as executable")
	}

	execPath := filepath.Join(tmpDir, "exec")
	if err := os.WriteFile(execPath, []byte("test"), 0o755); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if !isExecutable(execPath) {
		t.Error("executable file should be detected as executable")
	}

	if isExecutable(tmpDir) {
		t.Error("directory should not be detected as executable")
	}
	if isExecutable(filepath.Join(tmpDir, "nonexistent")) {
		t.Error("non-existent file should not be detected as executable")
	}
}
