// Package plugins runs external schedcompare-<command> binaries for
// commands the CLI does not build in, the way git and kubectl do.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ccollicutt/schedcompare/pkg/logutil"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "schedcompare-"

// EnvPluginDir names an extra directory searched before the home directory.
const EnvPluginDir = "SCHEDCOMPARE_PLUGIN_DIR"

// EnvBinary is set for plugins to the path of the invoking binary.
const EnvBinary = "SCHEDCOMPARE_BIN"

// KnownPlugins lists plugins with a known purpose. They get a more
// specific message when missing.
var KnownPlugins = map[string]string{
	"capture": "Records a FreeRTOS trace from a serial console into a file schedcompare can read.",
}

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// SearchDirs returns the directories checked before PATH, in order:
//  1. Same directory as the schedcompare binary
//  2. $SCHEDCOMPARE_PLUGIN_DIR
//  3. ~/.schedcompare/plugins/
func SearchDirs() []string {
	var dirs []string
	if execPath, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(execPath))
	}
	if dir := os.Getenv(EnvPluginDir); dir != "" {
		dirs = append(dirs, dir)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".schedcompare", "plugins"))
	}
	return dirs
}

// FindPlugin searches SearchDirs and then PATH for schedcompare-<command>.
func FindPlugin(command string) (string, error) {
	return findIn(SearchDirs(), command)
}

func findIn(dirs []string, command string) (string, error) {
	name := Prefix + command

	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			logutil.GetLogger().Debug("found plugin", zap.String("path", candidate))
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		logutil.GetLogger().Debug("found plugin in PATH", zap.String("path", path))
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Execute runs a plugin with the given arguments, wired to the current
// stdio, and returns its exit code.
func Execute(pluginPath string, args []string) int {
	cmd := exec.Command(pluginPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if self, err := os.Executable(); err == nil {
		cmd.Env = append(cmd.Env, EnvBinary+"="+self)
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 1
	}

	return 0
}

// FormatNotFoundError returns the message shown for an unknown command.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "unknown command %q for \"schedcompare\"\n", command)

	if info, ok := KnownPlugins[command]; ok {
		fmt.Fprintf(&sb, "\n%q is available as a plugin.\n", command)
		sb.WriteString(info)
		sb.WriteString("\n\nInstall the plugin binary as one of:\n")
	} else {
		sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	}

	fmt.Fprintf(&sb, "  - %s%s in the same directory as schedcompare\n", Prefix, command)
	fmt.Fprintf(&sb, "  - $%s/%s%s\n", EnvPluginDir, Prefix, command)
	fmt.Fprintf(&sb, "  - ~/.schedcompare/plugins/%s%s\n", Prefix, command)
	fmt.Fprintf(&sb, "  - %s%s anywhere in your PATH\n", Prefix, command)

	sb.WriteString("\nRun 'schedcompare --help' for usage.")

	return sb.String()
}

// isExecutable reports whether path is a regular file with an execute bit.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0o111 != 0
}
