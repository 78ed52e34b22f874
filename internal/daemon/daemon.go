// Package daemon installs the server as a per-user background service
// (systemd on Linux, launchd on macOS).
package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// System abstracts OS operations for testability.
type System interface {
	Executable() (string, error)
	UserHomeDir() (string, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
	RemoveFile(name string) error
	RunCommand(name string, args ...string) ([]byte, error)
	Stat(name string) (os.FileInfo, error)
}

// RealSystem implements System with real OS calls.
type RealSystem struct{}

func (RealSystem) Executable() (string, error)                  { return os.Executable() }
func (RealSystem) UserHomeDir() (string, error)                 { return os.UserHomeDir() }
func (RealSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (RealSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}
func (RealSystem) RemoveFile(name string) error { return os.Remove(name) }
func (RealSystem) RunCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}
func (RealSystem) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// Service states reported by Status.
const (
	StateRunning      = "running"
	StateStopped      = "stopped"
	StateNotInstalled = "not installed"
)

var (
	getUID       = os.Getuid
	evalSymlinks = filepath.EvalSymlinks
	osGetenv     = os.Getenv
)

// forwardedEnv lists the environment variables copied into the service
// definition when set at install time.
var forwardedEnv = []string{
	"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy",
	"SSL_CERT_FILE", "TZ",
}

// Unit describes the service to install.
type Unit struct {
	// ConfigPath is passed to serve as --config when set.
	ConfigPath string
	// LogFile receives both stdout and stderr of the server.
	LogFile string
}

func (u Unit) args() []string {
	args := []string{"serve"}
	if u.ConfigPath != "" {
		args = append(args, "--config", u.ConfigPath)
	}
	return args
}

// environment returns the forwarded variables as sorted key/value pairs.
func environment() [][2]string {
	var env [][2]string
	for _, key := range forwardedEnv {
		if v := osGetenv(key); v != "" {
			env = append(env, [2]string{key, v})
		}
	}
	sort.Slice(env, func(i, j int) bool { return env[i][0] < env[j][0] })
	return env
}

// binary resolves the running executable through any symlinks so the
// service keeps working after a package manager swaps the link.
func binary(sys System) (string, error) {
	exe, err := sys.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable: %w", err)
	}
	path, err := evalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks: %w", err)
	}
	return path, nil
}

func removeIfExists(sys System, path string) error {
	err := sys.RemoveFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing service file: %w", err)
	}
	return nil
}
