//go:build linux

package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	serviceName = "investorconnect"
	unitName    = serviceName + ".service"
)

func unitPath(home string) string {
	return filepath.Join(home, ".config", "systemd", "user", unitName)
}

// Start writes a systemd user unit and enables it.
func Start(sys System, u Unit) error {
	bin, err := binary(sys)
	if err != nil {
		return err
	}
	home, err := sys.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}
	path := unitPath(home)
	if err := sys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating systemd user unit directory: %w", err)
	}
	if err := sys.MkdirAll(filepath.Dir(u.LogFile), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	if err := sys.WriteFile(path, []byte(generateUnit(bin, u)), 0o644); err != nil {
		return fmt.Errorf("writing unit file: %w", err)
	}
	if out, err := sys.RunCommand("systemctl", "--user", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %s", strings.TrimSpace(string(out)))
	}
	if out, err := sys.RunCommand("systemctl", "--user", "enable", "--now", serviceName); err != nil {
		return fmt.Errorf("systemctl enable: %s", strings.TrimSpace(string(out)))
	}
	// Lingering keeps the service up after logout. Not available everywhere.
	sys.RunCommand("loginctl", "enable-linger") //nolint:errcheck
	return nil
}

// Stop disables the unit and removes its file.
func Stop(sys System) error {
	home, err := sys.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}
	out, err := sys.RunCommand("systemctl", "--user", "disable", "--now", serviceName)
	if err != nil {
		s := string(out)
		if !strings.Contains(s, "not loaded") && !strings.Contains(s, "not found") {
			return fmt.Errorf("systemctl disable: %s", strings.TrimSpace(s))
		}
	}
	if err := removeIfExists(sys, unitPath(home)); err != nil {
		return err
	}
	if out, err := sys.RunCommand("systemctl", "--user", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// Status reports StateRunning, StateStopped or StateNotInstalled.
func Status(sys System) (string, error) {
	home, err := sys.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if _, err := sys.Stat(unitPath(home)); err != nil {
		if os.IsNotExist(err) {
			return StateNotInstalled, nil
		}
		return "", fmt.Errorf("checking unit file: %w", err)
	}
	out, _ := sys.RunCommand("systemctl", "--user", "is-active", serviceName)
	if strings.TrimSpace(string(out)) == "active" {
		return StateRunning, nil
	}
	return StateStopped, nil
}

// systemdQuote quotes a word for ExecStart when it contains whitespace or quotes.
func systemdQuote(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func generateUnit(bin string, u Unit) string {
	words := []string{systemdQuote(bin)}
	for _, a := range u.args() {
		words = append(words, systemdQuote(a))
	}
	var env strings.Builder
	for _, kv := range environment() {
		fmt.Fprintf(&env, "Environment=%s=%s\n", kv[0], kv[1])
	}
	return fmt.Sprintf(`[Unit]
Description=InvestorConnect API server
After=network-online.target
Wants=network-online.target

[Service]
ExecStart=%s
Restart=on-failure
RestartSec=5
StandardOutput=append:%s
StandardError=append:%s
Environment=PATH=/usr/local/bin:/usr/bin:/bin
%s
[Install]
WantedBy=default.target
`, strings.Join(words, " "), u.LogFile, u.LogFile, env.String())
}
