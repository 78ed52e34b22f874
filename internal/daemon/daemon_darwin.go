//go:build darwin

package daemon

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	serviceLabel = "com.investorconnect.server"
	plistName    = serviceLabel + ".plist"
)

func plistPath(home string) string {
	return filepath.Join(home, "Library", "LaunchAgents", plistName)
}

func domain() string {
	return fmt.Sprintf("gui/%d", getUID())
}

// Start installs the launch agent and bootstraps it.
func Start(sys System, u Unit) error {
	bin, err := binary(sys)
	if err != nil {
		return err
	}
	home, err := sys.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}
	path := plistPath(home)
	if err := sys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating LaunchAgents directory: %w", err)
	}
	if err := sys.MkdirAll(filepath.Dir(u.LogFile), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	if err := sys.WriteFile(path, []byte(generatePlist(bin, u)), 0o644); err != nil {
		return fmt.Errorf("writing plist: %w", err)
	}
	// A previous install may still be loaded.
	sys.RunCommand("launchctl", "bootout", domain(), path) //nolint:errcheck

	out, err := sys.RunCommand("launchctl", "bootstrap", domain(), path)
	if err != nil && !strings.Contains(string(out), "already bootstrapped") {
		return fmt.Errorf("launchctl bootstrap: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// Stop unloads the launch agent and removes the plist.
func Stop(sys System) error {
	home, err := sys.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}
	path := plistPath(home)
	out, err := sys.RunCommand("launchctl", "bootout", domain(), path)
	if err != nil && !notLoaded(string(out)) {
		return fmt.Errorf("launchctl bootout: %s", strings.TrimSpace(string(out)))
	}
	return removeIfExists(sys, path)
}

func notLoaded(out string) bool {
	for _, s := range []string{"No such file", "not found", "Could not find service", "Input/output error"} {
		if strings.Contains(out, s) {
			return true
		}
	}
	return false
}

// Status reports StateRunning, StateStopped or StateNotInstalled.
func Status(sys System) (string, error) {
	home, err := sys.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if _, err := sys.Stat(plistPath(home)); err != nil {
		if os.IsNotExist(err) {
			return StateNotInstalled, nil
		}
		return "", fmt.Errorf("checking plist: %w", err)
	}
	out, err := sys.RunCommand("launchctl", "print", domain()+"/"+serviceLabel)
	if err == nil && strings.Contains(string(out), "state = running") {
		return StateRunning, nil
	}
	return StateStopped, nil
}

func xmlString(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return "<string>" + b.String() + "</string>"
}

func generatePlist(bin string, u Unit) string {
	var args strings.Builder
	for _, a := range append([]string{bin}, u.args()...) {
		fmt.Fprintf(&args, "\t\t%s\n", xmlString(a))
	}
	var env strings.Builder
	for _, kv := range environment() {
		fmt.Fprintf(&env, "\t\t<key>%s</key>\n\t\t%s\n", kv[0], xmlString(kv[1]))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>KeepAlive</key>
	<true/>
	<key>RunAtLoad</key>
	<true/>
	<key>StandardOutPath</key>
	%s
	<key>StandardErrorPath</key>
	%s
	<key>EnvironmentVariables</key>
	<dict>
		<key>PATH</key>
		<string>/usr/local/bin:/opt/homebrew/bin:/usr/bin:/bin</string>
%s	</dict>
</dict>
</plist>
`, serviceLabel, args.String(), xmlString(u.LogFile), xmlString(u.LogFile), env.String())
}
