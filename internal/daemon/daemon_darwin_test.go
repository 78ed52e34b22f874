//go:build darwin

package daemon

import (
	"errors"
	"os"
	"strings"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPlistPath = "/Users/test/Library/LaunchAgents/com.investorconnect.server.plist"

func (s *DaemonSuite) expectInstallDirs() {
	s.sys.On("Executable").Return("/usr/local/bin/investorconnect", nil)
	s.sys.On("UserHomeDir").Return("/Users/test", nil)
	s.sys.On("MkdirAll", "/Users/test/Library/LaunchAgents", os.FileMode(0o755)).Return(nil)
	s.sys.On("MkdirAll", "/home/test/.investorconnect", os.FileMode(0o755)).Return(nil)
}

func (s *DaemonSuite) TestStartSuccess() {
	s.expectInstallDirs()
	s.sys.On("WriteFile", testPlistPath, mock.MatchedBy(func(data []byte) bool {
		return strings.Contains(string(data), "<string>--config</string>")
	}), os.FileMode(0o644)).Return(nil)
	s.sys.On("RunCommand", "launchctl", []string{"bootout", "gui/501", testPlistPath}).Return(nil, errors.New("not loaded"))
	s.sys.On("RunCommand", "launchctl", []string{"bootstrap", "gui/501", testPlistPath}).Return([]byte(""), nil)

	require.NoError(s.T(), Start(s.sys, s.testUnit()))
}

func (s *DaemonSuite) TestStartAlreadyBootstrapped() {
	s.expectInstallDirs()
	s.sys.On("WriteFile", testPlistPath, mock.Anything, mock.Anything).Return(nil)
	s.sys.On("RunCommand", "launchctl", []string{"bootout", "gui/501", testPlistPath}).Return([]byte(""), nil)
	s.sys.On("RunCommand", "launchctl", []string{"bootstrap", "gui/501", testPlistPath}).
		Return([]byte("service already bootstrapped"), errors.New("exit 5"))

	require.NoError(s.T(), Start(s.sys, s.testUnit()))
}

func (s *DaemonSuite) TestStartBootstrapError() {
	s.expectInstallDirs()
	s.sys.On("WriteFile", testPlistPath, mock.Anything, mock.Anything).Return(nil)
	s.sys.On("RunCommand", "launchctl", []string{"bootout", "gui/501", testPlistPath}).Return([]byte(""), nil)
	s.sys.On("RunCommand", "launchctl", []string{"bootstrap", "gui/501", testPlistPath}).
		Return([]byte("Bootstrap failed: 5"), errors.New("exit 5"))

	require.EqualError(s.T(), Start(s.sys, s.testUnit()), "launchctl bootstrap: Bootstrap failed: 5")
}

func (s *DaemonSuite) TestStop() {
	s.sys.On("UserHomeDir").Return("/Users/test", nil)
	s.sys.On("RunCommand", "launchctl", []string{"bootout", "gui/501", testPlistPath}).
		Return([]byte("Could not find service"), errors.New("exit 113"))
	s.sys.On("RemoveFile", testPlistPath).Return(nil)

	require.NoError(s.T(), Stop(s.sys))
}

func (s *DaemonSuite) TestStopError() {
	s.sys.On("UserHomeDir").Return("/Users/test", nil)
	s.sys.On("RunCommand", "launchctl", []string{"bootout", "gui/501", testPlistPath}).
		Return([]byte("Operation not permitted"), errors.New("exit 1"))

	require.EqualError(s.T(), Stop(s.sys), "launchctl bootout: Operation not permitted")
}

func (s *DaemonSuite) TestStatus() {
	s.sys.On("UserHomeDir").Return("/Users/test", nil)
	s.sys.On("Stat", testPlistPath).Return(fakeFileInfo{}, nil)
	s.sys.On("RunCommand", "launchctl", []string{"print", "gui/501/com.investorconnect.server"}).
		Return([]byte("state = running"), nil)

	state, err := Status(s.sys)
	require.NoError(s.T(), err)
	require.Equal(s.T(), StateRunning, state)
}

func (s *DaemonSuite) TestStatusNotInstalled() {
	s.sys.On("UserHomeDir").Return("/Users/test", nil)
	s.sys.On("Stat", testPlistPath).Return(nil, os.ErrNotExist)

	state, err := Status(s.sys)
	require.NoError(s.T(), err)
	require.Equal(s.T(), StateNotInstalled, state)
}

func (s *DaemonSuite) TestGeneratePlistEscapes() {
	plist := generatePlist("/Apps/I&C/investorconnect", Unit{LogFile: "/tmp/ic.log"})
	require.Contains(s.T(), plist, "<string>/Apps/I&amp;C/investorconnect</string>")
	require.Contains(s.T(), plist, "<string>serve</string>")
	require.NotContains(s.T(), plist, "--config")
}
