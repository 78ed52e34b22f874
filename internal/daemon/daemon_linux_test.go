//go:build linux

package daemon

import (
	"errors"
	"os"
	"strings"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUnitPath = "/home/test/.config/systemd/user/investorconnect.service"

func (s *DaemonSuite) expectInstallDirs() {
	s.sys.On("Executable").Return("/usr/local/bin/investorconnect", nil)
	s.sys.On("UserHomeDir").Return("/home/test", nil)
	s.sys.On("MkdirAll", "/home/test/.config/systemd/user", os.FileMode(0o755)).Return(nil)
	s.sys.On("MkdirAll", "/home/test/.investorconnect", os.FileMode(0o755)).Return(nil)
}

func (s *DaemonSuite) TestStartSuccess() {
	s.expectInstallDirs()
	s.sys.On("WriteFile", testUnitPath, mock.MatchedBy(func(data []byte) bool {
		return strings.Contains(string(data), "ExecStart=/usr/local/bin/investorconnect serve --config /home/test/.investorconnect/config.json\n")
	}), os.FileMode(0o644)).Return(nil)
	s.sys.On("RunCommand", "systemctl", []string{"--user", "daemon-reload"}).Return([]byte(""), nil)
	s.sys.On("RunCommand", "systemctl", []string{"--user", "enable", "--now", "investorconnect"}).Return([]byte(""), nil)
	s.sys.On("RunCommand", "loginctl", []string{"enable-linger"}).Return(nil, errors.New("no logind"))

	require.NoError(s.T(), Start(s.sys, s.testUnit()))
}

func (s *DaemonSuite) TestStartMkdirErrors() {
	s.sys.On("Executable").Return("/usr/local/bin/investorconnect", nil)
	s.sys.On("UserHomeDir").Return("/home/test", nil)
	s.sys.On("MkdirAll", "/home/test/.config/systemd/user", os.FileMode(0o755)).Return(errors.New("ro")).Once()

	err := Start(s.sys, s.testUnit())
	require.ErrorContains(s.T(), err, "creating systemd user unit directory")

	s.sys.On("MkdirAll", "/home/test/.config/systemd/user", os.FileMode(0o755)).Return(nil).Once()
	s.sys.On("MkdirAll", "/home/test/.investorconnect", os.FileMode(0o755)).Return(errors.New("ro")).Once()
	err = Start(s.sys, s.testUnit())
	require.ErrorContains(s.T(), err, "creating log directory")
}

func (s *DaemonSuite) TestStartHomeDirError() {
	s.sys.On("Executable").Return("/usr/local/bin/investorconnect", nil)
	s.sys.On("UserHomeDir").Return("", errors.New("no home"))

	require.ErrorContains(s.T(), Start(s.sys, s.testUnit()), "getting home directory")
}

func (s *DaemonSuite) TestStartWriteError() {
	s.expectInstallDirs()
	s.sys.On("WriteFile", testUnitPath, mock.Anything, mock.Anything).Return(errors.New("full"))

	require.ErrorContains(s.T(), Start(s.sys, s.testUnit()), "writing unit file")
}

func (s *DaemonSuite) TestStartSystemctlErrors() {
	s.expectInstallDirs()
	s.sys.On("WriteFile", testUnitPath, mock.Anything, mock.Anything).Return(nil)
	s.sys.On("RunCommand", "systemctl", []string{"--user", "daemon-reload"}).Return([]byte("no bus\n"), errors.New("exit 1")).Once()

	require.EqualError(s.T(), Start(s.sys, s.testUnit()), "systemctl daemon-reload: no bus")

	s.sys.On("RunCommand", "systemctl", []string{"--user", "daemon-reload"}).Return([]byte(""), nil).Once()
	s.sys.On("RunCommand", "systemctl", []string{"--user", "enable", "--now", "investorconnect"}).Return([]byte("failed"), errors.New("exit 1")).Once()
	require.EqualError(s.T(), Start(s.sys, s.testUnit()), "systemctl enable: failed")
}

func (s *DaemonSuite) TestStopSuccess() {
	s.sys.On("UserHomeDir").Return("/home/test", nil)
	s.sys.On("RunCommand", "systemctl", []string{"--user", "disable", "--now", "investorconnect"}).Return([]byte(""), nil)
	s.sys.On("RemoveFile", testUnitPath).Return(nil)
	s.sys.On("RunCommand", "systemctl", []string{"--user", "daemon-reload"}).Return([]byte(""), nil)

	require.NoError(s.T(), Stop(s.sys))
}

func (s *DaemonSuite) TestStopNotLoaded() {
	s.sys.On("UserHomeDir").Return("/home/test", nil)
	s.sys.On("RunCommand", "systemctl", []string{"--user", "disable", "--now", "investorconnect"}).
		Return([]byte("Unit investorconnect.service not loaded."), errors.New("exit 5"))
	s.sys.On("RemoveFile", testUnitPath).Return(os.ErrNotExist)
	s.sys.On("RunCommand", "systemctl", []string{"--user", "daemon-reload"}).Return([]byte(""), nil)

	require.NoError(s.T(), Stop(s.sys))
}

func (s *DaemonSuite) TestStopDisableError() {
	s.sys.On("UserHomeDir").Return("/home/test", nil)
	s.sys.On("RunCommand", "systemctl", []string{"--user", "disable", "--now", "investorconnect"}).
		Return([]byte("access denied"), errors.New("exit 1"))

	require.EqualError(s.T(), Stop(s.sys), "systemctl disable: access denied")
}

func (s *DaemonSuite) TestStatus() {
	s.sys.On("UserHomeDir").Return("/home/test", nil)
	s.sys.On("Stat", testUnitPath).Return(fakeFileInfo{}, nil)
	s.sys.On("RunCommand", "systemctl", []string{"--user", "is-active", "investorconnect"}).Return([]byte("active\n"), nil).Once()

	state, err := Status(s.sys)
	require.NoError(s.T(), err)
	require.Equal(s.T(), StateRunning, state)

	s.sys.On("RunCommand", "systemctl", []string{"--user", "is-active", "investorconnect"}).Return([]byte("inactive\n"), errors.New("exit 3")).Once()
	state, err = Status(s.sys)
	require.NoError(s.T(), err)
	require.Equal(s.T(), StateStopped, state)
}

func (s *DaemonSuite) TestStatusNotInstalled() {
	s.sys.On("UserHomeDir").Return("/home/test", nil)
	s.sys.On("Stat", testUnitPath).Return(nil, os.ErrNotExist)

	state, err := Status(s.sys)
	require.NoError(s.T(), err)
	require.Equal(s.T(), StateNotInstalled, state)
}

func (s *DaemonSuite) TestStatusStatError() {
	s.sys.On("UserHomeDir").Return("/home/test", nil)
	s.sys.On("Stat", testUnitPath).Return(nil, errors.New("perm"))

	_, err := Status(s.sys)
	require.ErrorContains(s.T(), err, "checking unit file")
}

func (s *DaemonSuite) TestGenerateUnitQuotesAndEnv() {
	osGetenv = func(key string) string {
		if key == "TZ" {
			return "Africa/Nairobi"
		}
		return ""
	}
	unit := generateUnit("/opt/my apps/investorconnect", Unit{ConfigPath: "/etc/ic.json", LogFile: "/var/log/ic.log"})

	require.Contains(s.T(), unit, `ExecStart="/opt/my apps/investorconnect" serve --config /etc/ic.json`)
	require.Contains(s.T(), unit, "StandardOutput=append:/var/log/ic.log\n")
	require.Contains(s.T(), unit, "Environment=TZ=Africa/Nairobi\n")
	require.Contains(s.T(), unit, "WantedBy=default.target")
}

func (s *DaemonSuite) TestSystemdQuote() {
	require.Equal(s.T(), "plain", systemdQuote("plain"))
	require.Equal(s.T(), `"a \"b\""`, systemdQuote(`a "b"`))
}
