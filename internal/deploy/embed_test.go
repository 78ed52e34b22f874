package deploy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EmbedSuite struct {
	suite.Suite
}

func TestEmbedSuite(t *testing.T) {
	suite.Run(t, new(EmbedSuite))
}

func (s *EmbedSuite) TearDownTest() {
	osMkdirAll = os.MkdirAll
	osWriteFile = os.WriteFile
}

func (s *EmbedSuite) TestDockerfile() {
	df := string(Dockerfile)
	require.Contains(s.T(), df, "FROM golang:")
	require.Contains(s.T(), df, "ca-certificates")
	require.Contains(s.T(), df, "|| true")
	require.Contains(s.T(), df, "USER app")
	require.Contains(s.T(), df, "EXPOSE 8080")
	require.Contains(s.T(), df, "ENTRYPOINT")
}

func (s *EmbedSuite) TestEntrypoint() {
	ep := string(Entrypoint)
	require.Contains(s.T(), ep, "#!/bin/sh")
	require.Contains(s.T(), ep, "investorconnect migrate")
	require.Contains(s.T(), ep, `--addr "0.0.0.0:${PORT:-8080}"`)
	require.Contains(s.T(), ep, `--workers "${WORKERS:-3}"`)
}

func (s *EmbedSuite) TestWriteFiles() {
	dir := filepath.Join(s.T().TempDir(), "docker")
	paths, err := WriteFiles(dir)
	require.NoError(s.T(), err)
	require.Len(s.T(), paths, 2)

	got, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	require.NoError(s.T(), err)
	require.Equal(s.T(), Dockerfile, got)

	info, err := os.Stat(filepath.Join(dir, "entrypoint.sh"))
	require.NoError(s.T(), err)
	require.NotZero(s.T(), info.Mode()&0100)
}

func (s *EmbedSuite) TestWriteFilesMkdirError() {
	osMkdirAll = func(string, os.FileMode) error { return errors.New("read-only") }
	_, err := WriteFiles("/nope")
	require.ErrorContains(s.T(), err, "read-only")
}

func (s *EmbedSuite) TestWriteFilesWriteError() {
	osMkdirAll = func(string, os.FileMode) error { return nil }
	calls := 0
	osWriteFile = func(string, []byte, os.FileMode) error {
		calls++
		if calls == 2 {
			return errors.New("disk full")
		}
		return nil
	}
	paths, err := WriteFiles("/out")
	require.ErrorContains(s.T(), err, "disk full")
	require.Equal(s.T(), []string{"/out/Dockerfile"}, paths)
}
