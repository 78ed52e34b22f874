package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	root  string
	local *Local
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.root = filepath.Join(s.T().TempDir(), "media")
	var err error
	s.local, err = NewLocal(s.root)
	require.NoError(s.T(), err)
}

func (s *StorageSuite) TestNewLocalCreatesRoot() {
	info, err := os.Stat(s.root)
	require.NoError(s.T(), err)
	require.True(s.T(), info.IsDir())
}

func (s *StorageSuite) TestNewLocalError() {
	file := filepath.Join(s.T().TempDir(), "file")
	require.NoError(s.T(), os.WriteFile(file, []byte("x"), 0o644))
	_, err := NewLocal(filepath.Join(file, "sub"))
	require.ErrorContains(s.T(), err, "creating media dir")
}

func (s *StorageSuite) TestSaveOpenRemove() {
	n, err := s.local.Save("pitch_files/p1/a.pdf", strings.NewReader("hello"))
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(5), n)

	f, err := s.local.Open("pitch_files/p1/a.pdf")
	require.NoError(s.T(), err)
	data, err := io.ReadAll(f)
	require.NoError(s.T(), err)
	require.NoError(s.T(), f.Close())
	require.Equal(s.T(), "hello", string(data))

	require.NoError(s.T(), s.local.Remove("pitch_files/p1/a.pdf"))
	_, err = s.local.Open("pitch_files/p1/a.pdf")
	require.ErrorIs(s.T(), err, os.ErrNotExist)
}

func (s *StorageSuite) TestSaveOverwrites() {
	_, err := s.local.Save("x.txt", strings.NewReader("first version"))
	require.NoError(s.T(), err)
	_, err = s.local.Save("x.txt", strings.NewReader("second"))
	require.NoError(s.T(), err)

	data, err := os.ReadFile(filepath.Join(s.root, "x.txt"))
	require.NoError(s.T(), err)
	require.Equal(s.T(), "second", string(data))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func (s *StorageSuite) TestSaveReadErrorRemovesPartialFile() {
	_, err := s.local.Save("broken.bin", failingReader{})
	require.ErrorContains(s.T(), err, "writing media file")
	_, statErr := os.Stat(filepath.Join(s.root, "broken.bin"))
	require.ErrorIs(s.T(), statErr, os.ErrNotExist)
}

func (s *StorageSuite) TestRemoveMissingIsNoop() {
	require.NoError(s.T(), s.local.Remove("nope.txt"))
}

func (s *StorageSuite) TestRejectsEscapingPaths() {
	for _, name := range []string{"", "../x", "a/../../x", "/etc/passwd"} {
		_, err := s.local.Save(name, strings.NewReader("x"))
		require.ErrorIs(s.T(), err, ErrBadPath, name)
		_, err = s.local.Open(name)
		require.ErrorIs(s.T(), err, ErrBadPath, name)
		require.ErrorIs(s.T(), s.local.Remove(name), ErrBadPath, name)
	}
}
