package testutil

import (
	"io"

	"github.com/stretchr/testify/mock"
)

// MockMedia implements the media file store used by the services.
type MockMedia struct {
	mock.Mock
}

func (m *MockMedia) Save(name string, r io.Reader) (int64, error) {
	args := m.Called(name, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMedia) Open(name string) (io.ReadSeekCloser, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadSeekCloser), args.Error(1)
}

func (m *MockMedia) Remove(name string) error {
	return m.Called(name).Error(0)
}
