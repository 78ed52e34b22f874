// Package deploy holds the container build files shipped with the binary.
package deploy

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed Dockerfile
var Dockerfile []byte

//go:embed entrypoint.sh
var Entrypoint []byte

var (
	osMkdirAll  = os.MkdirAll
	osWriteFile = os.WriteFile
)

// WriteFiles writes the Dockerfile and entrypoint.sh into dir, creating it
// if needed. It returns the paths written.
func WriteFiles(dir string) ([]string, error) {
	if err := osMkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	files := []struct {
		name string
		data []byte
		perm os.FileMode
	}{
		{"Dockerfile", Dockerfile, 0644},
		{"entrypoint.sh", Entrypoint, 0755},
	}
	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := osWriteFile(path, f.data, f.perm); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
