//go:build !unix

package search

import "os"

const mmapSupported = false

// mapFile falls back to an ordinary read where mmap is unavailable.
// Observable results are identical to the mapped path.
func mapFile(path string) (data []byte, cleanup func(), err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}
