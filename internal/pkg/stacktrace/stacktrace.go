// Package stacktrace trims raw goroutine stacks down to application frames.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

// InternalPaths returns the file:line locations of frames under an internal/
// directory, in call order, with everything before internal/ stripped.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		// file lines look like "/abs/path/internal/x/y.go:42 +0x1d"
		file, _, _ := strings.Cut(line, " ")
		if !strings.Contains(file, ".go:") {
			continue
		}

		idx := strings.Index(file, "/internal/")
		if idx == -1 {
			continue
		}
		paths = append(paths, file[idx+1:])
	}

	return paths
}
