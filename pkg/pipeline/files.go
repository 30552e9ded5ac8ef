// Package pipeline orchestrates the full parsing run: lexing, the two
// passes, fight segmentation, enrichment and kind annotation.
package pipeline

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is one log file's content, already split into raw lines.
type File struct {
	Name  string
	Lines []string
}

// ReadFolder loads every .txt log file in dir, sorted by name so runs are
// deterministic. Files the client is still writing can be huge; the scanner
// buffer is sized accordingly.
func ReadFolder(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: e.Name(), Lines: lines})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
