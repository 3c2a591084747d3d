package detector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Labels maps class indices to names.
type Labels []string

// Name returns the label for id, or "class<id>" when the index is unknown.
func (l Labels) Name(id int) string {
	if id >= 0 && id < len(l) {
		return l[id]
	}
	return fmt.Sprintf("class%d", id)
}

// ParseLabels reads one class name per line. Blank lines are ignored.
func ParseLabels(r io.Reader) (Labels, error) {
	var labels Labels
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}

// LoadLabels reads a labels file. An empty path yields no labels.
func LoadLabels(path string) (Labels, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	return ParseLabels(f)
}
