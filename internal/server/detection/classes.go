package detection

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ClassList maps model class ids to labels; line N of the source file is the
// label of class N.
type ClassList []string

// LoadClassList reads a newline-separated class list such as coco.txt.
func LoadClassList(path string) (ClassList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open class list: %w", err)
	}
	defer f.Close()

	return ParseClassList(f)
}

// ParseClassList reads one label per line. Surrounding whitespace is
// trimmed; blank lines keep their index so ids stay aligned, but trailing
// blank lines are dropped.
func ParseClassList(r io.Reader) (ClassList, error) {
	var labels ClassList

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		labels = append(labels, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read class list: %w", err)
	}

	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}

	return labels, nil
}

// Label returns the label for id, or "class_<id>" when the list has none.
func (c ClassList) Label(id int) string {
	if id >= 0 && id < len(c) && c[id] != "" {
		return c[id]
	}
	return fmt.Sprintf("class_%d", id)
}
