package icontheme

import (
	"bufio"
	"os"
	"strings"
)

// Index is the [Icon Theme] group of an index.theme file.
type Index struct {
	Name     string
	Comment  string
	Inherits []string
	Hidden   bool
}

// ReadIndex parses the [Icon Theme] group of an index.theme file.
// Localized keys such as Name[de] are ignored.
func ReadIndex(path string) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return Index{}, err
	}
	defer f.Close()

	var idx Index
	inGroup := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inGroup = line == "[Icon Theme]"
			continue
		}
		if !inGroup {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Name":
			idx.Name = value
		case "Comment":
			idx.Comment = value
		case "Inherits":
			for _, parent := range strings.Split(value, ",") {
				if parent = strings.TrimSpace(parent); parent != "" {
					idx.Inherits = append(idx.Inherits, parent)
				}
			}
		case "Hidden":
			idx.Hidden = strings.EqualFold(value, "true")
		}
	}
	return idx, scanner.Err()
}
