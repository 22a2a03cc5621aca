package injector

import (
	"bufio"
	"io"
	"strings"
)

// ReadPayloadFile reads one payload template per line from r.
// `#`-prefixed and blank lines are skipped; the trailing LF/CRLF is
// stripped but leading whitespace is preserved (§4.4 multi-payload mode).
func ReadPayloadFile(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var templates []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmedForCheck := strings.TrimSpace(line)
		if trimmedForCheck == "" || strings.HasPrefix(trimmedForCheck, "#") {
			continue
		}
		templates = append(templates, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}
