package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadTranscript reads lines from r until end of stream and joins them with
// newlines. ok is false when nothing but whitespace was read.
func ReadTranscript(r io.Reader) (text string, ok bool, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return "", false, fmt.Errorf("ingest: read transcript: %w", err)
	}

	text = strings.Join(lines, "\n")
	return text, strings.TrimSpace(text) != "", nil
}
