package interp

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
)

// Channel identifies the subprocess stream a chunk came from.
type Channel int

const (
	Stdout Channel = iota
	Stderr
)

func (c Channel) String() string {
	if c == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Chunker reassembles complete lines from arbitrary output fragments.
// The zero value is ready to use.
type Chunker struct {
	buf []byte
}

// Push appends chunk and returns every line it completes. Lines end at '\n'
// or '\r', have trailing whitespace trimmed, and blank lines are skipped.
// Bytes after the last terminator stay buffered for the next call.
func (c *Chunker) Push(chunk []byte) []string {
	c.buf = append(c.buf, chunk...)
	var lines []string
	for {
		i := bytes.IndexAny(c.buf, "\r\n")
		if i < 0 {
			break
		}
		if line := strings.TrimRightFunc(string(c.buf[:i]), unicode.IsSpace); line != "" {
			lines = append(lines, line)
		}
		c.buf = c.buf[i+1:]
	}
	if len(c.buf) == 0 {
		c.buf = nil
	}
	return lines
}

// Flush returns whatever incomplete line is buffered and empties the buffer.
func (c *Chunker) Flush() string {
	rest := strings.TrimRightFunc(string(c.buf), unicode.IsSpace)
	c.buf = nil
	return rest
}

// Pending reports how many bytes are waiting for a terminator.
func (c *Chunker) Pending() int {
	return len(c.buf)
}

var numberedPrefixRe = regexp.MustCompile(`\(\s{0,3}([0-9]{1,4})/([0-9]{1,4})\) `)

// Segment splits a line that holds several merged progress redraws. A line
// with more than one (i/N) prefix splits on the prefixes; otherwise a line
// with more than one '%'-separated part splits there, and each part that ends
// in a digit gets its '%' back.
func Segment(line string) []string {
	if parts := nonEmpty(numberedPrefixRe.Split(line, -1)); len(parts) > 1 {
		return parts
	}
	parts := nonEmpty(strings.Split(line, "%"))
	if len(parts) <= 1 {
		return []string{line}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if last := p[len(p)-1]; last >= '0' && last <= '9' {
			p += "%"
		}
		out = append(out, p)
	}
	return out
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
