package interp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_ReassemblesLine_When_SplitAcrossDeliveries(t *testing.T) {
	var c Chunker

	assert.Empty(t, c.Push([]byte("upgrad")))
	assert.Empty(t, c.Push([]byte("ing baz-2.0-any [###")))
	assert.Equal(t, len("upgrading baz-2.0-any [###"), c.Pending())

	assert.Equal(t, "upgrading baz-2.0-any [###", c.Flush())
	assert.Zero(t, c.Pending())
	assert.Empty(t, c.Flush())
}

func TestChunker_Push(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
		rest   string
	}{
		{
			name:   "newline terminated",
			chunks: []string{"a\nb\n"},
			want:   []string{"a", "b"},
		},
		{
			name:   "crlf does not yield blank lines",
			chunks: []string{"a\r\nb\r\n"},
			want:   []string{"a", "b"},
		},
		{
			name:   "carriage return redraws",
			chunks: []string{"foo [#---] 25%\rfoo [##--] 50%\r"},
			want:   []string{"foo [#---] 25%", "foo [##--] 50%"},
		},
		{
			name:   "trailing whitespace trimmed",
			chunks: []string{"checking dependencies...   \t\n"},
			want:   []string{"checking dependencies..."},
		},
		{
			name:   "leading whitespace kept",
			chunks: []string{" core downloading...\n"},
			want:   []string{" core downloading..."},
		},
		{
			name:   "fragment kept for next call",
			chunks: []string{"one\ntw", "o\nthr"},
			want:   []string{"one", "two"},
			rest:   "thr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Chunker
			var got []string
			for _, ch := range tt.chunks {
				got = append(got, c.Push([]byte(ch))...)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rest, c.Flush())
		})
	}
}

func TestChunker_NeitherDropsNorDuplicates_When_SplitAtAnyOffset(t *testing.T) {
	transcript := "resolving dependencies...\nlooking for conflicting packages...\n\nPackages (2) foo-1.0-1  bar-2.0-1\n:: Proceed with installation? [Y/n] \n(1/2) installing foo\n(2/2) installing bar"

	var whole Chunker
	want := append(whole.Push([]byte(transcript)), whole.Flush())

	for i := 0; i <= len(transcript); i++ {
		var c Chunker
		got := c.Push([]byte(transcript[:i]))
		got = append(got, c.Push([]byte(transcript[i:]))...)
		if rest := c.Flush(); rest != "" {
			got = append(got, rest)
		}
		require.Equal(t, want, got, "split at %d", i)
	}
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain line untouched",
			line: "checking dependencies...",
			want: []string{"checking dependencies..."},
		},
		{
			name: "single numbered prefix untouched",
			line: "(1/5) installing foo",
			want: []string{"(1/5) installing foo"},
		},
		{
			name: "merged numbered redraws split",
			line: "(1/2) checking keys in keyring [###] 100%(2/2) checking package integrity [###] 100%",
			want: []string{"checking keys in keyring [###] 100%", "checking package integrity [###] 100%"},
		},
		{
			name: "single trailing percent untouched",
			line: "foo-1.0-1-x86_64 [####----]  50%",
			want: []string{"foo-1.0-1-x86_64 [####----]  50%"},
		},
		{
			name: "merged percent redraws split",
			line: "foo [#---] 25%foo [##--] 50%",
			want: []string{"foo [#---] 25%", "foo [##--] 50%"},
		},
		{
			name: "part without trailing digit keeps no percent",
			line: "a 10% b",
			want: []string{"a 10%", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(tt.line))
		})
	}
}

func TestSegment_HandlesLongLines(t *testing.T) {
	line := strings.Repeat("x", 10000)
	assert.Equal(t, []string{line}, Segment(line))
}
