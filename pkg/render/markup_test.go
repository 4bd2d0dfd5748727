package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMarkup(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []Line
	}{
		{
			name:   "coloured line",
			markup: `<b><font color="#4BC413">installing foo</font></b><br>`,
			want:   []Line{{{Text: "installing foo", Color: "#4BC413", Bold: true}}},
		},
		{
			name:   "phase header",
			markup: "<br><B>:: Processing package changes...</B><br><br>",
			want:   []Line{nil, {{Text: ":: Processing package changes...", Bold: true}}, nil},
		},
		{
			name:   "nbsp becomes a space",
			markup: `<b><font color="#E55451">error: failed&nbsp;</font></b><br>`,
			want:   []Line{{{Text: "error: failed ", Color: "#E55451", Bold: true}}},
		},
		{
			name:   "trailing text without break",
			markup: "core is up to date",
			want:   []Line{{{Text: "core is up to date"}}},
		},
		{
			name:   "nested colours restore the outer one",
			markup: `<font color="blue">a<font color="#FF8040">b</font>c</font><br>`,
			want: []Line{{
				{Text: "a", Color: "blue"},
				{Text: "b", Color: "#FF8040"},
				{Text: "c", Color: "blue"},
			}},
		},
		{
			name:   "empty",
			markup: "",
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMarkup(tt.markup))
		})
	}
}

func TestStripMarkup(t *testing.T) {
	got := StripMarkup("<b>Installing packages...</b><br><br>")
	assert.Equal(t, []string{"Installing packages...", ""}, got)
}
