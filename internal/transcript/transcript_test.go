package transcript

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/pacfo/internal/detect"
	"github.com/dkoosis/pacfo/pkg/interp"
)

func record(t *testing.T, compress bool) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, compress)
	require.NoError(t, err)

	rec.Started()
	rec.Feed(interp.Stdout, []byte("resolving dependencies...\n"))
	rec.Feed(interp.Stderr, []byte("warning: foo is newer\n"))
	rec.Feed(interp.Stdout, []byte("(1/1) installing foo\n"))
	digest := rec.Digest()
	require.NoError(t, rec.Close())
	return buf.Bytes(), digest
}

func TestRecorder_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "xz"
		}
		t.Run(name, func(t *testing.T) {
			data, digest := record(t, compress)

			tr, err := Load(bytes.NewReader(data))
			require.NoError(t, err)

			assert.Equal(t, detect.Recording, tr.Format)
			assert.Equal(t, compress, tr.Compressed)
			require.Len(t, tr.Chunks, 3)
			assert.Equal(t, interp.Stderr, tr.Chunks[1].Channel)
			assert.Equal(t, "warning: foo is newer\n", string(tr.Chunks[1].Data))
			assert.Equal(t, digest, tr.Digest)
		})
	}
}

func TestLoad_SplitsPlainCapture(t *testing.T) {
	capture := strings.Repeat("checking dependencies...\n", 400)

	tr, err := Load(strings.NewReader(capture))
	require.NoError(t, err)

	assert.Equal(t, detect.Plain, tr.Format)
	assert.Greater(t, len(tr.Chunks), 1)
	for _, c := range tr.Chunks {
		assert.LessOrEqual(t, len(c.Data), readChunk)
		assert.Equal(t, interp.Stdout, c.Channel)
	}
	assert.Equal(t, capture, string(tr.Text()))
	assert.Equal(t, Sum([]byte(capture)), tr.Digest)
}

func TestLoad_Fails_When_Empty(t *testing.T) {
	_, err := Load(strings.NewReader("\n\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoad_Fails_When_RecordingCorrupt(t *testing.T) {
	input := `{"t":0,"ch":"stdout","data":"ok\n"}` + "\n" + `{"t":1,"ch":` + "\n"
	_, err := Load(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2")
}

func TestCreate_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson.xz")
	rec, err := Create(path, true)
	require.NoError(t, err)
	rec.Feed(interp.Stdout, []byte(":: Synchronizing package databases...\n"))
	require.NoError(t, rec.Close())

	tr, err := Open(path)
	require.NoError(t, err)
	assert.True(t, tr.Compressed)
	assert.Equal(t, ":: Synchronizing package databases...\n", string(tr.Text()))
}
