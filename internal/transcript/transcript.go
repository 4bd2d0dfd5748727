// Package transcript records subprocess output as NDJSON chunks and loads
// recordings or raw captures back for replay through the interpreter.
package transcript

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/dkoosis/pacfo/internal/detect"
	"github.com/dkoosis/pacfo/pkg/interp"
)

// ErrEmpty is returned by Load for input with no content.
var ErrEmpty = errors.New("transcript is empty")

// readChunk matches the pipe buffer used when capturing live output.
const readChunk = 4096

// Record is one line of a recording.
type Record struct {
	// T is the offset from the start of the run in milliseconds.
	T       int64  `json:"t"`
	Channel string `json:"ch"`
	Data    string `json:"data"`
}

// Chunk is a piece of output in arrival order.
type Chunk struct {
	Channel interp.Channel
	Data    []byte
	Offset  time.Duration
}

// Recorder writes chunks as they arrive. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	start  time.Time
	enc    *json.Encoder
	hash   *blake3.Hasher
	xzw    *xz.Writer
	closer io.Closer
	err    error
}

// Create opens path for writing a recording, xz-compressed when compress is set.
func Create(path string, compress bool) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	r, err := NewRecorder(f, compress)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewRecorder writes a recording to w. Close must be called to flush
// compressed output; it does not close w.
func NewRecorder(w io.Writer, compress bool) (*Recorder, error) {
	r := &Recorder{start: time.Now(), hash: blake3.New()}
	if compress {
		xzw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		r.xzw = xzw
		w = xzw
	}
	r.enc = json.NewEncoder(w)
	return r, nil
}

// Started resets the time origin.
func (r *Recorder) Started() {
	r.mu.Lock()
	r.start = time.Now()
	r.mu.Unlock()
}

// Feed appends a chunk. The first write error is kept and returned by Close.
func (r *Recorder) Feed(ch interp.Channel, chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	_, _ = r.hash.Write(chunk)
	r.err = r.enc.Encode(Record{
		T:       time.Since(r.start).Milliseconds(),
		Channel: ch.String(),
		Data:    string(chunk),
	})
}

// Digest is the BLAKE3 hash of every byte fed so far.
func (r *Recorder) Digest() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return hex.EncodeToString(r.hash.Sum(nil))
}

// Close flushes compression and closes the file opened by Create.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.err
	if r.xzw != nil {
		if cerr := r.xzw.Close(); err == nil {
			err = cerr
		}
		r.xzw = nil
	}
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
		r.closer = nil
	}
	return err
}

// Transcript is a loaded capture.
type Transcript struct {
	Format     detect.Format
	Compressed bool
	Chunks     []Chunk
	// Digest is the BLAKE3 hash of the chunk payloads, matching Recorder.Digest.
	Digest string
}

// Text concatenates every chunk payload.
func (t *Transcript) Text() []byte {
	var buf bytes.Buffer
	for _, c := range t.Chunks {
		buf.Write(c.Data)
	}
	return buf.Bytes()
}

// Open loads the transcript at path.
func Open(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a plain capture, a recording, or an xz-compressed form of
// either. Plain captures are split into stdout chunks the size of a pipe read.
func Load(r io.Reader) (*Transcript, error) {
	br := bufio.NewReader(r)
	t := &Transcript{}

	format := sniff(br)
	if format == detect.XZ {
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		br = bufio.NewReader(xzr)
		t.Compressed = true
		format = sniff(br)
	}
	t.Format = format

	var err error
	switch format {
	case detect.Recording:
		t.Chunks, err = decodeRecording(br)
	case detect.Plain:
		t.Chunks, err = splitPlain(br)
	default:
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}

	h := blake3.New()
	for _, c := range t.Chunks {
		_, _ = h.Write(c.Data)
	}
	t.Digest = hex.EncodeToString(h.Sum(nil))
	return t, nil
}

func sniff(br *bufio.Reader) detect.Format {
	head, _ := br.Peek(readChunk)
	return detect.Sniff(head)
}

func decodeRecording(r io.Reader) ([]Chunk, error) {
	dec := json.NewDecoder(r)
	var out []Chunk
	for n := 1; ; n++ {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("recording record %d: %w", n, err)
		}
		ch := interp.Stdout
		if rec.Channel == interp.Stderr.String() {
			ch = interp.Stderr
		}
		out = append(out, Chunk{
			Channel: ch,
			Data:    []byte(rec.Data),
			Offset:  time.Duration(rec.T) * time.Millisecond,
		})
	}
}

func splitPlain(r io.Reader) ([]Chunk, error) {
	var out []Chunk
	for {
		buf := make([]byte, readChunk)
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			out = append(out, Chunk{Channel: interp.Stdout, Data: buf[:n]})
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return out, nil
		default:
			return nil, fmt.Errorf("read transcript: %w", err)
		}
	}
}

// Sum returns the BLAKE3 hex digest of data.
func Sum(data []byte) string {
	s := blake3.Sum256(data)
	return hex.EncodeToString(s[:])
}
