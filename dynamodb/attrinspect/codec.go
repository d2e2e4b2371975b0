package attrinspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Codec names a decompression format tried by the cascade.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecGzip
	CodecZlib
	CodecRawDeflate
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecGzip:
		return "gzip"
	case CodecZlib:
		return "zlib"
	case CodecRawDeflate:
		return "rawDeflate"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// MarshalText renders the codec name in JSON responses.
func (c Codec) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

var (
	// ErrInvalidUTF8 marks a codec that inflated the payload into bytes that
	// are not text. The cascade treats it like any other codec failure.
	ErrInvalidUTF8 = errors.New("decompressed output is not valid UTF-8")

	// ErrOutputTooLarge is returned when inflated output exceeds the
	// engine's limit.
	ErrOutputTooLarge = errors.New("decompressed output exceeds limit")
)

// DefaultMaxOutput bounds the inflated size of a single attribute.
// DynamoDB items are at most 400 KB, so this only trips on hostile payloads.
const DefaultMaxOutput = 64 << 20

// Decompressor inflates a payload in one format.
//
// Implementations must be safe for concurrent use. The returned slice is
// owned by the caller.
type Decompressor interface {
	Codec() Codec
	// Decompress inflates data. A positive limit bounds the output size.
	Decompress(data []byte, limit int64) ([]byte, error)
}

// CodecFailure records why one codec rejected a payload.
type CodecFailure struct {
	Codec Codec
	Err   error
}

func (f CodecFailure) Error() string {
	return f.Codec.String() + ": " + f.Err.Error()
}

func (f CodecFailure) Unwrap() error { return f.Err }

// Outcome is the result of running the cascade.
//
// On success Codec names the codec that produced Text, and Failures holds
// the codecs that were tried before it. On total failure Codec is CodecNone
// and Failures holds one entry per codec in cascade order.
type Outcome struct {
	Text     string
	Codec    Codec
	Failures []CodecFailure
}

// OK reports whether any codec succeeded.
func (o Outcome) OK() bool { return o.Codec != CodecNone }

// Err joins the codec failures, or returns nil on success.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	errs := make([]error, len(o.Failures))
	for i, f := range o.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Summary lists each failed codec with its error, in cascade order.
func (o Outcome) Summary() string {
	parts := make([]string, len(o.Failures))
	for i, f := range o.Failures {
		parts[i] = f.Error()
	}
	return strings.Join(parts, "; ")
}

// Engine runs an ordered cascade of decompressors.
type Engine struct {
	cascade   []Decompressor
	maxOutput int64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxOutput bounds the inflated size per codec attempt. Zero or a
// negative value disables the bound.
func WithMaxOutput(n int64) EngineOption {
	return func(e *Engine) { e.maxOutput = n }
}

// WithCascade replaces the default gzip, zlib, raw deflate order.
func WithCascade(ds ...Decompressor) EngineOption {
	return func(e *Engine) { e.cascade = ds }
}

// NewEngine returns an engine trying gzip, then zlib, then raw deflate.
//
// gzip and zlib are self-describing and reject a mismatched header
// immediately. Raw deflate has no header and can accept arbitrary bytes,
// so it runs last.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		cascade:   []Decompressor{GzipDecompressor{}, ZlibDecompressor{}, RawDeflateDecompressor{}},
		maxOutput: DefaultMaxOutput,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// Decompress runs the default cascade against b.
func Decompress(b []byte) Outcome {
	return defaultEngine.Decompress(b)
}

// Decompress tries each codec in order and stops at the first one whose
// output inflates and decodes as UTF-8.
func (e *Engine) Decompress(b []byte) Outcome {
	var out Outcome
	for _, d := range e.cascade {
		text, err := attempt(d, b, e.maxOutput)
		if err != nil {
			out.Failures = append(out.Failures, CodecFailure{Codec: d.Codec(), Err: err})
			continue
		}
		out.Text = text
		out.Codec = d.Codec()
		return out
	}
	return out
}

func attempt(d Decompressor, b []byte, limit int64) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected fault: %v", r)
		}
	}()
	raw, err := d.Decompress(b, limit)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}

func readAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w of %d bytes", ErrOutputTooLarge, limit)
	}
	return data, nil
}

// Readers are pooled and reset per payload. A reader left in an error state
// is still reusable because Reset clears it.
var (
	gzipReaderPool    sync.Pool // *gzip.Reader
	zlibReaderPool    sync.Pool // io.ReadCloser implementing zlib.Resetter
	deflateReaderPool sync.Pool // io.ReadCloser implementing flate.Resetter
)

// GzipDecompressor inflates gzip members (RFC 1952).
type GzipDecompressor struct{}

var _ Decompressor = GzipDecompressor{}

func (GzipDecompressor) Codec() Codec { return CodecGzip }

func (GzipDecompressor) Decompress(data []byte, limit int64) ([]byte, error) {
	src := bytes.NewReader(data)
	zr, _ := gzipReaderPool.Get().(*gzip.Reader)
	if zr == nil {
		var err error
		if zr, err = gzip.NewReader(src); err != nil {
			return nil, err
		}
	} else if err := zr.Reset(src); err != nil {
		gzipReaderPool.Put(zr)
		return nil, err
	}
	defer gzipReaderPool.Put(zr)

	return readAll(zr, limit)
}

// ZlibDecompressor inflates zlib streams (RFC 1950).
type ZlibDecompressor struct{}

var _ Decompressor = ZlibDecompressor{}

func (ZlibDecompressor) Codec() Codec { return CodecZlib }

func (ZlibDecompressor) Decompress(data []byte, limit int64) ([]byte, error) {
	src := bytes.NewReader(data)
	zr, _ := zlibReaderPool.Get().(io.ReadCloser)
	if zr == nil {
		var err error
		if zr, err = zlib.NewReader(src); err != nil {
			return nil, err
		}
	} else if err := zr.(zlib.Resetter).Reset(src, nil); err != nil {
		zlibReaderPool.Put(zr)
		return nil, err
	}
	defer zlibReaderPool.Put(zr)

	out, err := readAll(zr, limit)
	if err != nil {
		return nil, err
	}
	return out, zr.Close()
}

// RawDeflateDecompressor inflates headerless deflate streams (RFC 1951).
type RawDeflateDecompressor struct{}

var _ Decompressor = RawDeflateDecompressor{}

func (RawDeflateDecompressor) Codec() Codec { return CodecRawDeflate }

func (RawDeflateDecompressor) Decompress(data []byte, limit int64) ([]byte, error) {
	src := bytes.NewReader(data)
	fr, _ := deflateReaderPool.Get().(io.ReadCloser)
	if fr == nil {
		fr = flate.NewReader(src)
	} else if err := fr.(flate.Resetter).Reset(src, nil); err != nil {
		deflateReaderPool.Put(fr)
		return nil, err
	}
	defer deflateReaderPool.Put(fr)

	out, err := readAll(fr, limit)
	if err != nil {
		return nil, err
	}
	return out, fr.Close()
}
