package attrinspect

import (
	"context"
	"fmt"
	"log/slog"
)

// Titles shown above inspected content.
const (
	TitleDecompressedJSON = "Decompressed JSON Content"
	TitleDecompressed     = "Decompressed Content"
	TitleCompressedJSON   = "Compressed JSON Content"
	TitleJSON             = "JSON Content"
	TitleDefault          = "Content"
)

// Result is the displayable outcome of inspecting one attribute value.
type Result struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	IsStructured bool   `json:"isStructured"`

	// DecompressionAttempted is set when the payload carried a gzip or zlib
	// signature.
	DecompressionAttempted bool `json:"decompressionAttempted"`
	// Codec is the codec that produced Content, or CodecNone.
	Codec Codec `json:"codec"`
	// DecompressionFailed is set when every codec failed and Content shows
	// the original value instead.
	DecompressionFailed bool `json:"decompressionFailed"`
	// Diagnostic explains a total decompression failure. Empty otherwise.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Title picks the label for a result. passthrough is used for plain content
// that was never compressed; an empty passthrough becomes TitleDefault.
func Title(attempted, succeeded, structured bool, passthrough string) string {
	switch {
	case attempted && succeeded && structured:
		return TitleDecompressedJSON
	case attempted && succeeded:
		return TitleDecompressed
	case attempted:
		return TitleCompressedJSON
	case structured:
		return TitleJSON
	case passthrough != "":
		return passthrough
	default:
		return TitleDefault
	}
}

// Inspector decompresses and classifies attribute values.
// It is safe for concurrent use.
type Inspector struct {
	engine *Engine
	logger *slog.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithEngine replaces the decompression engine.
func WithEngine(e *Engine) Option {
	return func(i *Inspector) { i.engine = e }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(i *Inspector) { i.logger = l }
}

// New creates an Inspector with the default cascade.
func New(opts ...Option) *Inspector {
	i := &Inspector{}
	for _, opt := range opts {
		opt(i)
	}
	if i.engine == nil {
		i.engine = defaultEngine
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	return i
}

var defaultInspector = New()

// DecompressAndClassify inspects v with the default Inspector.
func DecompressAndClassify(ctx context.Context, v Value) Result {
	return defaultInspector.Inspect(ctx, v)
}

// Inspect inspects v, titling plain content TitleDefault.
func (i *Inspector) Inspect(ctx context.Context, v Value) Result {
	return i.InspectNamed(ctx, "", v)
}

// InspectNamed inspects v. name is the pass-through title for content that
// is neither compressed nor JSON, usually the attribute name.
//
// InspectNamed never fails: every path ends in displayable content.
func (i *Inspector) InspectNamed(ctx context.Context, name string, v Value) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.ErrorContext(ctx, "attribute inspection fault", "kind", v.Kind(), "panic", r)
			res = Result{
				Title:      Title(false, false, false, name),
				Content:    fmt.Sprint(v.Interface()),
				Diagnostic: fmt.Sprintf("inspection failed: %v", r),
			}
		}
	}()

	canonical, byteLike := Normalize(v)
	if !byteLike {
		c := ClassifyStructured(v.Interface())
		return Result{
			Title:        Title(false, false, c.IsStructured, name),
			Content:      c.Content,
			IsStructured: c.IsStructured,
		}
	}

	guess := Detect(canonical)
	if !guess.Compressed() {
		c := Classify(renderOriginal(v))
		return Result{
			Title:        Title(false, false, c.IsStructured, name),
			Content:      c.Content,
			IsStructured: c.IsStructured,
		}
	}

	out := i.engine.Decompress(canonical)
	if out.OK() {
		i.logger.DebugContext(ctx, "attribute decompressed",
			"guess", guess, "codec", out.Codec, "in", len(canonical), "out", len(out.Text))
		c := Classify(out.Text)
		return Result{
			Title:                  Title(true, true, c.IsStructured, name),
			Content:                c.Content,
			IsStructured:           c.IsStructured,
			DecompressionAttempted: true,
			Codec:                  out.Codec,
		}
	}

	i.logger.DebugContext(ctx, "attribute decompression failed", "guess", guess, "error", out.Summary())
	c := Classify(renderOriginal(v))
	return Result{
		Title:                  Title(true, false, c.IsStructured, name),
		Content:                c.Content,
		IsStructured:           c.IsStructured,
		DecompressionAttempted: true,
		DecompressionFailed:    true,
		Diagnostic:             diagnostic(guess, out),
	}
}

func diagnostic(guess Guess, out Outcome) string {
	return fmt.Sprintf("payload looked %s-compressed but could not be decompressed, showing raw content (tried %s)",
		guess, out.Summary())
}
