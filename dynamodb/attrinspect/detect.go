package attrinspect

import "fmt"

// Guess is the compression family suggested by a payload's leading bytes.
type Guess uint8

const (
	GuessNone Guess = iota
	GuessGzip
	GuessZlib
)

func (g Guess) String() string {
	switch g {
	case GuessNone:
		return "none"
	case GuessGzip:
		return "gzip"
	case GuessZlib:
		return "zlib"
	default:
		return fmt.Sprintf("unknown(%d)", g)
	}
}

// Compressed reports whether the guess warrants a decompression attempt.
func (g Guess) Compressed() bool {
	return g == GuessGzip || g == GuessZlib
}

// Detect inspects the first two bytes of b.
//
// The result only gates whether decompression is attempted. Signature bytes
// can collide with ordinary content, so the cascade never trusts it alone.
func Detect(b []byte) Guess {
	if len(b) < 2 {
		return GuessNone
	}
	switch {
	case b[0] == 0x1f && b[1] == 0x8b:
		return GuessGzip
	case b[0] == 0x78 && b[1] >= 0x01 && b[1] <= 0x9c:
		return GuessZlib
	default:
		return GuessNone
	}
}
