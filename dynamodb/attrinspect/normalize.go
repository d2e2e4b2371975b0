package attrinspect

import (
	"encoding/base64"
	"encoding/json"
	"unicode/utf8"
)

// Normalize converts v to its canonical byte sequence.
//
// The second return value is false when v is structured and therefore not
// byte-like; callers should classify it directly. Text is decoded as
// standard base64 first, because compressed payloads are conventionally
// stored that way, and falls back to its UTF-8 bytes when it is not valid
// base64. The returned slice is always a fresh copy.
func Normalize(v Value) ([]byte, bool) {
	switch v.kind {
	case KindStructured:
		return nil, false
	case KindText:
		if b, ok := decodeBase64(v.text); ok {
			return b, true
		}
		return []byte(v.text), true
	case KindBytes:
		return clone(v.bytes), true
	case KindBuffer:
		if v.buffer == nil {
			return []byte{}, true
		}
		return clone(v.buffer.Bytes()), true
	case KindPrimitive:
		return []byte(stringify(v.any)), true
	default:
		return []byte(stringify(v.Interface())), true
	}
}

// decodeBase64 accepts padded and unpadded standard base64.
func decodeBase64(s string) ([]byte, bool) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, true
	}
	if len(s)%4 != 0 {
		if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// renderOriginal is the textual form of v shown when it is not decompressed.
// Binary that is not valid UTF-8 is shown as standard base64, matching how
// B attributes are rendered elsewhere in the browser.
func renderOriginal(v Value) string {
	switch v.kind {
	case KindText:
		return v.text
	case KindBytes:
		return renderBytes(v.bytes)
	case KindBuffer:
		if v.buffer == nil {
			return ""
		}
		return renderBytes(v.buffer.Bytes())
	case KindStructured:
		b, err := json.Marshal(v.any)
		if err != nil {
			return stringify(v.any)
		}
		return string(b)
	default:
		return stringify(v.any)
	}
}

func renderBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return base64.StdEncoding.EncodeToString(b)
}
