// Package attrinspect turns a DynamoDB attribute value of unknown
// representation into content that can be displayed to a user.
//
// Attribute values that hold compressed payloads arrive in many shapes:
// base64 text written by one service, raw binary (B) attributes written by
// another, plain strings, or nested maps that were never compressed at all.
// The inspector accepts any of these and always produces something
// displayable:
//
//  1. Normalize converts the value to canonical bytes. Text is decoded as
//     standard base64 when possible and used verbatim otherwise. Structured
//     values (maps, lists, sets) are not byte-like and skip decompression.
//  2. Detect looks at the two leading bytes for a gzip or zlib signature.
//  3. Decompress runs the gzip → zlib → raw deflate cascade and returns the
//     first codec whose output inflates and is valid UTF-8.
//  4. Classify checks whether the resulting text is JSON and, if so,
//     re-indents it.
//
// When every codec fails, the original value is shown instead and the
// result carries a diagnostic naming each codec and its error.
//
// # Usage
//
//	res := attrinspect.DecompressAndClassify(ctx, attrinspect.FromAttributeValue(item["payload"]))
//	fmt.Println(res.Title)
//	fmt.Println(res.Content)
//	if res.DecompressionFailed {
//		fmt.Println("warning:", res.Diagnostic)
//	}
//
// Every call is independent. An [Inspector] holds only configuration and
// may be shared between goroutines.
package attrinspect
