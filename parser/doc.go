// Package parser validates recovered JSON candidates against declared
// schemas and exposes the parse-one / parse-list operations with a
// strict/lenient mode switch.
package parser
