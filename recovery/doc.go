// Package recovery turns raw model text into a decodable JSON value.
//
// Five strategies are tried in a fixed precision-to-leniency order: direct
// decode, balanced-bracket extraction, textual syntax repair, partial decode
// of truncated arrays, and an explicit empty-value floor. The engine is a
// pure function over its input; every attempt is recorded for diagnostics.
package recovery
