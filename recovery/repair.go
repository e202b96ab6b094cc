package recovery

import (
	"regexp"
	"strings"
)

// A repairFunc is one pure string transform of the repair pipeline. Each is
// independently testable; the pipeline applies them once, in order.
type repairFunc struct {
	name  string
	apply func(string) string
}

var (
	// Identifier-shaped token followed by a colon, after { or comma: the
	// conservative case of unquoted object keys. Quoted keys never match
	// because the preceding character class excludes '"'.
	unquotedKeyRegex = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)

	// Trailing comma directly before a closing bracket.
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)

	// Python-style literals as bare words (not inside identifiers).
	pythonTrueRegex  = regexp.MustCompile(`\bTrue\b`)
	pythonFalseRegex = regexp.MustCompile(`\bFalse\b`)
	pythonNoneRegex  = regexp.MustCompile(`\bNone\b`)
)

// repairPipeline is the declared, ordered substitution table applied by the
// syntax-repair strategy. Order matters: literal spellings are normalized
// before keys are quoted so `True:` is not mistaken for a key value pair.
var repairPipeline = []repairFunc{
	{"python_true", replaceOutsideStrings(pythonTrueRegex, "true")},
	{"python_false", replaceOutsideStrings(pythonFalseRegex, "false")},
	{"python_none", replaceOutsideStrings(pythonNoneRegex, "null")},
	{"single_quotes", normalizeSingleQuotes},
	{"quote_keys", quoteBareKeys},
	{"trailing_commas", stripTrailingCommas},
}

// applyRepairs runs the full pipeline over s.
func applyRepairs(s string) string {
	for _, r := range repairPipeline {
		s = r.apply(s)
	}
	return s
}

// replaceOutsideStrings builds a transform that applies re.ReplaceAll only
// to segments outside double-quoted JSON strings, so literal text like
// "True story" survives.
func replaceOutsideStrings(re *regexp.Regexp, repl string) func(string) string {
	return func(s string) string {
		var b strings.Builder
		b.Grow(len(s))
		for _, seg := range splitByStrings(s) {
			if seg.inString {
				b.WriteString(seg.text)
			} else {
				b.WriteString(re.ReplaceAllString(seg.text, repl))
			}
		}
		return b.String()
	}
}

// quoteBareKeys surrounds identifier-shaped object keys with quotes.
func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	for _, seg := range splitByStrings(s) {
		if seg.inString {
			b.WriteString(seg.text)
		} else {
			b.WriteString(unquotedKeyRegex.ReplaceAllString(seg.text, `$1"$2"$3`))
		}
	}
	return b.String()
}

// stripTrailingCommas removes commas that directly precede a closing
// bracket.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, seg := range splitByStrings(s) {
		if seg.inString {
			b.WriteString(seg.text)
		} else {
			b.WriteString(trailingCommaRegex.ReplaceAllString(seg.text, "$1"))
		}
	}
	return b.String()
}

// normalizeSingleQuotes rewrites single-quoted strings as double-quoted
// ones. Applied to the whole text in one pass since the string splitter
// only understands double quotes.
func normalizeSingleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble := false
	inSingle := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		switch c {
		case '\\':
			b.WriteByte(c)
			escaped = true
		case '"':
			if inSingle {
				// Inner double quote inside a single-quoted string must be
				// escaped once the delimiters become double quotes.
				b.WriteString(`\"`)
			} else {
				inDouble = !inDouble
				b.WriteByte(c)
			}
		case '\'':
			if inDouble {
				b.WriteByte(c)
			} else {
				inSingle = !inSingle
				b.WriteByte('"')
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// stringSegment is a run of text that is entirely inside or entirely outside
// a double-quoted string.
type stringSegment struct {
	text     string
	inString bool
}

// splitByStrings partitions s into alternating in-string / out-of-string
// segments, honoring backslash escapes. The quotes themselves belong to the
// in-string segments.
func splitByStrings(s string) []stringSegment {
	var segs []stringSegment
	start := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch s[i] {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			if inString {
				segs = append(segs, stringSegment{s[start : i+1], true})
				start = i + 1
				inString = false
			} else {
				if i > start {
					segs = append(segs, stringSegment{s[start:i], false})
				}
				start = i
				inString = true
			}
		}
	}
	if start < len(s) {
		segs = append(segs, stringSegment{s[start:], inString})
	}
	return segs
}
