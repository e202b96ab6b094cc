package recovery

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/souschef-ai/souschef/types"
)

// Strategy identifies one recovery strategy. Values are ordered from most
// precise to most lenient and recorded on every parsed record.
type Strategy int

const (
	StrategyDirect   Strategy = iota // decode the whole trimmed input
	StrategyExtract                  // balanced-bracket extraction from surrounding prose
	StrategyRepair                   // textual substitutions, then decode
	StrategyPartial                  // decode complete elements of a broken array
	StrategyFallback                 // explicit empty / failed floor
)

// String returns the strategy name used in logs.
func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyExtract:
		return "extract"
	case StrategyRepair:
		return "repair"
	case StrategyPartial:
		return "partial"
	case StrategyFallback:
		return "fallback"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Attempt records one strategy try and its outcome. Attempts stop at the
// first success.
type Attempt struct {
	Strategy Strategy `json:"strategy"`
	OK       bool     `json:"ok"`
	Detail   string   `json:"detail,omitempty"`
}

// Result is a recovered candidate value plus which strategy produced it and
// the attempt log for diagnostics.
type Result struct {
	Value    any       `json:"value"`
	Strategy Strategy  `json:"strategy"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// Repaired reports whether any recovery beyond a direct decode was needed.
func (r *Result) Repaired() bool {
	return r.Strategy != StrategyDirect
}

// Engine runs the strategy ladder. Stateless apart from its logger; Recover
// is a pure function of its input.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a recovery engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger.With(zap.String("component", "recovery_engine"))}
}

// Recover extracts a decodable JSON value from raw model text.
//
// In list mode the fallback strategy yields an empty array, so the returned
// error is always nil; in object mode exhausting the ladder returns a typed
// RECOVERY_EXHAUSTED error alongside the attempt log. Either way the caller
// never sees a panic or an undecorated decode error.
func (e *Engine) Recover(raw string, listMode bool) (*Result, error) {
	res := &Result{}
	trimmed := strings.TrimSpace(raw)

	// Strategy 0: direct decode.
	if v, err := decodeStrict(trimmed); err == nil {
		res.Value = v
		res.Strategy = StrategyDirect
		res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyDirect, OK: true})
		return res, nil
	} else {
		res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyDirect, Detail: err.Error()})
	}

	// Strategy 1: bracket extraction. Code fences are stripped first since
	// models routinely wrap payloads in markdown.
	unfenced := stripCodeFences(trimmed)
	if candidate, ok := extractBalanced(unfenced); ok {
		if v, err := decodeStrict(candidate); err == nil {
			res.Value = v
			res.Strategy = StrategyExtract
			res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyExtract, OK: true})
			e.logRepaired(raw, StrategyExtract)
			return res, nil
		} else {
			res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyExtract, Detail: err.Error()})
		}
	} else {
		res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyExtract, Detail: "no balanced JSON payload found"})
	}

	// Strategy 2: syntax repair over the bracket slice (balanced or not).
	slice := bracketSlice(unfenced)
	if slice != "" {
		repaired := applyRepairs(slice)
		if v, err := decodeStrict(repaired); err == nil {
			res.Value = v
			res.Strategy = StrategyRepair
			res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyRepair, OK: true})
			e.logRepaired(raw, StrategyRepair)
			return res, nil
		} else {
			res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyRepair, Detail: err.Error()})
		}
	} else {
		res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyRepair, Detail: "no bracket slice to repair"})
	}

	// Strategy 3: partial decode of a broken or truncated array.
	if elems, n, ok := decodePartialArray(slice); ok {
		res.Value = elems
		res.Strategy = StrategyPartial
		res.Attempts = append(res.Attempts, Attempt{
			Strategy: StrategyPartial,
			OK:       true,
			Detail:   fmt.Sprintf("recovered %d element(s)", n),
		})
		e.logRepaired(raw, StrategyPartial)
		return res, nil
	}
	res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyPartial, Detail: "no complete array elements"})

	// Strategy 4: the explicit floor. Never an unhandled failure, but
	// always labeled low-confidence.
	res.Strategy = StrategyFallback
	res.Attempts = append(res.Attempts, Attempt{Strategy: StrategyFallback, OK: true, Detail: "floor reached"})
	e.logger.Warn("all recovery strategies exhausted",
		zap.Bool("list_mode", listMode),
		zap.String("input", truncate(raw, 160)),
	)
	if listMode {
		res.Value = []any{}
		return res, nil
	}
	return res, types.NewError(types.ErrRecoveryExhausted, "no strategy produced a decodable value")
}

func (e *Engine) logRepaired(raw string, s Strategy) {
	e.logger.Debug("payload recovered",
		zap.Stringer("strategy", s),
		zap.String("input", truncate(raw, 160)),
	)
}

// decodeStrict decodes s as a single JSON value with nothing but whitespace
// after it.
func decodeStrict(s string) (any, error) {
	if s == "" {
		return nil, fmt.Errorf("empty input")
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var trailing any
	if err := dec.Decode(&trailing); err == nil {
		return nil, fmt.Errorf("trailing content after JSON value")
	}
	return v, nil
}

var codeFenceRegex = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// stripCodeFences returns the content of the first markdown code fence, or
// the input unchanged when no fence is present.
func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	if m := codeFenceRegex.FindStringSubmatch(s); len(m) > 1 {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			return inner
		}
	}
	return s
}

// extractBalanced returns the slice enclosed by the first opening bracket
// and its balanced close, honoring string context and escapes. It commits
// to the first bracket: a truncated outer payload fails here so the partial
// strategy can salvage its complete elements instead of extraction stealing
// the first one.
func extractBalanced(s string) (string, bool) {
	i := strings.IndexAny(s, "{[")
	if i < 0 {
		return "", false
	}
	if end, ok := matchBracket(s, i); ok {
		return s[i : end+1], true
	}
	return "", false
}

// matchBracket returns the index of the bracket closing the one at start.
func matchBracket(s string, start int) (int, bool) {
	open := s[start]
	var close byte
	if open == '{' {
		close = '}'
	} else {
		close = ']'
	}
	level := 0
	inString := false
	escaped := false
	for j := start; j < len(s); j++ {
		c := s[j]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case open:
			if !inString {
				level++
			}
		case close:
			if !inString {
				level--
				if level == 0 {
					return j, true
				}
			}
		}
	}
	return 0, false
}

// bracketSlice returns the text from the first opening bracket to its
// balanced close, or to the end of input when the payload is truncated.
// Empty when no opening bracket exists.
func bracketSlice(s string) string {
	i := strings.IndexAny(s, "{[")
	if i < 0 {
		return ""
	}
	if end, ok := matchBracket(s, i); ok {
		return s[i : end+1]
	}
	return s[i:]
}

// decodePartialArray decodes as many complete top-level elements as
// possible from a broken or truncated array. Malformed elements are
// skipped; each element gets one repair attempt before being dropped.
// Returns ok=false when the slice is not an array or yields no elements.
func decodePartialArray(slice string) ([]any, int, bool) {
	s := strings.TrimSpace(slice)
	if s == "" || s[0] != '[' {
		return nil, 0, false
	}
	elems := []any{}
	for _, part := range splitTopLevel(s[1:]) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if v, err := decodeStrict(part); err == nil {
			elems = append(elems, v)
			continue
		}
		if v, err := decodeStrict(applyRepairs(part)); err == nil {
			elems = append(elems, v)
		}
	}
	if len(elems) == 0 {
		return nil, 0, false
	}
	return elems, len(elems), true
}

// splitTopLevel splits array body text (everything after the opening '[')
// on commas at nesting depth zero. A ']' at depth zero closes the array and
// ends the scan; a missing close simply ends the last element at the input
// boundary.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	inString := false
	escaped := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
			}
		case ']':
			if !inString {
				if depth == 0 {
					return append(parts, s[start:i])
				}
				depth--
			}
		case ',':
			if !inString && depth <= 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// truncate shortens s for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
