package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Request carries everything that affects a completion's parsed output.
// Anything not listed here must not influence the response, or two
// semantically different requests would collide on one fingerprint.
type Request struct {
	Prompt   string            `json:"prompt"`
	Model    string            `json:"model,omitempty"`
	Schema   string            `json:"schema,omitempty"` // schema descriptor name
	ListMode bool              `json:"list_mode,omitempty"`
	Params   map[string]string `json:"params,omitempty"` // output-affecting parameters
}

// Fingerprint returns a deterministic digest of the normalized request.
// Prompts differing only in insignificant whitespace, and parameter maps
// differing only in iteration order, normalize to the same key.
func Fingerprint(req Request) string {
	var b strings.Builder
	b.WriteString(normalizeWhitespace(req.Prompt))
	b.WriteByte('\x00')
	b.WriteString(req.Model)
	b.WriteByte('\x00')
	b.WriteString(req.Schema)
	b.WriteByte('\x00')
	if req.ListMode {
		b.WriteString("list")
	} else {
		b.WriteString("one")
	}

	keys := make([]string, 0, len(req.Params))
	for k := range req.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\x00%s=%s", k, req.Params[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "souschef:cache:" + hex.EncodeToString(sum[:16])
}

// normalizeWhitespace collapses every run of whitespace to a single space
// and trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
