package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFingerprintDeterministic(t *testing.T) {
	req := Request{
		Prompt:   "Suggere trois recettes d'ete",
		Model:    "gpt-4o-mini",
		Schema:   "recipe",
		ListMode: true,
		Params:   map[string]string{"temperature": "0.2", "lang": "fr"},
	}

	assert.Equal(t, Fingerprint(req), Fingerprint(req))
	assert.True(t, strings.HasPrefix(Fingerprint(req), "souschef:cache:"))
}

func TestFingerprintWhitespaceNormalization(t *testing.T) {
	a := Fingerprint(Request{Prompt: "Suggere   trois\n\trecettes", Schema: "recipe"})
	b := Fingerprint(Request{Prompt: "  Suggere trois recettes  ", Schema: "recipe"})
	assert.Equal(t, a, b)
}

func TestFingerprintDiscriminates(t *testing.T) {
	base := Request{Prompt: "Suggere trois recettes", Model: "m", Schema: "recipe"}

	variants := []Request{
		{Prompt: "Suggere quatre recettes", Model: "m", Schema: "recipe"},
		{Prompt: "Suggere trois recettes", Model: "m2", Schema: "recipe"},
		{Prompt: "Suggere trois recettes", Model: "m", Schema: "dish"},
		{Prompt: "Suggere trois recettes", Model: "m", Schema: "recipe", ListMode: true},
		{Prompt: "Suggere trois recettes", Model: "m", Schema: "recipe", Params: map[string]string{"temperature": "0.9"}},
	}

	seen := map[string]struct{}{Fingerprint(base): {}}
	for _, v := range variants {
		fp := Fingerprint(v)
		_, dup := seen[fp]
		require.False(t, dup, "collision for %+v", v)
		seen[fp] = struct{}{}
	}
}

func TestProperty_Fingerprint_ParamOrderIrrelevant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		params := rapid.MapOf(
			rapid.StringMatching(`[a-z_]{1,10}`),
			rapid.StringMatching(`[a-z0-9.]{0,10}`),
		).Draw(t, "params")

		// Two map instances with identical content; Go randomizes iteration
		// order per map, the fingerprint must not.
		clone := make(map[string]string, len(params))
		for k, v := range params {
			clone[k] = v
		}

		a := Fingerprint(Request{Prompt: "p", Params: params})
		b := Fingerprint(Request{Prompt: "p", Params: clone})
		require.Equal(t, a, b)
	})
}
