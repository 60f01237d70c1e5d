package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
}

func TestNormalize_Lowercase(t *testing.T) {
	assert.Equal(t, "acme advisors", Normalize("ACME Advisors"))
}

func TestNormalize_StripSuffixWords(t *testing.T) {
	assert.Equal(t, "acme", Normalize("Acme LLC"))
	assert.Equal(t, "acme", Normalize("Acme Capital"))
	assert.Equal(t, "acme", Normalize("Acme Partners"))
	assert.Equal(t, "acme", Normalize("Acme Holdings"))
	assert.Equal(t, "new heritage", Normalize("New Heritage Capital Partners"))
}

func TestNormalize_SuffixWordsAnywhere(t *testing.T) {
	// Whole-word removal, not just trailing.
	assert.Equal(t, "acme growth", Normalize("Acme Capital Growth Fund"))
}

func TestNormalize_Ampersand(t *testing.T) {
	assert.Equal(t, "smith and jones", Normalize("Smith & Jones"))
}

func TestNormalize_Punctuation(t *testing.T) {
	assert.Equal(t, "acme", Normalize("Acme, Inc."))
	assert.Equal(t, "joes crab shack", Normalize("Joe's Crab Shack"))
}

func TestNormalize_CollapseWhitespace(t *testing.T) {
	assert.Equal(t, "acme advisors", Normalize("  Acme   Advisors  "))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Acme Capital Partners, LLC",
		"Smith & Jones Management",
		"  New   Heritage  ",
		"Roadrunner",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize should be idempotent for %q", in)
	}
}

func TestNormalize_WholeWordOnly(t *testing.T) {
	// "Collc" contains "llc" but is not the whole word.
	assert.Equal(t, "collc industries", Normalize("Collc Industries"))
	// "capitalize" must not lose its prefix.
	assert.Equal(t, "capitalize", Normalize("Capitalize"))
}

func TestExpandAbbreviations_EmptyMap(t *testing.T) {
	assert.Equal(t, "NH Partners", ExpandAbbreviations("NH Partners", nil))
	assert.Equal(t, "NH Partners", ExpandAbbreviations("NH Partners", map[string]string{}))
}

func TestExpandAbbreviations_ExactMatch(t *testing.T) {
	aliases := map[string]string{"nh": "New Heritage"}
	assert.Equal(t, "New Heritage", ExpandAbbreviations("NH", aliases))
	assert.Equal(t, "New Heritage", ExpandAbbreviations(" nh ", aliases))
}

func TestExpandAbbreviations_PerToken(t *testing.T) {
	aliases := map[string]string{"nh": "New Heritage"}
	assert.Equal(t, "New Heritage Growth", ExpandAbbreviations("NH Growth", aliases))
}

func TestExpandAbbreviations_HyphenDelimited(t *testing.T) {
	aliases := map[string]string{"nh": "New Heritage"}
	assert.Equal(t, "New Heritage Growth", ExpandAbbreviations("NH-Growth", aliases))
}

func TestExpandAbbreviations_UnknownTokensUnchanged(t *testing.T) {
	aliases := map[string]string{"nh": "New Heritage"}
	assert.Equal(t, "Acme Growth", ExpandAbbreviations("Acme Growth", aliases))
}

func TestExpandAbbreviations_ExactWinsOverTokens(t *testing.T) {
	aliases := map[string]string{
		"nh growth": "New Heritage Growth Fund II",
		"nh":        "New Heritage",
	}
	assert.Equal(t, "New Heritage Growth Fund II", ExpandAbbreviations("NH Growth", aliases))
}

func TestExpandBuiltins(t *testing.T) {
	assert.Equal(t, "acme capital", expandBuiltins("acme cap"))
	assert.Equal(t, "acme management", expandBuiltins("acme mgmt"))
	assert.Equal(t, "acme", expandBuiltins("acme"))
	assert.Equal(t, "", expandBuiltins(""))
}
