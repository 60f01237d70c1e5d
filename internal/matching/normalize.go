// Package matching implements the heuristic name-matching engine that links
// externally-synced campaigns to engagements: name normalization, alias
// expansion, campaign-name segment parsing, and positional fuzzy matching.
package matching

import (
	"regexp"
	"strings"
)

// suffixWords lists legal/organizational suffix words removed during name
// normalization, matched as whole words anywhere in the name.
var suffixWords = map[string]bool{
	"llc":          true,
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"ltd":          true,
	"limited":      true,
	"lp":           true,
	"llp":          true,
	"co":           true,
	"partners":     true,
	"capital":      true,
	"fund":         true,
	"funds":        true,
	"group":        true,
	"holdings":     true,
	"management":   true,
	"equity":       true,
	"ventures":     true,
	"advisors":     true,
}

// builtinAbbreviations maps common business-term shorthands to their full
// forms. This table is distinct from workspace aliases: it is applied as a
// second expansion round inside the matcher, after normalization.
var builtinAbbreviations = map[string]string{
	"cap":   "capital",
	"mgmt":  "management",
	"sr":    "senior",
	"jr":    "junior",
	"intl":  "international",
	"assoc": "associates",
	"bros":  "brothers",
	"grp":   "group",
	"svcs":  "services",
	"tech":  "technology",
	"mfg":   "manufacturing",
	"dist":  "distribution",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// Normalize canonicalizes a free-text organization name for matching:
// lower-case, "&" to "and", periods/commas stripped, legal suffix words
// removed as whole words, whitespace collapsed and trimmed. Pure and
// deterministic; empty or whitespace-only input normalizes to "".
func Normalize(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return ""
	}

	name = strings.NewReplacer(
		"&", " and ",
		".", "",
		",", "",
		"'", "",
		"\"", "",
	).Replace(name)

	words := strings.Fields(name)
	kept := words[:0]
	for _, w := range words {
		if suffixWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	name = strings.Join(kept, " ")

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// ExpandAbbreviations resolves workspace-specific shorthands before
// normalization. An exact full-string alias hit wins; otherwise each
// whitespace/hyphen-delimited token is expanded individually, leaving
// unknown tokens unchanged. Lookups are case-insensitive; an empty alias
// map is a no-op.
func ExpandAbbreviations(text string, aliases map[string]string) string {
	if len(aliases) == 0 {
		return text
	}

	if full, ok := aliases[strings.ToLower(strings.TrimSpace(text))]; ok {
		return full
	}

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-'
	})
	for i, tok := range tokens {
		if full, ok := aliases[strings.ToLower(tok)]; ok {
			tokens[i] = full
		}
	}
	return strings.Join(tokens, " ")
}

// expandBuiltins expands known business-term shorthands per token in an
// already-normalized name.
func expandBuiltins(normalized string) string {
	if normalized == "" {
		return ""
	}
	tokens := strings.Fields(normalized)
	changed := false
	for i, tok := range tokens {
		if full, ok := builtinAbbreviations[tok]; ok {
			tokens[i] = full
			changed = true
		}
	}
	if !changed {
		return normalized
	}
	return strings.Join(tokens, " ")
}
