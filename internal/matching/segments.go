package matching

import (
	"regexp"
	"strings"
)

// segmentDelimiter is the literal separator campaign names use between
// meaningful parts: a single hyphen surrounded by spaces. A bare hyphen
// inside a name ("Smith-Jones") is not a delimiter.
const segmentDelimiter = " - "

// leadingTagRe matches a leading bracketed/braced/parenthesized status tag
// such as "[Ended]" or "{PAUSED}".
var leadingTagRe = regexp.MustCompile(`^\s*[\[{(][^\]})]*[\]})]\s*`)

var leadingAsterisksRe = regexp.MustCompile(`^\*+\s*`)

// ParserConfig carries the deny-list and allow-list tables the segment
// parser filters with. Tables are injected at construction so workspaces can
// tune them and tests can run against synthetic ones.
type ParserConfig struct {
	// DenyPatterns are matched case-insensitively against each candidate
	// segment (already lower-cased); a hit drops the segment.
	DenyPatterns []*regexp.Regexp

	// ShortSponsors allow-lists 1-2 letter tokens that are real sponsor
	// names rather than someone's initials.
	ShortSponsors map[string]bool
}

// DefaultParserConfig returns the built-in deny-list covering tier/phase
// labels, numeric and date tokens, channel tags, and boilerplate campaign
// phrases, plus the default short-sponsor allow-list.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		DenyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(tier|phase)\s*\d+$`),
			regexp.MustCompile(`^\d+$`),
			regexp.MustCompile(`^q[1-4](\s*\d{2,4})?$`),
			regexp.MustCompile(`^\d{1,2}[/.]\d{1,2}([/.]\d{2,4})?$`),
			regexp.MustCompile(`^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{2,4}$`),
			regexp.MustCompile(`^re-?engage(ment)?$`),
			regexp.MustCompile(`^retarget(ing)?$`),
			regexp.MustCompile(`^gifting$`),
			regexp.MustCompile(`^top targets$`),
			regexp.MustCompile(`^highly personalized$`),
			regexp.MustCompile(`^new script$`),
			regexp.MustCompile(`^part \d+$`),
			regexp.MustCompile(`^copy$`),
			regexp.MustCompile(`^short$`),
			regexp.MustCompile(`^(email|gmail|outlook|calls?|sms)$`),
			regexp.MustCompile(`^li\s*\+`),
		},
		ShortSponsors: map[string]bool{
			"ge": true,
			"hp": true,
			"bp": true,
			"3g": true,
		},
	}
}

// Parser splits raw campaign names into ordered meaningful segments.
type Parser struct {
	cfg ParserConfig
}

// NewParser creates a segment parser with the given tables.
func NewParser(cfg ParserConfig) *Parser {
	return &Parser{cfg: cfg}
}

// ParseSegments extracts the ordered meaningful segments of a raw campaign
// name. Position is load-bearing downstream: segment 0 is the sponsor
// candidate and segment 1 the portfolio-company candidate. Fewer than 2
// surviving segments means the name is insufficient for matching; the caller
// reports it rather than guessing.
func (p *Parser) ParseSegments(rawName string) []string {
	name := leadingTagRe.ReplaceAllString(rawName, "")
	name = leadingAsterisksRe.ReplaceAllString(name, "")

	parts := strings.Split(name, segmentDelimiter)

	var segments []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) < 2 {
			continue
		}
		if p.denied(part) {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}

// denied reports whether a candidate segment matches the deny-list. Bare
// 1-2 letter tokens are treated as initials unless allow-listed.
func (p *Parser) denied(part string) bool {
	lower := strings.ToLower(part)

	if len(lower) <= 2 && isAlpha(lower) {
		return !p.cfg.ShortSponsors[lower]
	}

	for _, re := range p.cfg.DenyPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
