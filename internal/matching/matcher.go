package matching

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Match scoring: segment 0 against the sponsor name is worth 10 points,
// segment 1 against the portfolio company 20. Only the full 30 qualifies —
// partial credit never links a campaign.
const (
	sponsorScore    = 10
	companyScore    = 20
	qualifyingScore = sponsorScore + companyScore
)

// Engagement is a match target: a client relationship keyed by a
// (sponsor, portfolio company) pair. Only engagements with both names
// populated are eligible.
type Engagement struct {
	ID               string
	DisplayName      string
	SponsorName      string
	PortfolioCompany string
}

// Eligible reports whether the engagement can be a match target.
func (e Engagement) Eligible() bool {
	return strings.TrimSpace(e.SponsorName) != "" && strings.TrimSpace(e.PortfolioCompany) != ""
}

// MatchKind tags a MatchResult.
type MatchKind int

const (
	// MatchNone: no engagement satisfied the positional two-field rule.
	MatchNone MatchKind = iota
	// MatchUnique: exactly one engagement qualified.
	MatchUnique
	// MatchAmbiguous: two or more engagements tied. Never auto-resolved —
	// a wrong silent link is worse than an unresolved campaign.
	MatchAmbiguous
)

// MatchResult is the tagged outcome of a match attempt. The tagged shape is
// deliberate: a future extractor can replace the positional heuristic
// without changing the driver's contract.
type MatchResult struct {
	Kind         MatchKind
	EngagementID string
	Candidates   []string // display names of tied engagements, for reporting
	Reason       string
}

// Matcher performs positional two-field matching of parsed campaign-name
// segments against a pool of engagements.
type Matcher struct {
	aliases map[string]string
}

// NewMatcher creates a matcher using the given workspace alias map (may be
// nil or empty; alias expansion is then a no-op).
func NewMatcher(aliases map[string]string) *Matcher {
	return &Matcher{aliases: aliases}
}

// FindMatch requires at least 2 segments: segment 0 is compared to each
// engagement's sponsor, segment 1 to its portfolio company. Campaign names
// are assumed to follow the "Sponsor - Client - ..." convention; names that
// don't are the main source of false negatives here.
func (m *Matcher) FindMatch(segments []string, engagements []Engagement) MatchResult {
	if len(segments) < 2 {
		return MatchResult{
			Kind:   MatchNone,
			Reason: fmt.Sprintf("insufficient segments (%d): %v", len(segments), segments),
		}
	}

	sponsorSeg := segments[0]
	companySeg := segments[1]

	var qualified []Engagement
	for _, e := range engagements {
		if !e.Eligible() {
			continue
		}

		score := 0
		if m.highConfidenceMatch(sponsorSeg, e.SponsorName) {
			score += sponsorScore
		}
		if m.highConfidenceMatch(companySeg, e.PortfolioCompany) {
			score += companyScore
		}
		if score == qualifyingScore {
			qualified = append(qualified, e)
		}
	}

	switch len(qualified) {
	case 0:
		return MatchResult{
			Kind:   MatchNone,
			Reason: fmt.Sprintf("no engagement matched sponsor %q + company %q", sponsorSeg, companySeg),
		}
	case 1:
		zap.L().Debug("matcher: unique match",
			zap.String("sponsor_segment", sponsorSeg),
			zap.String("company_segment", companySeg),
			zap.String("engagement_id", qualified[0].ID),
		)
		return MatchResult{Kind: MatchUnique, EngagementID: qualified[0].ID}
	default:
		names := make([]string, len(qualified))
		for i, e := range qualified {
			names[i] = e.DisplayName
		}
		return MatchResult{
			Kind:       MatchAmbiguous,
			Candidates: names,
			Reason:     fmt.Sprintf("ambiguous: %d engagements tied (%s)", len(qualified), strings.Join(names, ", ")),
		}
	}
}

// highConfidenceMatch compares a campaign-name segment to an engagement
// field: exact equality after alias expansion + normalization, OR a
// substring relation (shorter side at least 3 chars), OR either after a
// second round of built-in abbreviation expansion.
func (m *Matcher) highConfidenceMatch(segment, target string) bool {
	a := Normalize(ExpandAbbreviations(segment, m.aliases))
	b := Normalize(target)
	if a == "" || b == "" {
		return false
	}

	if a == b || substringMatch(a, b) {
		return true
	}

	ea, eb := expandBuiltins(a), expandBuiltins(b)
	return ea == eb || substringMatch(ea, eb)
}

// substringMatch reports whether one string contains the other, requiring
// the shorter side to be at least 3 chars to avoid trivial hits.
func substringMatch(a, b string) bool {
	shorter := a
	if len(b) < len(a) {
		shorter = b
	}
	if len(shorter) < 3 {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
