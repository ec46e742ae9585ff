package categorizer

import (
	"strings"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

// Tier names a rule table.
type Tier string

const (
	TierMerchant Tier = "merchant"
	TierKeyword  Tier = "keyword"
	TierSpecial  Tier = "special"
)

// RuleMatch is the outcome of the rule tiers.
type RuleMatch struct {
	Category domain.Category
	Tier     Tier
	// Term is the table entry or pattern text that matched.
	Term string
}

// Confidence is High for merchant and special rules, Medium for keywords.
func (m RuleMatch) Confidence() domain.Confidence {
	if m.Tier == TierKeyword {
		return domain.ConfidenceMedium
	}
	return domain.ConfidenceHigh
}

// MatchRules runs the merchant table, the keyword table and the special
// pattern rules in that order over the description and merchant.
func (t *Taxonomy) MatchRules(description, merchant string) (RuleMatch, bool) {
	raw := strings.TrimSpace(description + " " + merchant)
	if raw == "" {
		return RuleMatch{}, false
	}
	padded := " " + matchForm(raw) + " "

	if tm, ok := firstTerm(t.merchants, padded); ok {
		return RuleMatch{Category: t.Categories[tm.category], Tier: TierMerchant, Term: tm.text}, true
	}
	if tm, ok := firstTerm(t.keywords, padded); ok {
		return RuleMatch{Category: t.Categories[tm.category], Tier: TierKeyword, Term: tm.text}, true
	}
	for _, rule := range t.special {
		if m := rule.re.FindString(raw); m != "" {
			return RuleMatch{Category: t.Categories[rule.category], Tier: TierSpecial, Term: m}, true
		}
	}
	return RuleMatch{}, false
}

func firstTerm(terms []term, padded string) (term, bool) {
	for _, tm := range terms {
		needle := tm.text
		if tm.bounded {
			needle = " " + needle + " "
		}
		if strings.Contains(padded, needle) {
			return tm, true
		}
	}
	return term{}, false
}
