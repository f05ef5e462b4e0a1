// Package category implements the hybrid job-title categorizer: an ordered
// keyword rule engine, a TF-IDF + random-forest classifier bootstrapped
// from the rule labels, and the agreement analysis between the two.
package category

import (
	"strings"

	"cohort/internal/types"
)

// ruleEntry binds one category to its keyword list. Substring matching,
// first category wins. The table order below is load-bearing: reordering
// it changes labels (e.g. "Datenschutzbeauftragter" hits the IT keyword
// "daten" before Legal is ever consulted), so it is fixed for
// reproducibility.
type ruleEntry struct {
	Category types.JobCategory
	Keywords []string
}

var ruleTable = []ruleEntry{
	{types.CategoryIT, []string{
		"software", "entwickler", "system", "daten", "netzwerk",
		"devops", "cloud", "scrum", "it-", "business analyst",
	}},
	{types.CategoryEngineering, []string{
		"ingenieur", "techniker", "mechatroniker", "elektro", "facility",
	}},
	{types.CategoryFinance, []string{
		"buchhalter", "controller", "finanz", "steuer",
	}},
	{types.CategoryHR, []string{
		"personal", "hr-", "recruiter",
	}},
	{types.CategorySales, []string{
		"vertrieb", "account", "marketing", "pr-", "grafik",
		"content", "social media", "ux", "seo", "kunden",
	}},
	{types.CategoryProduction, []string{
		"produktion", "logistik", "einkäufer", "einkauf", "labor",
	}},
	{types.CategoryLegal, []string{
		"jurist", "recht",
	}},
	{types.CategoryManagement, []string{
		"manager", "leiter", "master",
	}},
}

// Categories returns the fixed category set in table order, with the
// catch-all appended.
func Categories() []types.JobCategory {
	out := make([]types.JobCategory, 0, len(ruleTable)+1)
	for _, e := range ruleTable {
		out = append(out, e.Category)
	}
	return append(out, types.CategoryOther)
}

// CategorizeRule resolves a job title against the keyword table. The
// title is lower-cased and the first category whose keyword list contains
// a substring match wins; unmatched titles fall back to CategoryOther.
func CategorizeRule(title string) types.JobCategory {
	lower := strings.ToLower(title)
	for _, entry := range ruleTable {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				return entry.Category
			}
		}
	}
	return types.CategoryOther
}

// CategorizeRuleAll applies the rule engine to every title.
func CategorizeRuleAll(titles []string) []types.JobCategory {
	out := make([]types.JobCategory, len(titles))
	for i, t := range titles {
		out[i] = CategorizeRule(t)
	}
	return out
}
