package engine

import (
	"cohort/internal/category"
	"cohort/internal/logging"
	"cohort/internal/types"
)

// CategorizationResult holds both labelings of a batch plus their
// agreement, for auditing where the classifier drifts from the rules.
type CategorizationResult struct {
	RuleLabels    []types.JobCategory
	MLLabels      []types.JobCategory
	AgreementRate float64
	Disagreements []category.Disagreement
	Evaluation    *category.Evaluation
}

// TrainCategorizer fits the ML classifier on rule-derived labels from
// the given records. The trained model sticks to the engine and is
// included in exported state.
func (e *Engine) TrainCategorizer(records []types.EmployeeRecord) (*category.Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryCategory, "TrainCategorizer")
	defer timer.Stop()

	titles := make([]string, len(records))
	for i, r := range records {
		titles[i] = r.JobTitle
	}
	labels := category.CategorizeRuleAll(titles)

	model, err := category.TrainClassifier(titles, labels, category.TrainOptions{})
	if err != nil {
		return nil, err
	}
	e.classifier = model
	if model.Evaluation != nil {
		logging.Categorize("Classifier trained, holdout accuracy %.3f", model.Evaluation.Accuracy)
	}
	return model, nil
}

// Categorize labels one title. The rule result is always available; the
// ML result requires a trained classifier and falls back to the rule
// label without one.
func (e *Engine) Categorize(title string) (rule, ml types.JobCategory) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rule = category.CategorizeRule(title)
	ml = rule
	if e.classifier != nil {
		ml = category.Classify(e.classifier, title)
	}
	return rule, ml
}

// CategorizeBatch labels every record with both the rule table and the
// classifier, training the classifier first if needed, and reports
// where the two disagree.
func (e *Engine) CategorizeBatch(records []types.EmployeeRecord) (*CategorizationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryCategory, "CategorizeBatch")
	defer timer.Stop()

	titles := make([]string, len(records))
	for i, r := range records {
		titles[i] = r.JobTitle
	}
	ruleLabels := category.CategorizeRuleAll(titles)

	if e.classifier == nil {
		model, err := category.TrainClassifier(titles, ruleLabels, category.TrainOptions{})
		if err != nil {
			return nil, err
		}
		e.classifier = model
	}
	mlLabels := category.ClassifyAll(e.classifier, titles)

	rate, sample, err := category.CompareAssignments(titles, ruleLabels, mlLabels, 0, 0)
	if err != nil {
		return nil, err
	}
	logging.Categorize("Categorized %d titles, agreement %.3f (%d sampled disagreements)",
		len(titles), rate, len(sample))

	return &CategorizationResult{
		RuleLabels:    ruleLabels,
		MLLabels:      mlLabels,
		AgreementRate: rate,
		Disagreements: sample,
		Evaluation:    e.classifier.Evaluation,
	}, nil
}
