package category

import (
	"fmt"
	"math/rand"
	"strings"

	"cohort/internal/logging"
	"cohort/internal/types"
)

// Model is the trained classifier pair: fitted vectorizer plus forest.
// Classes maps forest class indices back to categories.
type Model struct {
	Vectorizer *Vectorizer         `json:"vectorizer"`
	Forest     *Forest             `json:"forest"`
	Classes    []types.JobCategory `json:"classes"`
	Evaluation *Evaluation         `json:"evaluation,omitempty"`
}

// TrainOptions tunes classifier training. Zero values take defaults.
type TrainOptions struct {
	MaxFeatures int
	Forest      ForestOptions
	Seed        int64 // holdout shuffle seed, default 42
}

// TrainClassifier vectorizes the titles and trains a random forest against
// the rule-engine labels (self-supervised bootstrap). 20% of the data is
// held out for the evaluation report. Fails with InsufficientDataError
// when the rule labels span fewer than two categories.
func TrainClassifier(titles []string, ruleLabels []types.JobCategory, opts TrainOptions) (*Model, error) {
	timer := logging.StartTimer(logging.CategoryCategory, "TrainClassifier")
	defer timer.Stop()

	if len(titles) != len(ruleLabels) {
		return nil, fmt.Errorf("got %d titles for %d labels", len(titles), len(ruleLabels))
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}

	// Class index mapping in fixed table order, restricted to categories
	// that actually occur.
	present := make(map[types.JobCategory]bool)
	for _, l := range ruleLabels {
		present[l] = true
	}
	var classes []types.JobCategory
	for _, c := range Categories() {
		if present[c] {
			classes = append(classes, c)
		}
	}
	if len(classes) < 2 {
		return nil, &types.InsufficientDataError{Classes: len(classes)}
	}
	classIndex := make(map[types.JobCategory]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	// Seeded 80/20 holdout split.
	n := len(titles)
	perm := rand.New(rand.NewSource(opts.Seed)).Perm(n)
	testN := n / 5
	testIdx := perm[:testN]
	trainIdx := perm[testN:]

	trainTitles := make([]string, len(trainIdx))
	trainY := make([]int, len(trainIdx))
	for i, r := range trainIdx {
		trainTitles[i] = titles[r]
		trainY[i] = classIndex[ruleLabels[r]]
	}

	vec := NewVectorizer(opts.MaxFeatures)
	vec.Fit(trainTitles)
	trainX := vec.Transform(trainTitles)

	if opts.Forest.Seed == 0 {
		opts.Forest.Seed = opts.Seed
	}
	forest := TrainForest(trainX, trainY, len(classes), opts.Forest)

	model := &Model{Vectorizer: vec, Forest: forest, Classes: classes}
	if testN > 0 {
		model.Evaluation = evaluate(model, titles, ruleLabels, testIdx, classIndex)
		logging.Categorize("classifier holdout accuracy %.3f over %d titles", model.Evaluation.Accuracy, testN)
	}
	return model, nil
}

// Classify applies the fitted vectorizer and forest to one title.
func Classify(model *Model, title string) types.JobCategory {
	x := model.Vectorizer.Transform([]string{title})[0]
	return model.Classes[model.Forest.Predict(x)]
}

// ClassifyAll applies the model to every title.
func ClassifyAll(model *Model, titles []string) []types.JobCategory {
	out := make([]types.JobCategory, len(titles))
	for i, t := range titles {
		out[i] = Classify(model, t)
	}
	return out
}

// ClassMetrics holds per-category holdout metrics.
type ClassMetrics struct {
	Category  types.JobCategory `json:"category"`
	Precision float64           `json:"precision"`
	Recall    float64           `json:"recall"`
	F1        float64           `json:"f1"`
	Support   int               `json:"support"`
}

// Evaluation is the held-out classification report.
type Evaluation struct {
	Accuracy float64        `json:"accuracy"`
	Classes  []ClassMetrics `json:"classes"`
}

func evaluate(model *Model, titles []string, ruleLabels []types.JobCategory, testIdx []int, classIndex map[types.JobCategory]int) *Evaluation {
	k := len(model.Classes)
	// confusion[true][predicted]
	confusion := make([][]int, k)
	for i := range confusion {
		confusion[i] = make([]int, k)
	}

	correct := 0
	for _, r := range testIdx {
		truth := classIndex[ruleLabels[r]]
		pred := model.Forest.Predict(model.Vectorizer.Transform([]string{titles[r]})[0])
		confusion[truth][pred]++
		if truth == pred {
			correct++
		}
	}

	eval := &Evaluation{Accuracy: float64(correct) / float64(len(testIdx))}
	for c := 0; c < k; c++ {
		support, predicted := 0, 0
		for o := 0; o < k; o++ {
			support += confusion[c][o]
			predicted += confusion[o][c]
		}
		m := ClassMetrics{Category: model.Classes[c], Support: support}
		tp := float64(confusion[c][c])
		if predicted > 0 {
			m.Precision = tp / float64(predicted)
		}
		if support > 0 {
			m.Recall = tp / float64(support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		eval.Classes = append(eval.Classes, m)
	}
	return eval
}

// String renders the evaluation as a fixed-width classification report.
func (e *Evaluation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %9s %9s %9s %9s\n", "category", "precision", "recall", "f1", "support")
	for _, m := range e.Classes {
		fmt.Fprintf(&b, "%-20s %9.2f %9.2f %9.2f %9d\n", m.Category, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&b, "accuracy: %.2f\n", e.Accuracy)
	return b.String()
}
