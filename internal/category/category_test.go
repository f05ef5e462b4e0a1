package category

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort/internal/types"
)

func TestCategorizeRule(t *testing.T) {
	tests := []struct {
		title string
		want  types.JobCategory
	}{
		// "system" sits in the IT list, which is consulted first:
		// the later "manager"/"leiter" keywords never get a chance.
		{"IT-Systemadministrator", types.CategoryIT},
		{"Software Entwickler", types.CategoryIT},
		{"Datenanalyst", types.CategoryIT},
		{"Scrum Master", types.CategoryIT},
		{"Maschinenbauingenieur", types.CategoryEngineering},
		{"Elektrotechniker", types.CategoryEngineering},
		{"Buchhalter", types.CategoryFinance},
		{"Steuerberater", types.CategoryFinance},
		{"HR-Manager", types.CategoryHR},
		{"Personalreferent", types.CategoryHR},
		{"Key Account Manager", types.CategorySales},
		{"Grafikdesigner", types.CategorySales},
		{"Kundenbetreuer", types.CategorySales},
		{"Produktionsleiter", types.CategoryProduction},
		{"Logistikkoordinator", types.CategoryProduction},
		{"Jurist", types.CategoryLegal},
		{"Produktmanager", types.CategoryManagement},
		{"Astronaut", types.CategoryOther},
		{"", types.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := CategorizeRule(tt.title); got != tt.want {
				t.Errorf("CategorizeRule(%q) = %s, want %s", tt.title, got, tt.want)
			}
		})
	}
}

func TestCategorizeRule_TableOrderFirstMatchWins(t *testing.T) {
	// "Datenschutzbeauftragter" is semantically legal, but the IT keyword
	// "daten" matches first. The table order is part of the contract.
	if got := CategorizeRule("Datenschutzbeauftragter"); got != types.CategoryIT {
		t.Errorf("got %s, want IT (first-match-wins over table order)", got)
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"IT-Projektmanager", "it projektmanager"},
		{"DevOps Engineer (Senior!)", "devops engineer senior"},
		{"UX/UI Designer", "ux ui designer"},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVectorizer_BoundedVocabularyAndUnitNorm(t *testing.T) {
	titles := []string{
		"software entwickler", "software architekt", "daten analyst",
		"netzwerk techniker", "cloud engineer",
	}
	v := NewVectorizer(3)
	v.Fit(titles)

	assert.Equal(t, 3, v.Dim(), "vocabulary must respect the bound")

	vecs := v.Transform([]string{"software entwickler"})
	norm := 0.0
	for _, x := range vecs[0] {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-9, "non-empty vectors are L2 normalized")

	empty := v.Transform([]string{"zzz unbekannt"})
	for _, x := range empty[0] {
		assert.Zero(t, x)
	}
}

func trainingTitles() ([]string, []types.JobCategory) {
	var titles []string
	for i := 0; i < 30; i++ {
		titles = append(titles, "Software Entwickler", "Buchhalter", "Vertriebsmitarbeiter")
	}
	return titles, CategorizeRuleAll(titles)
}

func TestTrainClassifier_LearnsRuleLabels(t *testing.T) {
	titles, labels := trainingTitles()
	model, err := TrainClassifier(titles, labels, TrainOptions{})
	require.NoError(t, err)
	require.NotNil(t, model.Evaluation)

	assert.Equal(t, types.CategoryIT, Classify(model, "Software Entwickler"))
	assert.Equal(t, types.CategoryFinance, Classify(model, "Buchhalter"))
	assert.Equal(t, types.CategorySales, Classify(model, "Vertriebsmitarbeiter"))

	// Trivially separable training data must evaluate perfectly.
	assert.InDelta(t, 1.0, model.Evaluation.Accuracy, 1e-9)
	report := model.Evaluation.String()
	assert.Contains(t, report, "accuracy: 1.00")
	assert.Contains(t, report, "precision")
}

func TestTrainClassifier_Deterministic(t *testing.T) {
	titles, labels := trainingTitles()
	a, err := TrainClassifier(titles, labels, TrainOptions{})
	require.NoError(t, err)
	b, err := TrainClassifier(titles, labels, TrainOptions{})
	require.NoError(t, err)

	probe := []string{"Software Entwickler", "Buchhalter", "Datenanalyst", "Astronaut"}
	for _, p := range probe {
		assert.Equal(t, Classify(a, p), Classify(b, p), "title %q", p)
	}
}

func TestTrainClassifier_InsufficientClasses(t *testing.T) {
	titles := []string{"Software Entwickler", "Systemadministrator", "Datenanalyst"}
	labels := CategorizeRuleAll(titles) // all IT

	_, err := TrainClassifier(titles, labels, TrainOptions{})
	var ide *types.InsufficientDataError
	require.True(t, errors.As(err, &ide), "want InsufficientDataError, got %v", err)
	assert.Equal(t, 1, ide.Classes)
}

func TestForest_SeparableData(t *testing.T) {
	// One informative dimension.
	var x [][]float64
	var y []int
	for i := 0; i < 20; i++ {
		x = append(x, []float64{0.1 * float64(i%3)}, []float64{5 + 0.1*float64(i%3)})
		y = append(y, 0, 1)
	}
	f := TrainForest(x, y, 2, ForestOptions{})
	if got := f.Predict([]float64{0.05}); got != 0 {
		t.Errorf("Predict(low) = %d, want 0", got)
	}
	if got := f.Predict([]float64{5.05}); got != 1 {
		t.Errorf("Predict(high) = %d, want 1", got)
	}
}

func TestCompareAssignments_PerfectAgreement(t *testing.T) {
	titles := []string{"a", "b", "c"}
	labels := []types.JobCategory{types.CategoryIT, types.CategoryHR, types.CategoryOther}

	rate, sample, err := CompareAssignments(titles, labels, labels, 0, 42)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
	assert.Empty(t, sample)
}

func TestCompareAssignments_BoundedSample(t *testing.T) {
	n := 40
	titles := make([]string, n)
	rule := make([]types.JobCategory, n)
	ml := make([]types.JobCategory, n)
	for i := range titles {
		titles[i] = "title"
		rule[i] = types.CategoryIT
		ml[i] = types.CategoryHR
	}

	rate, sample, err := CompareAssignments(titles, rule, ml, 0, 42)
	require.NoError(t, err)
	assert.Zero(t, rate)
	assert.Len(t, sample, DefaultSampleLimit)

	// Seeded sampling is reproducible.
	_, again, err := CompareAssignments(titles, rule, ml, 0, 42)
	require.NoError(t, err)
	assert.Equal(t, sample, again)
}

func TestCompareAssignments_LengthMismatch(t *testing.T) {
	_, _, err := CompareAssignments([]string{"a"}, []types.JobCategory{types.CategoryIT}, nil, 0, 42)
	assert.Error(t, err)
}

func TestEvaluationMetrics(t *testing.T) {
	// Hand-checkable confusion: precision/recall stay in [0,1].
	titles, labels := trainingTitles()
	model, err := TrainClassifier(titles, labels, TrainOptions{})
	require.NoError(t, err)

	for _, m := range model.Evaluation.Classes {
		assert.True(t, m.Precision >= 0 && m.Precision <= 1)
		assert.True(t, m.Recall >= 0 && m.Recall <= 1)
		assert.False(t, math.IsNaN(m.F1))
	}
}
