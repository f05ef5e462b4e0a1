package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort/internal/config"
	"cohort/internal/types"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Clustering.Method = "partitional"
	cfg.Clustering.ClusterCountOverride = 2
	return cfg
}

// twoTierRecords builds a batch with two well-separated salary tiers.
func twoTierRecords() []types.EmployeeRecord {
	hire := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	var records []types.EmployeeRecord
	for i := 0; i < 6; i++ {
		records = append(records, types.EmployeeRecord{
			ID:                "low-" + string(rune('a'+i)),
			Name:              "Mitarbeiter",
			JobTitle:          "Produktionsmitarbeiter",
			Department:        "Produktion",
			Location:          "Berlin",
			Salary:            34000 + float64(i)*200,
			HireDate:          hire,
			PerformanceRating: "Gut",
			EducationLevel:    "Ausbildung",
		})
	}
	for i := 0; i < 6; i++ {
		records = append(records, types.EmployeeRecord{
			ID:                "high-" + string(rune('a'+i)),
			Name:              "Mitarbeiter",
			JobTitle:          "Software Entwickler",
			Department:        "IT",
			Location:          "München",
			Salary:            114000 + float64(i)*200,
			HireDate:          hire,
			PerformanceRating: "Sehr gut",
			EducationLevel:    "Master",
		})
	}
	return records
}

func TestIdentifyGroups_SeparatesSalaryTiers(t *testing.T) {
	e := New(testConfig())
	records := twoTierRecords()

	result, err := e.IdentifyGroups(records)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, types.MethodPartitional, result.Method)
	require.Len(t, result.Assignment, len(records))
	assert.Equal(t, []int{0, 1}, result.Assignment.Groups())
	assert.Len(t, result.Profiles, 2)

	// The two tiers must not share a label.
	assert.NotEqual(t, result.Assignment[0], result.Assignment[6])
	for i := 1; i < 6; i++ {
		assert.Equal(t, result.Assignment[0], result.Assignment[i])
		assert.Equal(t, result.Assignment[6], result.Assignment[6+i])
	}

	assert.Equal(t, result.Assignment, e.Previous())
}

func TestUpdateGroups_StableOnIdenticalBatch(t *testing.T) {
	e := New(testConfig())
	records := twoTierRecords()

	first, err := e.IdentifyGroups(records)
	require.NoError(t, err)

	second, err := e.UpdateGroups(records)
	require.NoError(t, err)

	// Same data, same seed: the blend of identical assignments is a no-op.
	assert.Equal(t, first.Assignment, second.Assignment)
	assert.Equal(t, second.Assignment, e.Previous())
}

func TestUpdateGroups_NoPreviousFallsBackToIdentify(t *testing.T) {
	e := New(testConfig())

	result, err := e.UpdateGroups(twoTierRecords())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, result.Assignment.Groups())
	assert.Equal(t, result.Assignment, e.Previous())
}

func TestMerge_EqualWeightsRoundHalfUp(t *testing.T) {
	cfg := testConfig()
	cfg.Merge.WeightPrevious = 0.5
	cfg.Merge.WeightCurrent = 0.5
	e := New(cfg)

	merged, err := e.Merge(
		types.ClusterAssignment{0, 1, 0},
		types.ClusterAssignment{1, 1, 2},
	)
	require.NoError(t, err)
	assert.Equal(t, types.ClusterAssignment{1, 1, 1}, merged)
	assert.Equal(t, merged, e.Previous())
}

func TestMerge_DefaultWeightsFavorCurrent(t *testing.T) {
	e := New(testConfig())

	merged, err := e.Merge(
		types.ClusterAssignment{0, 0, 2},
		types.ClusterAssignment{1, 0, 0},
	)
	require.NoError(t, err)
	// 0.3*0+0.7*1=0.7 -> 1, 0 -> 0, 0.3*2+0.7*0=0.6 -> 1
	assert.Equal(t, types.ClusterAssignment{1, 0, 1}, merged)
}

func TestMerge_LengthMismatch(t *testing.T) {
	e := New(testConfig())

	_, err := e.Merge(types.ClusterAssignment{0, 1}, types.ClusterAssignment{0})
	var ae *types.AlignmentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 2, ae.PrevLen)
	assert.Equal(t, 1, ae.CurrLen)
}

func TestCategorize_WithoutClassifierUsesRules(t *testing.T) {
	e := New(testConfig())

	rule, ml := e.Categorize("IT-Systemadministrator")
	assert.Equal(t, types.CategoryIT, rule)
	assert.Equal(t, rule, ml)
}

func TestCategorizeBatch(t *testing.T) {
	e := New(testConfig())

	var records []types.EmployeeRecord
	for i := 0; i < 20; i++ {
		records = append(records,
			types.EmployeeRecord{JobTitle: "Software Entwickler"},
			types.EmployeeRecord{JobTitle: "Buchhalter"},
			types.EmployeeRecord{JobTitle: "Vertriebsmitarbeiter"},
		)
	}

	result, err := e.CategorizeBatch(records)
	require.NoError(t, err)
	require.Len(t, result.RuleLabels, len(records))
	require.Len(t, result.MLLabels, len(records))
	assert.Equal(t, types.CategoryIT, result.RuleLabels[0])
	assert.Equal(t, 1.0, result.AgreementRate)
	assert.Empty(t, result.Disagreements)
	require.NotNil(t, result.Evaluation)
}

func TestExportImportState_RoundTrip(t *testing.T) {
	e := New(testConfig())
	records := twoTierRecords()

	first, err := e.IdentifyGroups(records)
	require.NoError(t, err)

	blob, err := e.ExportState()
	require.NoError(t, err)

	restored := New(testConfig())
	require.NoError(t, restored.ImportState(blob))
	assert.Equal(t, first.Assignment, restored.Previous())

	// The restored session reuses the fitted encoders and scaling, so
	// the same batch lands in the same groups.
	again, err := restored.IdentifyGroups(records)
	require.NoError(t, err)
	assert.Equal(t, first.Assignment, again.Assignment)
}

func TestImportState_CorruptBlobLeavesEngineIntact(t *testing.T) {
	e := New(testConfig())
	first, err := e.IdentifyGroups(twoTierRecords())
	require.NoError(t, err)

	var sle *types.StateLoadError
	err = e.ImportState([]byte("{not json"))
	require.True(t, errors.As(err, &sle))

	err = e.ImportState([]byte(`{"version":99,"session":{}}`))
	require.True(t, errors.As(err, &sle))

	assert.Equal(t, first.Assignment, e.Previous(), "failed import must not clobber state")
}
