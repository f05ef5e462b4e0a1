package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_Reproducible(t *testing.T) {
	opts := GenerateOptions{Seed: 42, Now: fixedNow}
	a := Generate(50, opts)
	b := Generate(50, opts)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different populations:\n%s", diff)
	}
}

func TestGenerate_ValueRanges(t *testing.T) {
	records := Generate(200, GenerateOptions{Seed: 7, Now: fixedNow})
	require.Len(t, records, 200)

	hireStart := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range records {
		assert.Regexp(t, `^EMP\d{5}$`, r.ID)
		assert.NotEmpty(t, r.Name)
		assert.Contains(t, jobTitles, r.JobTitle)
		assert.Contains(t, departments, r.Department)
		assert.Contains(t, locations, r.Location)
		assert.GreaterOrEqual(t, r.Salary, 30000.0)
		assert.Less(t, r.Salary, 120000.0)
		assert.False(t, r.HireDate.Before(hireStart))
		assert.True(t, r.HireDate.Before(fixedNow()))
		assert.Contains(t, performanceRatings, r.PerformanceRating)
		assert.Contains(t, educationLevels, r.EducationLevel)
	}
}

func TestGenerate_RatingWeights(t *testing.T) {
	records := Generate(2000, GenerateOptions{Seed: 3, Now: fixedNow})
	counts := map[string]int{}
	for _, r := range records {
		counts[r.PerformanceRating]++
	}
	// "Gut" has half the mass, so it must dominate the tails.
	assert.Greater(t, counts["Gut"], counts["Ausgezeichnet"])
	assert.Greater(t, counts["Gut"], counts["Verbesserungswürdig"])
	assert.Greater(t, counts["Befriedigend"], counts["Ausgezeichnet"])
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	records := Generate(25, GenerateOptions{Seed: 11, Now: fixedNow})
	// Hire dates round-trip at day precision.
	for i := range records {
		records[i].HireDate = records[i].HireDate.Truncate(24 * time.Hour)
	}

	path := filepath.Join(t.TempDir(), "employees.csv")
	require.NoError(t, Save(path, records))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(records, loaded); diff != "" {
		t.Errorf("round trip mismatch:\n%s", diff)
	}
}

func TestLoad_MissingCellsStayZero(t *testing.T) {
	content := "employee_id,name,job_title,department,location,salary,hire_date,performance_rating,education_level\n" +
		"EMP00001,Anna Weber,Buchhalter,Finanzen,Berlin,,,Gut,Bachelor\n"
	path := filepath.Join(t.TempDir(), "sparse.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Zero(t, records[0].Salary)
	assert.True(t, records[0].HireDate.IsZero())
}

func TestLoad_RejectsWrongHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,Anna\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "expected 9 columns")
}

func TestLoad_RejectsBadSalary(t *testing.T) {
	content := "employee_id,name,job_title,department,location,salary,hire_date,performance_rating,education_level\n" +
		"EMP00001,Anna Weber,Buchhalter,Finanzen,Berlin,abc,2020-01-01,Gut,Bachelor\n"
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "bad salary")
}
