// Package types defines the shared domain types for the cohort engine:
// employee records, feature matrices, cluster assignments, group profiles,
// and job categories. It also carries the error taxonomy used across the
// preprocessing, clustering, and categorization packages.
package types

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// NoiseLabel marks records left unassigned by density-based clustering.
const NoiseLabel = -1

// EmployeeRecord is one raw employee row. Immutable once ingested for a run.
type EmployeeRecord struct {
	ID                string
	Name              string
	JobTitle          string
	Department        string
	Location          string
	Salary            float64
	HireDate          time.Time
	PerformanceRating string
	EducationLevel    string
}

// FeatureMatrix is the numeric view of a record batch after preprocessing.
// Column order is fixed for the lifetime of a preprocessing session.
type FeatureMatrix struct {
	Columns []string
	Data    *mat.Dense
}

// Rows returns the number of records in the matrix.
func (m *FeatureMatrix) Rows() int {
	if m == nil || m.Data == nil {
		return 0
	}
	r, _ := m.Data.Dims()
	return r
}

// Cols returns the number of feature columns.
func (m *FeatureMatrix) Cols() int {
	if m == nil || m.Data == nil {
		return 0
	}
	_, c := m.Data.Dims()
	return c
}

// ClusterAssignment maps record index to cluster label. Labels are dense
// non-negative integers except NoiseLabel.
type ClusterAssignment []int

// Groups returns the sorted distinct non-noise labels in the assignment.
func (a ClusterAssignment) Groups() []int {
	seen := make(map[int]bool)
	var labels []int
	for _, l := range a {
		if l == NoiseLabel || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}
	// Insertion-sorted: label sets are small.
	for i := 1; i < len(labels); i++ {
		for j := i; j > 0 && labels[j] < labels[j-1]; j-- {
			labels[j], labels[j-1] = labels[j-1], labels[j]
		}
	}
	return labels
}

// NoiseCount returns how many records carry the noise label.
func (a ClusterAssignment) NoiseCount() int {
	n := 0
	for _, l := range a {
		if l == NoiseLabel {
			n++
		}
	}
	return n
}

// FeatureStat holds per-feature descriptive statistics within one group.
type FeatureStat struct {
	Name string
	Mean float64
	Std  float64
}

// DominantFeature is a feature ranked by how far the group deviates from
// the corpus-wide mean, in corpus standard deviations.
type DominantFeature struct {
	Name  string
	Score float64
}

// GroupProfile describes one cluster. Recomputed fully on every run.
type GroupProfile struct {
	Label    int
	Size     int
	Percent  float64
	Features []FeatureStat
	Dominant []DominantFeature

	// Correlation is the optional pairwise feature correlation matrix for
	// the group, indexed by Features order. Nil unless requested.
	Correlation [][]float64
}

// JobCategory is one of the fixed named groups produced by the rule
// engine and the learned classifier. CategoryOther is the catch-all.
type JobCategory string

const (
	CategoryIT          JobCategory = "IT"
	CategoryEngineering JobCategory = "Engineering"
	CategoryFinance     JobCategory = "Finance"
	CategoryHR          JobCategory = "HR"
	CategorySales       JobCategory = "Sales & Marketing"
	CategoryProduction  JobCategory = "Production"
	CategoryLegal       JobCategory = "Legal"
	CategoryManagement  JobCategory = "Management"
	CategoryOther       JobCategory = "Other"
)

// ClusteringMethod selects a clustering strategy.
type ClusteringMethod string

const (
	MethodAuto        ClusteringMethod = "auto"
	MethodPartitional ClusteringMethod = "partitional"
	MethodDensity     ClusteringMethod = "density"
	MethodMixture     ClusteringMethod = "mixture"
)

// RunResult bundles one clustering run's output with its metadata.
type RunResult struct {
	RunID      string
	Method     ClusteringMethod
	Timestamp  time.Time
	Assignment ClusterAssignment
	Profiles   map[int]GroupProfile
}
