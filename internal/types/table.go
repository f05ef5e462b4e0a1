package types

import "time"

// ColumnKind tags the value type of a table column.
type ColumnKind int

const (
	KindNumeric ColumnKind = iota
	KindCategorical
	KindDate
	// KindUnsupported marks a column the preprocessor cannot handle.
	// Loaders produce it instead of silently dropping unparseable data.
	KindUnsupported
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindDate:
		return "date"
	default:
		return "unsupported"
	}
}

// Column is one named column of a record batch. Exactly one of the value
// slices is populated according to Kind; Missing marks absent cells.
type Column struct {
	Name    string
	Kind    ColumnKind
	Numeric []float64
	Text    []string
	Dates   []time.Time
	Missing []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Numeric)
	case KindCategorical:
		return len(c.Text)
	case KindDate:
		return len(c.Dates)
	default:
		if len(c.Missing) > 0 {
			return len(c.Missing)
		}
		return len(c.Text)
	}
}

// Table is a column-oriented record batch. Column declaration order is
// significant: encoders, scalers, and tie-breaking all follow it.
type Table struct {
	Columns []Column
}

// Rows returns the number of records in the table.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// FromRecords builds the canonical feature table for a record batch.
// Identifier and name fields are deliberately excluded: they are unique
// per record and would only add encoding noise.
func FromRecords(records []EmployeeRecord) *Table {
	n := len(records)
	titles := make([]string, n)
	departments := make([]string, n)
	locations := make([]string, n)
	salaries := make([]float64, n)
	salaryMissing := make([]bool, n)
	hireDates := make([]time.Time, n)
	hireMissing := make([]bool, n)
	ratings := make([]string, n)
	ratingMissing := make([]bool, n)
	educations := make([]string, n)
	educationMissing := make([]bool, n)
	titleMissing := make([]bool, n)
	departmentMissing := make([]bool, n)
	locationMissing := make([]bool, n)

	for i, r := range records {
		titles[i] = r.JobTitle
		titleMissing[i] = r.JobTitle == ""
		departments[i] = r.Department
		departmentMissing[i] = r.Department == ""
		locations[i] = r.Location
		locationMissing[i] = r.Location == ""
		salaries[i] = r.Salary
		salaryMissing[i] = r.Salary == 0
		hireDates[i] = r.HireDate
		hireMissing[i] = r.HireDate.IsZero()
		ratings[i] = r.PerformanceRating
		ratingMissing[i] = r.PerformanceRating == ""
		educations[i] = r.EducationLevel
		educationMissing[i] = r.EducationLevel == ""
	}

	return &Table{Columns: []Column{
		{Name: "job_title", Kind: KindCategorical, Text: titles, Missing: titleMissing},
		{Name: "department", Kind: KindCategorical, Text: departments, Missing: departmentMissing},
		{Name: "location", Kind: KindCategorical, Text: locations, Missing: locationMissing},
		{Name: "salary", Kind: KindNumeric, Numeric: salaries, Missing: salaryMissing},
		{Name: "hire_date", Kind: KindDate, Dates: hireDates, Missing: hireMissing},
		{Name: "performance_rating", Kind: KindCategorical, Text: ratings, Missing: ratingMissing},
		{Name: "education_level", Kind: KindCategorical, Text: educations, Missing: educationMissing},
	}}
}
