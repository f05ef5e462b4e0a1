package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"cohort/internal/logging"
	"cohort/internal/types"
)

// csvHeader is the canonical column order for employee CSV files.
var csvHeader = []string{
	"employee_id", "name", "job_title", "department", "location",
	"salary", "hire_date", "performance_rating", "education_level",
}

const hireDateLayout = "2006-01-02"

// Load reads employee records from a CSV file with the canonical header.
// Empty salary or hire date cells become zero values and are imputed
// downstream.
func Load(path string) ([]types.EmployeeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	records := make([]types.EmployeeRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("dataset %s row %d: %w", path, i+2, err)
		}
		records = append(records, rec)
	}
	logging.Engine("Loaded %d records from %s", len(records), path)
	return records, nil
}

// Save writes employee records as CSV with the canonical header.
func Save(path string, records []types.EmployeeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		hireDate := ""
		if !rec.HireDate.IsZero() {
			hireDate = rec.HireDate.Format(hireDateLayout)
		}
		row := []string{
			rec.ID, rec.Name, rec.JobTitle, rec.Department, rec.Location,
			strconv.FormatFloat(rec.Salary, 'f', -1, 64),
			hireDate, rec.PerformanceRating, rec.EducationLevel,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset: %w", err)
	}
	logging.EngineDebug("Saved %d records to %s", len(records), path)
	return nil
}

func checkHeader(header []string) error {
	if len(header) != len(csvHeader) {
		return fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(header))
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, name, header[i])
		}
	}
	return nil
}

func parseRow(row []string) (types.EmployeeRecord, error) {
	rec := types.EmployeeRecord{
		ID:                row[0],
		Name:              row[1],
		JobTitle:          row[2],
		Department:        row[3],
		Location:          row[4],
		PerformanceRating: row[7],
		EducationLevel:    row[8],
	}
	if row[5] != "" {
		salary, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return rec, fmt.Errorf("bad salary %q: %w", row[5], err)
		}
		rec.Salary = salary
	}
	if row[6] != "" {
		hireDate, err := time.Parse(hireDateLayout, row[6])
		if err != nil {
			return rec, fmt.Errorf("bad hire date %q: %w", row[6], err)
		}
		rec.HireDate = hireDate
	}
	return rec, nil
}
