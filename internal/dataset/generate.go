// Package dataset loads employee batches from CSV and can synthesize
// realistic German test populations.
package dataset

import (
	"fmt"
	"math/rand"
	"time"

	"cohort/internal/types"
)

var (
	firstNames = []string{"Anna", "Max", "Laura", "Tom", "Sophie", "Felix", "Emma", "Paul", "Lisa", "Jan"}
	lastNames  = []string{"Müller", "Schmidt", "Schneider", "Fischer", "Weber", "Meyer", "Wagner", "Becker", "Schulz", "Hoffmann"}

	jobTitles = []string{
		"Software Entwickler", "Systemadministrator", "Datenanalyst",
		"Netzwerktechniker", "IT-Projektmanager", "Maschinenbauingenieur",
		"Elektrotechniker", "Mechatroniker", "Produktionstechniker",
		"Buchhalter", "Controller", "Finanzanalyst", "Steuerberater",
		"Personalreferent", "HR-Manager", "Recruiter", "Vertriebsmitarbeiter",
		"Key Account Manager", "Marketing Manager", "PR-Berater", "Grafikdesigner",
		"Produktmanager", "Qualitätsingenieur", "Logistikkoordinator",
		"Einkäufer", "Jurist", "Verwaltungsangestellter", "Kundenbetreuer",
		"Forschungsingenieur", "Laborant", "Produktionsleiter", "Facility Manager",
		"Datenschutzbeauftragter", "Business Analyst", "Scrum Master",
		"DevOps Engineer", "Cloud Architekt", "UX Designer", "SEO Spezialist",
		"Social Media Manager", "Content Creator", "Produktionsmitarbeiter",
	}

	departments = []string{
		"IT", "Entwicklung", "Produktion", "Finanzen", "Personal", "Vertrieb",
		"Marketing", "Einkauf", "Logistik", "Qualitätsmanagement", "Recht",
		"Forschung & Entwicklung", "Kundenservice",
	}

	locations = []string{
		"Berlin", "Hamburg", "München", "Köln", "Frankfurt", "Stuttgart",
		"Düsseldorf", "Leipzig", "Dortmund", "Essen", "Bremen", "Dresden",
	}

	educationLevels = []string{"Hochschulabschluss", "Bachelor", "Master", "Promotion", "Ausbildung", "Abitur"}

	performanceRatings = []string{"Ausgezeichnet", "Gut", "Befriedigend", "Verbesserungswürdig"}
	performanceWeights = []float64{0.1, 0.5, 0.3, 0.1}
)

// GenerateOptions controls the synthetic generator.
type GenerateOptions struct {
	// Seed makes the population reproducible. Zero seeds from the clock.
	Seed int64

	// Now bounds the hire date range. Defaults to time.Now.
	Now func() time.Time
}

// Generate synthesizes count employee records drawn from fixed German
// value pools. Salaries are uniform in [30000, 120000), hire dates
// uniform since 2010-01-01, ratings weighted toward the middle.
func Generate(count int, opts GenerateOptions) []types.EmployeeRecord {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rng := rand.New(rand.NewSource(seed))

	hireStart := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	hireDays := int(now().Sub(hireStart).Hours() / 24)
	if hireDays < 1 {
		hireDays = 1
	}

	records := make([]types.EmployeeRecord, count)
	for i := range records {
		records[i] = types.EmployeeRecord{
			ID:                fmt.Sprintf("EMP%05d", 10000+rng.Intn(90000)),
			Name:              pick(rng, firstNames) + " " + pick(rng, lastNames),
			JobTitle:          pick(rng, jobTitles),
			Department:        pick(rng, departments),
			Location:          pick(rng, locations),
			Salary:            float64(30000 + rng.Intn(90000)),
			HireDate:          hireStart.AddDate(0, 0, rng.Intn(hireDays)),
			PerformanceRating: pickWeighted(rng, performanceRatings, performanceWeights),
			EducationLevel:    pick(rng, educationLevels),
		}
	}
	return records
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func pickWeighted(rng *rand.Rand, pool []string, weights []float64) string {
	r := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return pool[i]
		}
	}
	return pool[len(pool)-1]
}
