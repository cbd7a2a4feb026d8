package database

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/logger"
)

// DataSeeder fills a directory with generated employees. Records go through
// the directory's own Create, so validation and email uniqueness hold.
type DataSeeder struct {
	dir domain.EmployeeDirectory
	rnd *rand.Rand
}

func NewDataSeeder(dir domain.EmployeeDirectory) *DataSeeder {
	return &DataSeeder{dir: dir, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// WithSeed makes the generated data reproducible.
func (ds *DataSeeder) WithSeed(seed int64) *DataSeeder {
	ds.rnd = rand.New(rand.NewSource(seed))
	return ds
}

var (
	firstNames = []string{"Amy", "Bob", "Carla", "Dmitri", "Elena", "Farid", "Grace", "Hiro", "Ines", "Jamal", "Kate", "Luis", "Mei", "Noah", "Olga", "Priya", "Quinn", "Rosa", "Sam", "Tariq"}
	lastNames  = []string{"Anderson", "Brown", "Chen", "Davis", "Evans", "Fischer", "Garcia", "Hughes", "Ito", "Johnson", "Kim", "Lopez", "Miller", "Nguyen", "O'Brien", "Patel", "Quinlan", "Rossi", "Smith", "Van Dyke"}
	rolesByDep = map[string][]string{
		domain.DepartmentEngineering: {"Software Engineer", "Senior Engineer", "Tech Lead", "QA Engineer"},
		domain.DepartmentMarketing:   {"Marketing Manager", "Content Writer", "SEO Specialist"},
		domain.DepartmentSales:       {"Account Executive", "Sales Manager", "Sales Representative"},
		domain.DepartmentHR:          {"HR Manager", "Recruiter", "HR Generalist"},
		domain.DepartmentFinance:     {"Accountant", "Financial Analyst", "Controller"},
		domain.DepartmentOperations:  {"Operations Manager", "Logistics Coordinator"},
		domain.DepartmentDesign:      {"Product Designer", "UX Researcher", "Graphic Designer"},
		domain.DepartmentSupport:     {"Support Engineer", "Customer Success Manager"},
	}
)

// SeedPreset names a canned seed size.
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
)

// GetPresetConfig returns the number of employees of a preset.
// Unknown presets fall back to small.
func GetPresetConfig(preset SeedPreset) int {
	switch preset {
	case PresetMedium:
		return 100
	case PresetLarge:
		return 1000
	default:
		return 20
	}
}

// Generate returns n valid employee field sets with distinct emails.
func (ds *DataSeeder) Generate(n int) []domain.EmployeeFields {
	out := make([]domain.EmployeeFields, 0, n)
	deps := domain.Departments()
	for i := 0; i < n; i++ {
		first := firstNames[ds.rnd.Intn(len(firstNames))]
		last := lastNames[ds.rnd.Intn(len(lastNames))]
		dep := deps[ds.rnd.Intn(len(deps))]
		roles := rolesByDep[dep]
		out = append(out, domain.EmployeeFields{
			FirstName:  first,
			LastName:   last,
			Email:      fmt.Sprintf("%s.%s.%d.%d@example.com", emailPart(first), emailPart(last), ds.rnd.Intn(10000), i),
			Department: dep,
			Role:       roles[ds.rnd.Intn(len(roles))],
		})
	}
	return out
}

func emailPart(name string) string {
	r := strings.NewReplacer(" ", "", "'", "")
	return strings.ToLower(r.Replace(name))
}

// SeedData creates count generated employees and returns how many were stored.
func (ds *DataSeeder) SeedData(ctx context.Context, count int) (int, error) {
	start := time.Now()
	logger.InfoLog(ctx, "Seeding %d employees", count)

	created := 0
	for _, f := range ds.Generate(count) {
		if _, err := ds.dir.Create(ctx, f); err != nil {
			if domain.IsValidation(err) {
				logger.WarnLog(ctx, "Skipping generated employee %s: %v", f.Email, err)
				continue
			}
			return created, fmt.Errorf("failed to create employee: %w", err)
		}
		created++
	}

	logger.InfoLog(ctx, "Seeded %d employees in %v", created, time.Since(start))
	return created, nil
}

// ClearData deletes every employee and returns how many were removed.
func (ds *DataSeeder) ClearData(ctx context.Context) (int, error) {
	removed := 0
	for _, e := range ds.dir.All() {
		if _, err := ds.dir.Delete(ctx, e.ID); err != nil {
			return removed, fmt.Errorf("failed to delete employee %d: %w", e.ID, err)
		}
		removed++
	}
	logger.InfoLog(ctx, "Cleared %d employees", removed)
	return removed, nil
}
