package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/patients"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/staff"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/db"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

// testDB holds the shared database infrastructure for integration tests.
type testDB struct {
	Pool    *pgxpool.Pool
	ConnStr string
}

// globalDB is the package-level test database, initialized once in TestMain.
var globalDB *testDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr, cleanup, err := startPostgresContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup postgres container: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}

	migrator := db.NewMigrator(pool, findMigrationsDir())
	if _, err := migrator.Up(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	if err := seedRoles(ctx, pool); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to seed roles: %v\n", err)
		os.Exit(1)
	}

	globalDB = &testDB{Pool: pool, ConnStr: connStr}
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// findMigrationsDir locates the migrations directory relative to this test
// file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	return filepath.Join(dir, "..", "..", "migrations")
}

// seedRoles inserts the closed role set the users table references.
func seedRoles(ctx context.Context, pool *pgxpool.Pool) error {
	for _, role := range policy.Roles() {
		_, err := pool.Exec(ctx, `
			INSERT INTO roles (id, name, display_name)
			VALUES (gen_random_uuid(), $1, $2)
			ON CONFLICT (name) DO NOTHING`,
			string(role), role.DisplayName())
		if err != nil {
			return err
		}
	}
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// createTestDepartment inserts a department and returns its id.
func createTestDepartment(t *testing.T, ctx context.Context, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := globalDB.Pool.Exec(ctx,
		`INSERT INTO departments (id, name, is_active) VALUES ($1, $2, TRUE)`,
		id, name)
	if err != nil {
		t.Fatalf("create test department %s: %v", name, err)
	}
	return id
}

// createTestPatient registers a patient through the service so numbering and
// defaulting run the same path production does.
func createTestPatient(t *testing.T, ctx context.Context, firstName, lastName string) *patients.Patient {
	t.Helper()
	svc := patients.NewService(patients.NewPatientRepoPG(globalDB.Pool), testLogger())
	p, err := svc.CreatePatient(ctx, patients.CreatePatientRequest{
		FirstName:   firstName,
		LastName:    lastName,
		DateOfBirth: "1984-06-15",
		Gender:      "FEMALE",
		Phone:       "555-010-0100",
		Address: patients.Address{
			Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62701",
		},
		EmergencyContact: patients.EmergencyContact{
			Name: "Pat Next-of-Kin", Relationship: "SPOUSE", Phone: "555-010-0101",
		},
	})
	if err != nil {
		t.Fatalf("create test patient: %v", err)
	}
	return p
}

// createTestDoctor creates a doctor profile in the given department.
func createTestDoctor(t *testing.T, ctx context.Context, departmentID uuid.UUID, lastName string) *staff.Doctor {
	t.Helper()
	svc := staff.NewService(
		staff.NewDoctorRepoPG(globalDB.Pool),
		staff.NewDepartmentRepoPG(globalDB.Pool),
		testLogger())
	d, err := svc.CreateDoctor(ctx, staff.CreateDoctorRequest{
		FirstName:      "Test",
		LastName:       lastName,
		Specialization: "CARDIOLOGY",
		LicenseNumber:  fmt.Sprintf("LIC-%s", uuid.New().String()[:8]),
		DepartmentID:   &departmentID,
		Phone:          "555-020-0200",
		Email:          fmt.Sprintf("%s@hospital.test", uuid.New().String()[:8]),
	})
	if err != nil {
		t.Fatalf("create test doctor: %v", err)
	}
	return d
}

// uniqueEmail generates a collision-free address for account tests.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@hospital.test", prefix, uuid.New().String()[:8])
}

func ptrStr(s string) *string { return &s }

func ptrTime(t time.Time) *time.Time { return &t }
