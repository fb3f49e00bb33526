package staff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*Doctor
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockDoctorRepo) Update(_ context.Context, d *Doctor) error {
	if _, ok := m.doctors[d.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	d, ok := m.doctors[id]
	if !ok {
		return pgx.ErrNoRows
	}
	d.IsActive = false
	d.IsAvailable = false
	return nil
}

func (m *mockDoctorRepo) List(_ context.Context, filter ListDoctorsFilter, limit, offset int) ([]*Doctor, int, error) {
	var out []*Doctor
	for _, d := range m.doctors {
		if !d.IsActive {
			continue
		}
		if filter.Specialization != "" && d.Specialization != filter.Specialization {
			continue
		}
		if filter.AvailableOnly && !d.IsAvailable {
			continue
		}
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockDoctorRepo) Stats(_ context.Context, since time.Time) (*StaffStats, error) {
	s := &StaffStats{TotalStaff: len(m.doctors)}
	for _, d := range m.doctors {
		if d.IsActive {
			s.ActiveStaff++
		}
		if !d.HireDate.Before(since) {
			s.NewHiresThisMonth++
		}
	}
	return s, nil
}

type mockDepartmentRepo struct {
	departments map[uuid.UUID]*Department
}

func (m *mockDepartmentRepo) Create(_ context.Context, d *Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	m.departments[d.ID] = d
	return nil
}

func (m *mockDepartmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockDepartmentRepo) GetByName(_ context.Context, name string) (*Department, error) {
	for _, d := range m.departments {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockDepartmentRepo) Update(_ context.Context, d *Department) error {
	m.departments[d.ID] = d
	return nil
}

func (m *mockDepartmentRepo) List(_ context.Context) ([]*Department, error) {
	var out []*Department
	for _, d := range m.departments {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func testService() (*Service, *mockDoctorRepo, *mockDepartmentRepo) {
	doctors := &mockDoctorRepo{doctors: make(map[uuid.UUID]*Doctor)}
	departments := &mockDepartmentRepo{departments: make(map[uuid.UUID]*Department)}
	return NewService(doctors, departments, zerolog.Nop()), doctors, departments
}

func validCreateRequest() CreateDoctorRequest {
	return CreateDoctorRequest{
		FirstName:      "Dana",
		LastName:       "Okafor",
		Specialization: "CARDIOLOGY",
		LicenseNumber:  "LIC-1001",
		Phone:          "5550003333",
		Email:          "d.okafor@hospital.com",
	}
}

func TestCreateDoctor(t *testing.T) {
	svc, _, _ := testService()

	d, err := svc.CreateDoctor(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateDoctor: %v", err)
	}
	if d.CurrentStatus != "AVAILABLE" || !d.IsAvailable || !d.IsActive {
		t.Fatalf("defaults = %q available=%v active=%v", d.CurrentStatus, d.IsAvailable, d.IsActive)
	}
}

func TestCreateDoctor_InvalidSpecialty(t *testing.T) {
	svc, _, _ := testService()
	req := validCreateRequest()
	req.Specialization = "WIZARDRY"

	if _, err := svc.CreateDoctor(context.Background(), req); !errors.Is(err, ErrInvalidSpecialty) {
		t.Fatalf("err = %v, want ErrInvalidSpecialty", err)
	}
}

func TestCreateDoctor_UnknownDepartment(t *testing.T) {
	svc, _, _ := testService()
	req := validCreateRequest()
	depID := uuid.New()
	req.DepartmentID = &depID

	if _, err := svc.CreateDoctor(context.Background(), req); !errors.Is(err, ErrUnknownDepartment) {
		t.Fatalf("err = %v, want ErrUnknownDepartment", err)
	}
}

func TestSetStatus(t *testing.T) {
	svc, _, _ := testService()
	d, err := svc.CreateDoctor(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateDoctor: %v", err)
	}

	status := "IN_SURGERY"
	available := false
	updated, err := svc.SetStatus(context.Background(), d.ID, SetStatusRequest{
		CurrentStatus: &status,
		IsAvailable:   &available,
	})
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.CurrentStatus != "IN_SURGERY" || updated.IsAvailable {
		t.Fatalf("status = %q available=%v", updated.CurrentStatus, updated.IsAvailable)
	}

	bad := "SLEEPING"
	if _, err := svc.SetStatus(context.Background(), d.ID, SetStatusRequest{CurrentStatus: &bad}); !errors.Is(err, ErrInvalidDoctorStatus) {
		t.Fatalf("err = %v, want ErrInvalidDoctorStatus", err)
	}
	if _, err := svc.SetStatus(context.Background(), d.ID, SetStatusRequest{}); !errors.Is(err, ErrNoStatusFieldsGiven) {
		t.Fatalf("err = %v, want ErrNoStatusFieldsGiven", err)
	}
}

func TestCreateDepartment_Duplicate(t *testing.T) {
	svc, _, _ := testService()
	if _, err := svc.CreateDepartment(context.Background(), CreateDepartmentRequest{Name: "Cardiology"}); err != nil {
		t.Fatalf("CreateDepartment: %v", err)
	}
	if _, err := svc.CreateDepartment(context.Background(), CreateDepartmentRequest{Name: "Cardiology"}); !errors.Is(err, ErrDepartmentExists) {
		t.Fatalf("err = %v, want ErrDepartmentExists", err)
	}
}

func TestDoctorRecord_CompensationHiddenFromEveryRole(t *testing.T) {
	svc, _, _ := testService()
	req := validCreateRequest()
	salary := 240000.0
	req.Salary = &salary
	req.BankDetails = &BankDetails{BankName: "First National", AccountNumber: "0123", RoutingNumber: "99"}

	d, err := svc.CreateDoctor(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateDoctor: %v", err)
	}
	rec, err := d.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	for _, role := range policy.Roles() {
		v := policy.Project(policy.KindDoctor, policy.Identity{SubjectID: "u1", Role: role}, rec)
		if v == nil {
			t.Fatalf("role %s has no doctor view", role)
		}
		if _, ok := v["salary"]; ok {
			t.Fatalf("role %s sees salary", role)
		}
		if _, ok := v["bankDetails"]; ok {
			t.Fatalf("role %s sees bank details", role)
		}
	}
}
