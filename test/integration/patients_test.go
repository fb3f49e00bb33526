package integration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/patients"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

func newPatientService() *patients.Service {
	return patients.NewService(patients.NewPatientRepoPG(globalDB.Pool), testLogger())
}

func TestPatientLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newPatientService()

	created := createTestPatient(t, ctx, "Lena", "Fischer")
	if !strings.HasPrefix(created.PatientNumber, "PAT") {
		t.Errorf("patient number %q missing PAT prefix", created.PatientNumber)
	}
	if created.Status != patients.StatusActive {
		t.Errorf("new patient status = %s, want ACTIVE", created.Status)
	}

	got, err := svc.GetPatient(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if got.FirstName != "Lena" || got.Address.City != "Springfield" {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	phone := "555-999-0000"
	updated, err := svc.UpdatePatient(ctx, created.ID, patients.UpdatePatientRequest{
		Phone:     &phone,
		Allergies: []string{"penicillin"},
	}, policy.RoleSuperAdmin)
	if err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}
	if updated.Phone != phone {
		t.Errorf("phone = %s, want %s", updated.Phone, phone)
	}
	if len(updated.Allergies) != 1 || updated.Allergies[0] != "penicillin" {
		t.Errorf("allergies = %v", updated.Allergies)
	}

	list, total, err := svc.ListPatients(ctx, patients.ListPatientsFilter{Search: "Fischer"}, 10, 0)
	if err != nil {
		t.Fatalf("ListPatients: %v", err)
	}
	if total < 1 || len(list) < 1 {
		t.Fatalf("search found %d patients, want at least 1", total)
	}

	if err := svc.DeactivatePatient(ctx, created.ID); err != nil {
		t.Fatalf("DeactivatePatient: %v", err)
	}
	got, err = svc.GetPatient(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPatient after deactivate: %v", err)
	}
	if got.Status != patients.StatusInactive {
		t.Errorf("status after deactivate = %s, want INACTIVE", got.Status)
	}
}

func TestPatientDuplicateDetection(t *testing.T) {
	ctx := context.Background()
	svc := newPatientService()

	email := uniqueEmail("dup")
	req := patients.CreatePatientRequest{
		FirstName:   "Duplicate",
		LastName:    "Candidate",
		DateOfBirth: "1990-01-01",
		Gender:      "MALE",
		Phone:       "555-030-0300",
		Email:       &email,
		Address: patients.Address{
			Street: "1 Elm St", City: "Springfield", State: "IL", Zip: "62701",
		},
		EmergencyContact: patients.EmergencyContact{
			Name: "Kin", Relationship: "PARENT", Phone: "555-030-0301",
		},
	}
	if _, err := svc.CreatePatient(ctx, req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.CreatePatient(ctx, req); !errors.Is(err, patients.ErrPatientExists) {
		t.Errorf("second create: got %v, want ErrPatientExists", err)
	}
}
