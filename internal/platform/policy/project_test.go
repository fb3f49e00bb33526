package policy

import (
	"reflect"
	"testing"
)

func samplePatient() Record {
	return Record{
		"id":            "p1",
		OwnerKey:        "u1",
		"patientNumber": "PAT-0001",
		"firstName":     "Amina",
		"lastName":      "Rahman",
		"dateOfBirth":   "1988-04-12",
		"gender":        "FEMALE",
		"phone":         "+880-1711-000000",
		"email":         "amina@example.com",
		"address":       "12 Green Road, Dhaka",
		"allergies":          []any{"penicillin"},
		"emergencyContact":   map[string]any{"name": "Karim", "phone": "+880-1711-111111"},
		"currentMedications": []any{"metformin"},
		"vitalSigns":         map[string]any{"bp": "120/80"},
		"carePlans":          []any{"diabetes management"},
		"medicalHistory":     []any{"T2DM diagnosed 2019"},
		"labOrders":          []any{"HbA1c"},
		"labResults":         []any{"HbA1c 6.9%"},
		"prescriptions":      []any{"rx-1"},
		"billingInfo":        map[string]any{"outstanding": 1200.50},
		"insuranceDetails": map[string]any{
			"provider":     "MetLife",
			"policyNumber": "POL-778",
			"groupNumber":  "G-12",
			"copay":        250.0,
		},
		"internalNotes": "staff only",
		"staffNotes":    "handle with care",
		"privateNotes":  "do not disclose",
		"doctorNotes": []any{
			map[string]any{"author": "Dr. Sen", "content": "suspected neuropathy"},
		},
	}
}

func TestProjectPatient_OwnerSeesRecordWithoutStaffAnnotations(t *testing.T) {
	view := Project(KindPatient, ident(RolePatient, "u1"), samplePatient())
	if view == nil {
		t.Fatal("owner denied their own record")
	}
	for _, f := range []string{"internalNotes", "staffNotes"} {
		if _, ok := view[f]; ok {
			t.Errorf("owner view contains staff annotation %q", f)
		}
	}
	if view["medicalHistory"] == nil {
		t.Error("owner view lost clinical history")
	}
}

func TestProjectPatient_NonOwnerPatientDenied(t *testing.T) {
	if view := Project(KindPatient, ident(RolePatient, "u2"), samplePatient()); view != nil {
		t.Fatalf("non-owning patient received a view: %v", view)
	}
}

func TestProjectPatient_DoctorView(t *testing.T) {
	view := Project(KindPatient, ident(RoleDoctor, "u5"), samplePatient())
	if view == nil {
		t.Fatal("doctor denied")
	}
	if _, ok := view["billingInfo"]; ok {
		t.Error("doctor view contains billing info")
	}
	ins, ok := view["insuranceDetails"].(map[string]any)
	if !ok {
		t.Fatal("doctor view lost insurance summary")
	}
	if len(ins) != 2 || ins["provider"] != "MetLife" || ins["policyNumber"] != "POL-778" {
		t.Errorf("insurance not reduced to provider+policy: %v", ins)
	}
	if view["medicalHistory"] == nil {
		t.Error("doctor view lost clinical content")
	}
}

func TestProjectPatient_ExclusionTables(t *testing.T) {
	// Per-role fields that must never appear in the view.
	cases := []struct {
		role     Role
		excluded []string
		included []string
	}{
		{RoleNurse,
			[]string{"medicalHistory", "billingInfo", "diagnosticNotes", "insuranceDetails"},
			[]string{"allergies", "emergencyContact", "currentMedications", "vitalSigns", "carePlans"}},
		{RoleReceptionist,
			[]string{"medicalHistory", "vitalSigns", "prescriptions", "labResults", "billingInfo"},
			[]string{"address", "emergencyContact", "insuranceDetails"}},
		{RolePharmacist,
			[]string{"medicalHistory", "vitalSigns", "labResults", "billingInfo"},
			[]string{"allergies", "currentMedications", "prescriptions"}},
		{RoleLabTechnician,
			[]string{"medicalHistory", "prescriptions", "billingInfo"},
			[]string{"labOrders", "labResults"}},
		{RoleBillingManager,
			[]string{"medicalHistory", "vitalSigns", "prescriptions", "labResults"},
			[]string{"billingInfo", "insuranceDetails"}},
		{RoleAccountant,
			[]string{"medicalHistory", "vitalSigns", "prescriptions", "labResults"},
			[]string{"billingInfo", "insuranceDetails"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			view := Project(KindPatient, ident(tc.role, "u5"), samplePatient())
			if view == nil {
				t.Fatalf("%s denied entirely", tc.role)
			}
			for _, f := range tc.excluded {
				if _, ok := view[f]; ok {
					t.Errorf("%s view contains excluded field %q", tc.role, f)
				}
			}
			for _, f := range tc.included {
				if _, ok := view[f]; !ok {
					t.Errorf("%s view lost expected field %q", tc.role, f)
				}
			}
		})
	}
}

func TestProjectPatient_SuperAdminNoteRedaction(t *testing.T) {
	view := Project(KindPatient, ident(RoleSuperAdmin, "u5"), samplePatient())
	if view == nil {
		t.Fatal("super admin denied")
	}
	if _, ok := view["privateNotes"]; ok {
		t.Error("super admin view contains private notes")
	}
	notes, ok := view["doctorNotes"].([]any)
	if !ok || len(notes) != 1 {
		t.Fatalf("doctor notes missing from super admin view: %v", view["doctorNotes"])
	}
	note, _ := notes[0].(Record)
	if note == nil {
		t.Fatalf("note has unexpected shape: %T", notes[0])
	}
	// The note must be present but opaque, not omitted.
	if note["content"] != RedactedNotePlaceholder {
		t.Errorf("note content = %q, want redaction placeholder", note["content"])
	}
	if note["author"] != "Dr. Sen" {
		t.Errorf("note metadata lost: %v", note)
	}
}

func TestProjectPatient_FacilityManagerSeesNothing(t *testing.T) {
	if view := Project(KindPatient, ident(RoleFacilityManager, "u5"), samplePatient()); view != nil {
		t.Fatalf("facility manager received a patient view: %v", view)
	}
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	rec := samplePatient()
	snapshot := Record{}
	for k, v := range rec {
		snapshot[k] = v
	}
	for _, r := range Roles() {
		Project(KindPatient, ident(r, "u1"), rec)
	}
	if len(rec) != len(snapshot) {
		t.Fatalf("input record size changed: %d != %d", len(rec), len(snapshot))
	}
	notes := rec["doctorNotes"].([]any)
	content := notes[0].(map[string]any)["content"]
	if content != "suspected neuropathy" {
		t.Errorf("input note content mutated: %q", content)
	}
	if !reflect.DeepEqual(rec["insuranceDetails"], snapshot["insuranceDetails"]) {
		t.Error("input insurance mutated")
	}
}

func TestProject_Deterministic(t *testing.T) {
	rec := samplePatient()
	id := ident(RoleNurse, "u5")
	first := Project(KindPatient, id, rec)
	for i := 0; i < 20; i++ {
		if got := Project(KindPatient, id, rec); !reflect.DeepEqual(got, first) {
			t.Fatalf("projection not deterministic on call %d", i)
		}
	}
}

func sampleDoctor() Record {
	return Record{
		"id":             "d1",
		"firstName":      "Farid",
		"lastName":       "Hossain",
		"specialization": "Cardiology",
		"qualifications": "MBBS, FCPS",
		"department":     "Cardiology",
		"consultationFee": 1500.0,
		"avatar":          "/avatars/d1.png",
		"availableSlots":  []any{"09:00", "09:30"},
		"schedule": []any{
			map[string]any{"dayOfWeek": 1, "startTime": "09:00", "endTime": "13:00", "isAvailable": true, "room": "C-204"},
		},
		"phone":            "+880-1812-000000",
		"email":            "farid@hospital.example",
		"licenseNumber":    "BMDC-44312",
		"salary":           250000.0,
		"bankDetails":      map[string]any{"account": "0012345678"},
		"personalContact":  "+880-1555-000000",
		"emergencyContact": map[string]any{"name": "spouse"},
	}
}

func TestProjectDoctor_HRFieldsNeverExposed(t *testing.T) {
	for _, r := range Roles() {
		view := Project(KindDoctor, ident(r, "u5"), sampleDoctor())
		if view == nil {
			t.Errorf("%s has no doctor-profile view", r)
			continue
		}
		if _, ok := view["salary"]; ok {
			t.Errorf("%s view exposes salary", r)
		}
		if _, ok := view["bankDetails"]; ok {
			t.Errorf("%s view exposes bank details", r)
		}
	}
}

func TestProjectDoctor_PatientGetsPublicView(t *testing.T) {
	view := Project(KindDoctor, ident(RolePatient, "u1"), sampleDoctor())
	if view == nil {
		t.Fatal("patient denied doctor directory view")
	}
	for _, f := range []string{"phone", "email", "licenseNumber", "personalContact"} {
		if _, ok := view[f]; ok {
			t.Errorf("public view exposes %q", f)
		}
	}
	slots, ok := view["schedule"].([]any)
	if !ok || len(slots) != 1 {
		t.Fatal("public view lost schedule")
	}
	slot := slots[0].(Record)
	if _, ok := slot["room"]; ok {
		t.Error("public schedule exposes room assignments")
	}
	if slot["startTime"] != "09:00" {
		t.Errorf("public schedule lost slot times: %v", slot)
	}
}

func TestProjectDoctor_StaffViewAddsWorkContact(t *testing.T) {
	view := Project(KindDoctor, ident(RoleNurse, "u5"), sampleDoctor())
	if view == nil {
		t.Fatal("nurse denied doctor view")
	}
	for _, f := range []string{"phone", "email", "licenseNumber"} {
		if _, ok := view[f]; !ok {
			t.Errorf("staff view lost %q", f)
		}
	}
	if _, ok := view["personalContact"]; ok {
		t.Error("staff view exposes personal contact")
	}
}

func sampleBill() Record {
	return Record{
		"id":          "b1",
		OwnerKey:      "u1",
		"billNumber":  "INV-1009",
		"patientId":   "p1",
		"patientName": "Amina Rahman",
		"totalAmount": 5400.0,
		"paidAmount":  5400.0,
		"status":      "PAID",
		"dueDate":     "2026-09-15",
		"createdAt":   "2026-08-20",
		"items": []any{
			map[string]any{"description": "X-Ray", "amount": 1400.0},
			map[string]any{"description": "Consultation", "amount": 4000.0},
		},
		"payments": []any{
			map[string]any{"amount": 5400.0, "method": "CARD"},
		},
		"internalNotes": "discount approved by manager",
		"profitMargin":  0.4,
		"costBreakdown": map[string]any{"materials": 600.0},
	}
}

func TestProjectBill_BillingManagerFullNurseReduced(t *testing.T) {
	bill := sampleBill()

	full := Project(KindBill, ident(RoleBillingManager, "u5"), bill)
	if full == nil {
		t.Fatal("billing manager denied")
	}
	if !reflect.DeepEqual(map[string]any(full), map[string]any(bill)) {
		t.Error("billing manager view is not the unfiltered record")
	}

	reduced := Project(KindBill, ident(RoleNurse, "u5"), bill)
	if reduced == nil {
		t.Fatal("nurse denied")
	}
	want := map[string]any{
		"id": "b1", "billNumber": "INV-1009", "patientId": "p1",
		"patientName": "Amina Rahman", "totalAmount": 5400.0,
		"status": "PAID", "dueDate": "2026-09-15",
	}
	if !reflect.DeepEqual(map[string]any(reduced), want) {
		t.Errorf("nurse view = %v, want operational summary %v", reduced, want)
	}
}

func TestProjectBill_SuperAdminSummaryCounts(t *testing.T) {
	view := Project(KindBill, ident(RoleSuperAdmin, "u5"), sampleBill())
	if view == nil {
		t.Fatal("super admin denied")
	}
	if view["items"] != 2 {
		t.Errorf("items = %v, want count 2", view["items"])
	}
	if view["payments"] != 1 {
		t.Errorf("payments = %v, want count 1", view["payments"])
	}
}

func TestProjectBill_PatientOwnerAndStranger(t *testing.T) {
	bill := sampleBill()
	own := Project(KindBill, ident(RolePatient, "u1"), bill)
	if own == nil {
		t.Fatal("owner denied own bill")
	}
	for _, f := range []string{"internalNotes", "profitMargin", "costBreakdown"} {
		if _, ok := own[f]; ok {
			t.Errorf("owner bill view exposes %q", f)
		}
	}
	if view := Project(KindBill, ident(RolePatient, "u2"), bill); view != nil {
		t.Fatal("stranger patient received a bill view")
	}
}

func TestProjectLabResult(t *testing.T) {
	result := Record{
		"id":          "r1",
		OwnerKey:      "u1",
		"status":      "COMPLETED",
		"completedAt": "2026-08-25",
		"patientName": "Amina Rahman",
		"value":       "6.9%",
		"detailedAnalysis":         "full panel analysis",
		"differentialDiagnosis":    "n/a",
		"clinicalSignificance":     "borderline",
		"treatmentRecommendations": "adjust dosage",
	}

	if view := Project(KindLabResult, ident(RolePatient, "u1"), result); view == nil {
		t.Fatal("owner denied lab result")
	} else if view["interpretation"] != defaultInterpretation {
		t.Errorf("missing default interpretation, got %v", view["interpretation"])
	}

	nurse := Project(KindLabResult, ident(RoleNurse, "u5"), result)
	if _, ok := nurse["detailedAnalysis"]; ok {
		t.Error("nurse view exposes detailed analysis")
	}

	tech := Project(KindLabResult, ident(RoleLabTechnician, "u5"), result)
	if _, ok := tech["clinicalSignificance"]; ok {
		t.Error("lab technician view exposes clinical significance")
	}

	recep := Project(KindLabResult, ident(RoleReceptionist, "u5"), result)
	want := map[string]any{"id": "r1", "status": "COMPLETED", "completedAt": "2026-08-25", "patientName": "Amina Rahman"}
	if !reflect.DeepEqual(map[string]any(recep), want) {
		t.Errorf("receptionist view = %v, want %v", recep, want)
	}

	if view := Project(KindLabResult, ident(RoleBillingManager, "u5"), result); view != nil {
		t.Error("billing manager received a lab result view")
	}
}

func TestProjectPrescription_NurseMedicationSummary(t *testing.T) {
	rx := Record{
		"id":     "rx1",
		OwnerKey: "u1",
		"medications": []any{
			map[string]any{"name": "Metformin", "dosage": "500mg", "frequency": "BID", "instructions": "after meals", "unitCost": 4.5},
		},
		"clinicalReasoning": "HbA1c trending up",
		"diagnosticNotes":   "neuropathy suspected",
		"treatmentPlan":     "review in 3 months",
		"internalNotes":     "pharma rep sample",
		"costAnalysis":      map[string]any{"monthly": 270.0},
	}

	nurse := Project(KindPrescription, ident(RoleNurse, "u5"), rx)
	if nurse == nil {
		t.Fatal("nurse denied prescription")
	}
	if _, ok := nurse["clinicalReasoning"]; ok {
		t.Error("nurse view exposes clinical reasoning")
	}
	meds := nurse["medications"].([]any)
	med := meds[0].(Record)
	if _, ok := med["unitCost"]; ok {
		t.Error("nurse medication summary exposes unit cost")
	}
	if med["dosage"] != "500mg" {
		t.Errorf("nurse medication summary lost dosage: %v", med)
	}

	pharm := Project(KindPrescription, ident(RolePharmacist, "u5"), rx)
	for _, f := range []string{"diagnosticNotes", "treatmentPlan"} {
		if _, ok := pharm[f]; ok {
			t.Errorf("pharmacist view exposes %q", f)
		}
	}

	owner := Project(KindPrescription, ident(RolePatient, "u1"), rx)
	for _, f := range []string{"internalNotes", "costAnalysis"} {
		if _, ok := owner[f]; ok {
			t.Errorf("owner view exposes %q", f)
		}
	}
}

func TestProject_UnrecognizedRoleSeesNothing(t *testing.T) {
	bad := Identity{SubjectID: "u1", Role: Role("lowercase_admin")}
	records := map[ResourceKind]Record{
		KindPatient:      samplePatient(),
		KindDoctor:       sampleDoctor(),
		KindBill:         sampleBill(),
		KindLabResult:    {"id": "r1"},
		KindPrescription: {"id": "rx1"},
	}
	for kind, rec := range records {
		if view := Project(kind, bad, rec); view != nil {
			t.Errorf("unrecognized role received a %s view", kind)
		}
	}
}

func TestProject_NilRecord(t *testing.T) {
	if view := Project(KindPatient, ident(RoleDoctor, "u1"), nil); view != nil {
		t.Error("nil record produced a view")
	}
}
