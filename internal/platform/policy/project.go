package policy

// RedactedNotePlaceholder replaces clinical free-text note content in views
// that may acknowledge a note exists without exposing its content. The field
// stays present but opaque, which is a deliberately different policy from
// stripping it.
const RedactedNotePlaceholder = "[Clinical Note - Access Restricted]"

// defaultInterpretation is returned to patients on lab results that carry no
// clinician interpretation yet.
const defaultInterpretation = "Please consult your doctor for interpretation"

// projection computes a role-scoped view of a record. A nil result means the
// identity has no visibility into the instance at all.
type projection func(rec Record, id Identity) Record

// projectionTable maps (resource kind, role) to an explicit view rule. The
// table is allow-list: a combination without an entry sees nothing. Rules
// must be pure and must not mutate their input.
var projectionTable = map[ResourceKind]map[Role]projection{
	KindPatient:      patientProjections(),
	KindDoctor:       doctorProjections(),
	KindBill:         billProjections(),
	KindLabResult:    labResultProjections(),
	KindPrescription: prescriptionProjections(),
}

// Project computes the role-scoped view of a record. It is pure: identical
// arguments always yield the identical view, and the input record is never
// modified. Returns nil when the identity has no visibility into the
// instance, including every combination the table does not explicitly allow.
func Project(kind ResourceKind, id Identity, rec Record) Record {
	if rec == nil || !id.Role.Valid() {
		return nil
	}
	roleRules, ok := projectionTable[kind]
	if !ok {
		return nil
	}
	rule, ok := roleRules[id.Role]
	if !ok {
		return nil
	}
	return rule(rec, id)
}

// HasProjection reports whether an explicit view rule exists for the
// combination. Handlers use it to distinguish "kind is never filtered" from
// "this role sees nothing".
func HasProjection(kind ResourceKind, role Role) bool {
	roleRules, ok := projectionTable[kind]
	if !ok {
		return false
	}
	_, ok = roleRules[role]
	return ok
}

// patientBaseFields are the demographic fields every staff view starts from.
var patientBaseFields = []string{
	"id", "patientNumber", "firstName", "lastName", "dateOfBirth", "gender", "phone", "email",
}

// reduceInsurance narrows the insurance sub-object to provider and policy
// number only.
func reduceInsurance(rec Record) Record {
	ins, ok := rec.subMap("insuranceDetails")
	if !ok {
		return rec
	}
	out := rec.clone()
	out["insuranceDetails"] = map[string]any(ins.pick("provider", "policyNumber"))
	return out
}

func patientProjections() map[Role]projection {
	return map[Role]projection{
		RolePatient: func(rec Record, id Identity) Record {
			if rec.owner() != id.SubjectID {
				return nil
			}
			// Owners see their full record minus internal staff annotations.
			return rec.strip("internalNotes", "staffNotes")
		},
		RoleDoctor: func(rec Record, _ Identity) Record {
			return reduceInsurance(rec.strip("billingInfo"))
		},
		RoleNurse: func(rec Record, _ Identity) Record {
			fields := append(append([]string{}, patientBaseFields...),
				"allergies", "emergencyContact", "currentMedications", "vitalSigns", "carePlans")
			return rec.pick(fields...)
		},
		RoleReceptionist: func(rec Record, _ Identity) Record {
			fields := append(append([]string{}, patientBaseFields...),
				"address", "emergencyContact", "insuranceDetails")
			return reduceInsurance(rec.pick(fields...))
		},
		RolePharmacist: func(rec Record, _ Identity) Record {
			fields := append(append([]string{}, patientBaseFields...),
				"allergies", "currentMedications", "prescriptions")
			return rec.pick(fields...)
		},
		RoleLabTechnician: func(rec Record, _ Identity) Record {
			fields := append(append([]string{}, patientBaseFields...),
				"labOrders", "labResults")
			return rec.pick(fields...)
		},
		RoleBillingManager: patientFinancialView,
		RoleAccountant:     patientFinancialView,
		RoleSuperAdmin: func(rec Record, _ Identity) Record {
			out := rec.strip("privateNotes")
			out.mapList("doctorNotes", func(note Record) Record {
				redacted := note.clone()
				if _, ok := redacted["content"]; ok {
					redacted["content"] = RedactedNotePlaceholder
				}
				return redacted
			})
			return out
		},
	}
}

func patientFinancialView(rec Record, _ Identity) Record {
	fields := append(append([]string{}, patientBaseFields...),
		"billingInfo", "insuranceDetails")
	return rec.pick(fields...)
}

// doctorPublicFields form the patient-facing directory view of a doctor
// profile.
var doctorPublicFields = []string{
	"id", "firstName", "lastName", "specialization", "qualifications",
	"department", "consultationFee", "avatar", "availableSlots", "schedule",
}

func doctorPublicView(rec Record, _ Identity) Record {
	out := rec.pick(doctorPublicFields...)
	out.mapList("schedule", func(slot Record) Record {
		return slot.pick("dayOfWeek", "startTime", "endTime", "isAvailable")
	})
	return out
}

func doctorStaffView(rec Record, id Identity) Record {
	out := doctorPublicView(rec, id)
	for _, f := range []string{"phone", "email", "licenseNumber"} {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

// doctorManagementView exposes the full professional profile. HR-sensitive
// compensation fields stay hidden from every role, management included.
func doctorManagementView(rec Record, _ Identity) Record {
	return rec.strip("salary", "bankDetails")
}

func doctorProjections() map[Role]projection {
	return map[Role]projection{
		RolePatient: doctorPublicView,
		RoleDoctor: func(rec Record, _ Identity) Record {
			return rec.strip("salary", "personalContact", "emergencyContact", "bankDetails")
		},
		RoleNurse:           doctorStaffView,
		RoleReceptionist:    doctorStaffView,
		RolePharmacist:      doctorPublicView,
		RoleLabTechnician:   doctorPublicView,
		RoleBillingManager:  doctorPublicView,
		RoleAccountant:      doctorPublicView,
		RoleSuperAdmin:      doctorManagementView,
		RoleFacilityManager: doctorManagementView,
	}
}

// billOperationalFields is the reduced summary available to care staff.
var billOperationalFields = []string{
	"id", "billNumber", "patientId", "patientName", "totalAmount", "status", "dueDate",
}

func billOperationalView(rec Record, _ Identity) Record {
	return rec.pick(billOperationalFields...)
}

func billFullView(rec Record, _ Identity) Record {
	return rec.clone()
}

func billProjections() map[Role]projection {
	return map[Role]projection{
		RolePatient: func(rec Record, id Identity) Record {
			if rec.owner() != id.SubjectID {
				return nil
			}
			return rec.strip("internalNotes", "profitMargin", "costBreakdown")
		},
		RoleDoctor: func(rec Record, _ Identity) Record {
			return rec.pick("id", "billNumber", "patientName", "totalAmount", "status", "createdAt")
		},
		RoleNurse:          billOperationalView,
		RoleReceptionist:   billOperationalView,
		RoleBillingManager: billFullView,
		RoleAccountant:     billFullView,
		RoleSuperAdmin: func(rec Record, _ Identity) Record {
			// Management sees financial summaries, not itemised transactions.
			out := rec.clone()
			if items, ok := rec["items"].([]any); ok {
				out["items"] = len(items)
			}
			if payments, ok := rec["payments"].([]any); ok {
				out["payments"] = len(payments)
			}
			return out
		},
	}
}

func labResultProjections() map[Role]projection {
	return map[Role]projection{
		RolePatient: func(rec Record, id Identity) Record {
			if rec.owner() != id.SubjectID {
				return nil
			}
			out := rec.clone()
			if s, _ := out["interpretation"].(string); s == "" {
				out["interpretation"] = defaultInterpretation
			}
			return out
		},
		RoleDoctor: func(rec Record, _ Identity) Record {
			return rec.clone()
		},
		RoleNurse: func(rec Record, _ Identity) Record {
			return rec.strip("detailedAnalysis", "differentialDiagnosis")
		},
		RoleLabTechnician: func(rec Record, _ Identity) Record {
			return rec.strip("clinicalSignificance", "treatmentRecommendations")
		},
		RoleReceptionist: func(rec Record, _ Identity) Record {
			return rec.pick("id", "status", "completedAt", "patientName")
		},
	}
}

func prescriptionProjections() map[Role]projection {
	return map[Role]projection{
		RolePatient: func(rec Record, id Identity) Record {
			if rec.owner() != id.SubjectID {
				return nil
			}
			return rec.strip("internalNotes", "costAnalysis")
		},
		RoleDoctor: func(rec Record, _ Identity) Record {
			return rec.clone()
		},
		RolePharmacist: func(rec Record, _ Identity) Record {
			return rec.strip("diagnosticNotes", "treatmentPlan")
		},
		RoleNurse: func(rec Record, _ Identity) Record {
			out := rec.strip("clinicalReasoning")
			out.mapList("medications", func(med Record) Record {
				return med.pick("name", "dosage", "frequency", "instructions")
			})
			return out
		},
	}
}
