package policy

// Action is a coarse operation category checked against the static
// role/resource matrix before any data access.
type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ResourceKind names an authorizable resource category.
type ResourceKind string

const (
	KindPatient      ResourceKind = "patient"
	KindDoctor       ResourceKind = "doctor"
	KindAppointment  ResourceKind = "appointment"
	KindBill         ResourceKind = "bill"
	KindLabOrder     ResourceKind = "lab_order"
	KindLabResult    ResourceKind = "lab_result"
	KindPrescription ResourceKind = "prescription"
	KindMedication   ResourceKind = "medication"
	KindBed          ResourceKind = "bed"
	KindAdmission    ResourceKind = "admission"
	KindDepartment   ResourceKind = "department"
	KindNotification ResourceKind = "notification"
	KindReport       ResourceKind = "report"
	KindUser         ResourceKind = "user"
)

// Decision is the outcome of an authorization check. Reason is for
// diagnostics and audit only; callers collapse all denials into the same
// caller-visible forbidden outcome.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true, Reason: "allowed"}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// allRoles marks matrix entries open to every valid role.
var allRoles = Roles()

func staffRoles() []Role {
	return []Role{
		RoleSuperAdmin, RoleDoctor, RoleNurse, RoleReceptionist,
		RolePharmacist, RoleLabTechnician, RoleBillingManager,
		RoleFacilityManager, RoleAccountant,
	}
}

// permissionMatrix is the static (resource kind, action) → allowed roles
// mapping. Absence of an entry means deny; there is no fall-through to a
// broader rule. Clinical record kinds deliberately have no delete entry:
// they are soft-deactivated through update instead.
var permissionMatrix = map[ResourceKind]map[Action][]Role{
	KindPatient: {
		ActionList:   {RoleSuperAdmin, RoleDoctor, RoleNurse, RoleReceptionist},
		ActionRead:   {RoleSuperAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RolePharmacist, RoleLabTechnician, RoleBillingManager, RoleAccountant, RolePatient},
		ActionCreate: {RoleSuperAdmin, RoleReceptionist, RoleDoctor},
		ActionUpdate: {RoleSuperAdmin, RoleReceptionist, RoleDoctor},
	},
	KindDoctor: {
		ActionList:   allRoles,
		ActionRead:   allRoles,
		ActionCreate: {RoleSuperAdmin, RoleFacilityManager},
		ActionUpdate: {RoleSuperAdmin, RoleFacilityManager},
		ActionDelete: {RoleSuperAdmin},
	},
	KindAppointment: {
		ActionList:   allRoles,
		ActionRead:   allRoles,
		ActionCreate: {RoleSuperAdmin, RoleReceptionist, RoleDoctor, RoleNurse, RolePatient},
		ActionUpdate: {RoleSuperAdmin, RoleReceptionist, RoleDoctor, RoleNurse},
		ActionDelete: {RoleSuperAdmin, RoleReceptionist},
	},
	KindBill: {
		ActionList:   {RoleSuperAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleBillingManager, RoleAccountant, RolePatient},
		ActionRead:   {RoleSuperAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleBillingManager, RoleAccountant, RolePatient},
		ActionCreate: {RoleSuperAdmin, RoleBillingManager, RoleReceptionist},
		ActionUpdate: {RoleSuperAdmin, RoleBillingManager, RoleReceptionist},
		ActionDelete: {RoleSuperAdmin, RoleBillingManager},
	},
	KindLabOrder: {
		ActionList:   {RoleSuperAdmin, RoleDoctor, RoleNurse, RoleLabTechnician, RoleReceptionist},
		ActionRead:   {RoleSuperAdmin, RoleDoctor, RoleNurse, RoleLabTechnician, RoleReceptionist, RolePatient},
		ActionCreate: {RoleSuperAdmin, RoleDoctor, RoleLabTechnician},
		ActionUpdate: {RoleSuperAdmin, RoleDoctor, RoleLabTechnician},
		ActionDelete: {RoleSuperAdmin},
	},
	KindLabResult: {
		ActionList:   {RoleSuperAdmin, RoleDoctor, RoleNurse, RoleLabTechnician, RoleReceptionist},
		ActionRead:   {RoleSuperAdmin, RoleDoctor, RoleNurse, RoleLabTechnician, RoleReceptionist, RolePatient},
		ActionCreate: {RoleLabTechnician, RoleDoctor},
		ActionUpdate: {RoleLabTechnician, RoleDoctor},
	},
	KindPrescription: {
		ActionList:   {RoleDoctor, RoleNurse, RolePharmacist},
		ActionRead:   {RoleDoctor, RoleNurse, RolePharmacist, RolePatient},
		ActionCreate: {RoleDoctor},
		ActionUpdate: {RoleDoctor, RolePharmacist},
	},
	KindMedication: {
		ActionList:   staffRoles(),
		ActionRead:   staffRoles(),
		ActionCreate: {RoleSuperAdmin, RolePharmacist},
		ActionUpdate: {RoleSuperAdmin, RolePharmacist},
		ActionDelete: {RoleSuperAdmin, RolePharmacist},
	},
	KindBed: {
		ActionList:   {RoleSuperAdmin, RoleFacilityManager, RoleDoctor, RoleNurse, RoleReceptionist},
		ActionRead:   {RoleSuperAdmin, RoleFacilityManager, RoleDoctor, RoleNurse, RoleReceptionist},
		ActionCreate: {RoleSuperAdmin, RoleFacilityManager},
		ActionUpdate: {RoleSuperAdmin, RoleFacilityManager, RoleNurse},
		ActionDelete: {RoleSuperAdmin, RoleFacilityManager},
	},
	KindAdmission: {
		ActionList:   {RoleSuperAdmin, RoleFacilityManager, RoleDoctor, RoleNurse, RoleReceptionist},
		ActionRead:   {RoleSuperAdmin, RoleFacilityManager, RoleDoctor, RoleNurse, RoleReceptionist, RolePatient},
		ActionCreate: {RoleSuperAdmin, RoleFacilityManager, RoleReceptionist, RoleDoctor},
		ActionUpdate: {RoleSuperAdmin, RoleFacilityManager, RoleDoctor, RoleNurse},
	},
	KindDepartment: {
		ActionList:   staffRoles(),
		ActionRead:   staffRoles(),
		ActionCreate: {RoleSuperAdmin, RoleFacilityManager},
		ActionUpdate: {RoleSuperAdmin, RoleFacilityManager},
	},
	KindNotification: {
		ActionList:   allRoles,
		ActionRead:   allRoles,
		ActionCreate: {RoleSuperAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleLabTechnician, RoleBillingManager},
		ActionUpdate: allRoles,
		ActionDelete: allRoles,
	},
	KindReport: {
		ActionRead: {RoleSuperAdmin, RoleBillingManager, RoleAccountant, RoleFacilityManager},
	},
	KindUser: {
		ActionList:   {RoleSuperAdmin},
		ActionRead:   {RoleSuperAdmin},
		ActionCreate: {RoleSuperAdmin},
		ActionUpdate: {RoleSuperAdmin},
		ActionDelete: {RoleSuperAdmin},
	},
}

// Authorize decides whether the identity may perform action on a resource of
// the given kind. ownerSubjectID identifies the owning subject for
// instance-owned resources and may be empty for collection-level checks.
//
// The decision is deterministic: the same arguments always produce the same
// result. An identity carrying a role outside the closed set is denied for
// every kind and action.
func Authorize(id Identity, action Action, kind ResourceKind, ownerSubjectID string) Decision {
	if !id.Role.Valid() {
		return deny("unrecognized role " + string(id.Role))
	}

	actions, ok := permissionMatrix[kind]
	if !ok {
		return deny("no policy for resource kind " + string(kind))
	}
	allowed, ok := actions[action]
	if !ok {
		return deny(string(action) + " not permitted on " + string(kind))
	}

	found := false
	for _, r := range allowed {
		if r == id.Role {
			found = true
			break
		}
	}
	if !found {
		return deny("role " + string(id.Role) + " may not " + string(action) + " " + string(kind))
	}

	// Patients act only on their own instances. Other roles are evaluated
	// purely on the static matrix; assignment scoping is a query-time
	// concern of the persistence collaborator.
	if id.Role == RolePatient && ownerSubjectID != "" && ownerSubjectID != id.SubjectID {
		return deny("ownership mismatch")
	}

	return Allow
}
