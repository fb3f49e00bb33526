package policy

import "fmt"

// Role is the closed set of institutional actors. Role values arriving from
// storage or tokens must be parsed through ParseRole; any string outside the
// set is a configuration defect, not a user error.
type Role string

const (
	RoleSuperAdmin      Role = "SUPER_ADMIN"
	RoleDoctor          Role = "DOCTOR"
	RoleNurse           Role = "NURSE"
	RoleReceptionist    Role = "RECEPTIONIST"
	RolePharmacist      Role = "PHARMACIST"
	RoleLabTechnician   Role = "LAB_TECHNICIAN"
	RoleBillingManager  Role = "BILLING_MANAGER"
	RoleFacilityManager Role = "FACILITY_MANAGER"
	RoleAccountant      Role = "ACCOUNTANT"
	RolePatient         Role = "PATIENT"
)

// ErrUnrecognizedRole reports a role string outside the closed set. It is a
// fail-closed condition: callers must treat it as a server-side defect and
// never fall back to a broader role's rules.
type ErrUnrecognizedRole struct {
	Value string
}

func (e *ErrUnrecognizedRole) Error() string {
	return fmt.Sprintf("unrecognized role %q", e.Value)
}

var roleDisplayNames = map[Role]string{
	RoleSuperAdmin:      "Super Administrator",
	RoleDoctor:          "Doctor",
	RoleNurse:           "Nurse",
	RoleReceptionist:    "Receptionist",
	RolePharmacist:      "Pharmacist",
	RoleLabTechnician:   "Laboratory Technician",
	RoleBillingManager:  "Billing Manager",
	RoleFacilityManager: "Facility Manager",
	RoleAccountant:      "Accountant",
	RolePatient:         "Patient",
}

// Roles returns the full role set in a stable order.
func Roles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleDoctor,
		RoleNurse,
		RoleReceptionist,
		RolePharmacist,
		RoleLabTechnician,
		RoleBillingManager,
		RoleFacilityManager,
		RoleAccountant,
		RolePatient,
	}
}

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleDisplayNames[r]; !ok {
		return "", &ErrUnrecognizedRole{Value: s}
	}
	return r, nil
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, ok := roleDisplayNames[r]
	return ok
}

// DisplayName returns the human-readable label for the role.
func (r Role) DisplayName() string {
	return roleDisplayNames[r]
}

func (r Role) String() string { return string(r) }

// Identity is the resolved, trusted representation of the requester,
// produced once per request by the authenticator and immutable afterwards.
type Identity struct {
	SubjectID string
	Role      Role
	SessionID string
}
