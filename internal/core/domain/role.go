package domain

// Role is a single named category governing a user's default capability set.
// The enumeration is closed: every user holds exactly one of these values.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
	RolePharmacist   Role = "pharmacist"
	RolePatient      Role = "patient"
)

// Valid reports whether r is part of the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RolePharmacist, RolePatient:
		return true
	}
	return false
}

// Permission is an opaque capability tag. Permissions are granted in groups,
// one group per role; a session may additionally carry per-user grants issued
// by the backend.
type Permission string

// rolePermissions is the process-wide catalog. It is initialized once and
// never mutated at runtime; changing a role's group means a new deployment.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		"view_all_patients",
		"edit_all_patients",
		"view_all_records",
		"edit_all_records",
		"manage_users",
		"view_analytics",
		"manage_system",
	},
	RoleDoctor: {
		"view_assigned_patients",
		"edit_assigned_patients",
		"view_medical_records",
		"create_medical_records",
		"edit_medical_records",
		"prescribe_medication",
		"view_limited_analytics",
		"send_pharmacy_messages",
	},
	RoleNurse: {
		"view_assigned_patients",
		"update_vitals",
		"view_medical_records",
		"update_medical_records",
		"administer_medication",
	},
	RolePharmacist: {
		"view_prescriptions",
		"manage_pharmacy_inventory",
		"process_prescriptions",
		"view_pharmacy_messages",
		"send_pharmacy_messages",
	},
	RoleReceptionist: {
		"view_patient_info",
		"register_patients",
		"schedule_appointments",
		"manage_billing",
	},
	RolePatient: {
		"view_own_records",
		"view_appointments",
		"request_appointments",
	},
}

// PermissionsFor returns the permission group the catalog grants to role.
// The lookup is total: unknown roles yield an empty, non-nil set. Callers
// receive a copy and may not reach the catalog itself.
func PermissionsFor(role Role) []Permission {
	group, ok := rolePermissions[role]
	if !ok {
		return []Permission{}
	}
	out := make([]Permission, len(group))
	copy(out, group)
	return out
}
