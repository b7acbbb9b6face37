package user

type Permission string

const (
	ManageStudents   Permission = "MANAGE_STUDENTS"
	ManageTeachers   Permission = "MANAGE_TEACHERS"
	ManageGrades     Permission = "MANAGE_GRADES"
	ManageAttendance Permission = "MANAGE_ATTENDANCE"
	ManageFees       Permission = "MANAGE_FEES"
	ViewGrades       Permission = "VIEW_GRADES"
	ViewAttendance   Permission = "VIEW_ATTENDANCE"
	ViewFees         Permission = "VIEW_FEES"
	ViewOwnData      Permission = "VIEW_OWN_DATA"
)

var permissionRoles = map[Permission][]string{
	ManageStudents:   {RoleAdmin},
	ManageTeachers:   {RoleAdmin},
	ManageFees:       {RoleAdmin},
	ManageGrades:     {RoleAdmin, RoleTeacher},
	ManageAttendance: {RoleAdmin, RoleTeacher},
	ViewGrades:       AllRoles,
	ViewAttendance:   AllRoles,
	ViewFees:         {RoleAdmin, RoleParent},
	ViewOwnData:      {RoleStudent, RoleParent},
}

// RoleHasPermission reports whether `role` is granted `perm`. Unknown permissions are never granted.
func RoleHasPermission(role string, perm Permission) bool {
	for _, r := range permissionRoles[perm] {
		if r == role {
			return true
		}
	}
	return false
}
