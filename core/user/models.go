package user

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// Roles
const (
	RoleAdmin   = "Admin"
	RoleTeacher = "Teacher"
	RoleStudent = "Student"
	RoleParent  = "Parent"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

	BcryptCost = bcrypt.DefaultCost // configurable
)

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash []byte `json:"-"`
	Role         string `json:"role"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	AssociatedID string `json:"associated_id"` // Student or Teacher record; the child's Student record for parents
	IsActive     bool   `json:"is_active"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), BcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsParent() bool  { return u.Role == RoleParent }

// ImportPassword returns the bcrypt hash to store for a persisted password field.
// Hashes are kept as is, legacy plaintext values get hashed.
func ImportPassword(stored string) ([]byte, error) {
	if _, err := bcrypt.Cost([]byte(stored)); err == nil {
		return []byte(stored), nil
	}
	return bcrypt.GenerateFromPassword([]byte(stored), BcryptCost)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username     string `json:"username" validate:"required,alphanum_"`
	Password     string `json:"password" validate:"required"`
	Role         string `json:"role" validate:"required,role"`
	FullName     string `json:"full_name" validate:"notblank,nodelim"`
	Email        string `json:"email" validate:"omitempty,email,nodelim"`
	AssociatedID string `json:"associated_id" validate:"nodelim"`
}

func (nu *NewUser) Validate() error {
	nu.Username = core.CleanString(nu.Username)
	nu.FullName = core.CleanString(nu.FullName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.AssociatedID = core.CleanString(nu.AssociatedID)
	return core.ValidateStruct(nu)
}

// PasswordChange is what a user provides to replace their own password.
type PasswordChange struct {
	Username           string `json:"username" validate:"required"`
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

func (pc *PasswordChange) Validate() error {
	pc.Username = core.CleanString(pc.Username)
	return core.ValidateStruct(pc)
}
