package user

import (
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

const adminPwd = "admin123"

func TestMain(m *testing.M) {
	BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewStore(), adminPwd, core.NopLogger{})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func addUser(t *testing.T, svc *Service, uname, pwd, role, assocID string) string {
	t.Helper()
	id, err := svc.AddUser(NewUser{
		Username:     uname,
		Password:     pwd,
		Role:         role,
		FullName:     "Test " + role,
		AssociatedID: assocID,
	})
	if err != nil {
		t.Fatalf("AddUser(%s) error = %v", uname, err)
	}
	return id
}

func TestNewService_seedsAdmin(t *testing.T) {
	svc := newTestService(t)

	admin, err := svc.GetUser(DefaultAdminUsername)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if admin.ID != "USR1000" || admin.Role != RoleAdmin || !admin.IsActive {
		t.Errorf("seeded admin = %+v", admin)
	}
	if string(admin.PasswordHash) == adminPwd {
		t.Error("seeded admin password stored in plaintext")
	}

	// an existing admin is kept
	if _, err := NewService(svc.Store(), "other-pass", core.NopLogger{}); err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc.Store().Len() != 1 {
		t.Errorf("Store().Len() = %d, want 1", svc.Store().Len())
	}
	if !svc.Authenticate(DefaultAdminUsername, adminPwd) {
		t.Error("Authenticate() with the original admin password failed")
	}
}

func TestService_Authenticate(t *testing.T) {
	svc := newTestService(t)
	addUser(t, svc, "mwalimu", "kitabu#7", RoleTeacher, "TEA101")
	addUser(t, svc, "mzazi", "nyumba#9", RoleParent, "STU1001")
	svc.SetActive("mzazi", false)

	tests := []struct {
		name      string
		uname     string
		pwd       string
		want      bool
		wantErr   error
		wantActor string // username of the session after the call
	}{
		{name: "default admin", uname: "admin", pwd: adminPwd, want: true, wantActor: "admin"},
		{name: "wrong password keeps session", uname: "mwalimu", pwd: "nope", wantErr: ErrInvalidCredentials, wantActor: "admin"},
		{name: "unknown user keeps session", uname: "ghost", pwd: "kitabu#7", wantErr: ErrInvalidCredentials, wantActor: "admin"},
		{name: "disabled account", uname: "mzazi", pwd: "nyumba#9", wantErr: ErrAccountDisabled, wantActor: "admin"},
		{name: "teacher", uname: "mwalimu", pwd: "kitabu#7", want: true, wantActor: "mwalimu"},
		{name: "admin again", uname: "admin", pwd: adminPwd, want: true, wantActor: "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(tt.uname, tt.pwd)
			if err != tt.wantErr {
				t.Errorf("Login() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := err == nil; got != tt.want {
				t.Errorf("Login() succeeded = %v, want %v", got, tt.want)
			}
			if got := svc.Current().User.Username; got != tt.wantActor {
				t.Errorf("Current().User.Username = %s, want %s", got, tt.wantActor)
			}
		})
	}

	svc.Logout()
	if svc.IsLoggedIn() || svc.Current() != nil {
		t.Error("Logout() kept the session")
	}
	if svc.HasPermission(ViewGrades) {
		t.Error("HasPermission() without session = true, want false")
	}
}

func TestRoleHasPermission(t *testing.T) {
	all := []string{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}
	tests := []struct {
		perm    Permission
		granted []string
	}{
		{perm: ManageStudents, granted: []string{RoleAdmin}},
		{perm: ManageTeachers, granted: []string{RoleAdmin}},
		{perm: ManageFees, granted: []string{RoleAdmin}},
		{perm: ManageGrades, granted: []string{RoleAdmin, RoleTeacher}},
		{perm: ManageAttendance, granted: []string{RoleAdmin, RoleTeacher}},
		{perm: ViewGrades, granted: all},
		{perm: ViewAttendance, granted: all},
		{perm: ViewFees, granted: []string{RoleAdmin, RoleParent}},
		{perm: ViewOwnData, granted: []string{RoleStudent, RoleParent}},
		{perm: "DELETE_EVERYTHING"},
	}
	for _, tt := range tests {
		t.Run(string(tt.perm), func(t *testing.T) {
			for _, role := range all {
				want := false
				for _, g := range tt.granted {
					if g == role {
						want = true
					}
				}
				sess := NewSession(User{Username: "u", Role: role})
				if got := sess.HasPermission(tt.perm); got != want {
					t.Errorf("HasPermission(%s) for %s = %v, want %v", tt.perm, role, got, want)
				}
			}
			var none *Session
			if none.HasPermission(tt.perm) {
				t.Errorf("HasPermission(%s) without session = true, want false", tt.perm)
			}
		})
	}
}

func TestService_HasPermission_manageStudents(t *testing.T) {
	svc := newTestService(t)
	addUser(t, svc, "mwalimu", "kitabu#7", RoleTeacher, "TEA101")
	addUser(t, svc, "mwanafunzi", "darasa#3", RoleStudent, "STU1001")
	addUser(t, svc, "mzazi", "nyumba#9", RoleParent, "STU1001")

	tests := []struct {
		uname string
		pwd   string
		want  bool
	}{
		{uname: "admin", pwd: adminPwd, want: true},
		{uname: "mwalimu", pwd: "kitabu#7"},
		{uname: "mwanafunzi", pwd: "darasa#3"},
		{uname: "mzazi", pwd: "nyumba#9"},
	}
	for _, tt := range tests {
		t.Run(tt.uname, func(t *testing.T) {
			svc.Logout()
			if !svc.Authenticate(tt.uname, tt.pwd) {
				t.Fatalf("Authenticate(%s) failed", tt.uname)
			}
			if got := svc.HasPermission(ManageStudents); got != tt.want {
				t.Errorf("HasPermission(MANAGE_STUDENTS) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_CanView(t *testing.T) {
	tests := []struct {
		name      string
		usr       User
		studentID string
		want      bool
	}{
		{name: "admin", usr: User{Role: RoleAdmin}, studentID: "STU1001", want: true},
		{name: "teacher", usr: User{Role: RoleTeacher, AssociatedID: "TEA101"}, studentID: "STU1001", want: true},
		{name: "own record", usr: User{Role: RoleStudent, AssociatedID: "STU1001"}, studentID: "STU1001", want: true},
		{name: "other record", usr: User{Role: RoleStudent, AssociatedID: "STU1001"}, studentID: "STU1002"},
		{name: "child record", usr: User{Role: RoleParent, AssociatedID: "STU1002"}, studentID: "STU1002", want: true},
		{name: "unlinked parent", usr: User{Role: RoleParent}, studentID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewSession(tt.usr).CanView(tt.studentID); got != tt.want {
				t.Errorf("CanView(%s) = %v, want %v", tt.studentID, got, tt.want)
			}
		})
	}
}

func TestService_AddUser(t *testing.T) {
	svc := newTestService(t)

	first := addUser(t, svc, "mwalimu", "kitabu#7", RoleTeacher, "TEA101")
	if first != "USR1001" {
		t.Errorf("AddUser() = %s, want USR1001", first)
	}
	// same username overwrites
	second := addUser(t, svc, "mwalimu", "ubao#55", RoleTeacher, "TEA102")
	if second != "USR1002" {
		t.Errorf("AddUser() = %s, want USR1002", second)
	}
	if svc.Store().Len() != 2 {
		t.Errorf("Store().Len() = %d, want 2", svc.Store().Len())
	}
	usr, _ := svc.GetUser("mwalimu")
	if usr.ID != second || usr.AssociatedID != "TEA102" {
		t.Errorf("GetUser() = %+v, want the overwriting user", usr)
	}

	// no policy applies in this layer
	tests := []struct {
		uname, pwd string
	}{
		{uname: "john.doe", pwd: "pass"},
		{uname: "parent1", pwd: "pass"},
		{uname: "amani", pwd: "amani123"},
	}
	for _, tt := range tests {
		id, err := svc.AddUser(NewUser{Username: tt.uname, Password: tt.pwd, Role: RoleParent})
		if err != nil || id == "" {
			t.Errorf("AddUser(%s) = %q, %v, want an id", tt.uname, id, err)
			continue
		}
		if !svc.Authenticate(tt.uname, tt.pwd) {
			t.Errorf("Authenticate(%s) = false after AddUser()", tt.uname)
		}
	}
}

func TestNewUser_Validate(t *testing.T) {
	tests := []struct {
		name      string
		nu        NewUser
		wantField string
	}{
		{name: "valid", nu: NewUser{Username: "mwalimu", Password: "kitabu#7", Role: RoleTeacher, FullName: "Baraka Otieno"}},
		{name: "missing username", nu: NewUser{Password: "kitabu#7", Role: RoleAdmin, FullName: "X"}, wantField: "username"},
		{name: "unknown role", nu: NewUser{Username: "x", Password: "kitabu#7", Role: "Janitor", FullName: "X"}, wantField: "role"},
		{name: "blank name", nu: NewUser{Username: "x", Password: "kitabu#7", Role: RoleAdmin, FullName: "  "}, wantField: "full_name"},
		{name: "delimiter in name", nu: NewUser{Username: "x", Password: "kitabu#7", Role: RoleAdmin, FullName: "A | B"}, wantField: "full_name"},
		{name: "bad email", nu: NewUser{Username: "x", Password: "kitabu#7", Role: RoleAdmin, FullName: "X", Email: "nope"}, wantField: "email"},
		{name: "short password", nu: NewUser{Username: "x", Password: "abc", Role: RoleAdmin, FullName: "X"}, wantField: "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			vErr, ok := err.(*core.ValidationError)
			if !ok {
				t.Fatalf("Validate() error = %v, want *core.ValidationError", err)
			}
			if _, ok := vErr.Field(tt.wantField); !ok {
				t.Errorf("Validate() fields = %+v, want %s", vErr.Fields, tt.wantField)
			}
		})
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc := newTestService(t)
	addUser(t, svc, "mwalimu", "kitabu#7", RoleTeacher, "TEA101")

	tests := []struct {
		name  string
		uname string
		old   string
		new   string
		want  bool
	}{
		{name: "unknown user", uname: "ghost", old: "kitabu#7", new: "x"},
		{name: "wrong old password", uname: "mwalimu", old: "nope", new: "x"},
		{name: "no strength check", uname: "mwalimu", old: "kitabu#7", new: "x", want: true},
		{name: "old password no longer works", uname: "mwalimu", old: "kitabu#7", new: "y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.ChangePassword(tt.uname, tt.old, tt.new); got != tt.want {
				t.Errorf("ChangePassword() = %v, want %v", got, tt.want)
			}
		})
	}
	if !svc.Authenticate("mwalimu", "x") {
		t.Error("Authenticate() with the changed password failed")
	}
}

func TestService_UpdatePassword(t *testing.T) {
	svc := newTestService(t)
	addUser(t, svc, "mwalimu", "kitabu#7", RoleTeacher, "TEA101")

	tests := []struct {
		name      string
		pc        PasswordChange
		wantErr   error
		wantField string
	}{
		{name: "too short", pc: PasswordChange{Username: "mwalimu", OldPassword: "kitabu#7", NewPassword: "ab1", NewPasswordConfirm: "ab1"}, wantField: "new_password"},
		{name: "whitespace", pc: PasswordChange{Username: "mwalimu", OldPassword: "kitabu#7", NewPassword: "ubao 55x", NewPasswordConfirm: "ubao 55x"}, wantField: "new_password"},
		{name: "similar to username", pc: PasswordChange{Username: "mwalimu", OldPassword: "kitabu#7", NewPassword: "mwalimu1", NewPasswordConfirm: "mwalimu1"}, wantField: "new_password"},
		{name: "confirmation mismatch", pc: PasswordChange{Username: "mwalimu", OldPassword: "kitabu#7", NewPassword: "ubao#55", NewPasswordConfirm: "ubao#56"}, wantField: "new_password_confirm"},
		{name: "wrong old password", pc: PasswordChange{Username: "mwalimu", OldPassword: "nope", NewPassword: "ubao#55", NewPasswordConfirm: "ubao#55"}, wantErr: ErrInvalidCredentials},
		{name: "valid", pc: PasswordChange{Username: "mwalimu", OldPassword: "kitabu#7", NewPassword: "ubao#55", NewPasswordConfirm: "ubao#55"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdatePassword(tt.pc)
			if tt.wantField != "" {
				vErr, ok := err.(*core.ValidationError)
				if !ok {
					t.Fatalf("UpdatePassword() error = %v, want *core.ValidationError", err)
				}
				if _, ok := vErr.Field(tt.wantField); !ok {
					t.Errorf("UpdatePassword() fields = %+v, want %s", vErr.Fields, tt.wantField)
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("UpdatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_Restore(t *testing.T) {
	store := NewStore()
	store.Restore(User{ID: "USR1040", Username: "old"})

	if got := store.Create(User{Username: "new"}).ID; got != "USR1041" {
		t.Errorf("Create() after Restore() id = %s, want USR1041", got)
	}
	all := store.All()
	if len(all) != 2 || all[0].Username != "old" || all[1].Username != "new" {
		t.Errorf("All() = %+v, want [old new]", all)
	}
}

func TestImportPassword(t *testing.T) {
	hashed, err := ImportPassword("legacy123")
	if err != nil {
		t.Fatalf("ImportPassword() error = %v", err)
	}
	usr := User{PasswordHash: hashed}
	if err := usr.CheckPassword("legacy123"); err != nil {
		t.Errorf("CheckPassword() on imported plaintext error = %v", err)
	}

	again, err := ImportPassword(string(hashed))
	if err != nil {
		t.Fatalf("ImportPassword() error = %v", err)
	}
	if string(again) != string(hashed) {
		t.Error("ImportPassword() rehashed an existing hash")
	}
}
