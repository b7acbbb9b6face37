package testutil

import (
	"reflect"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

const AdminPassword = "admin123"

// FixClock makes the registries believe today is `day` for the rest of the test.
func FixClock(t *testing.T, day string) time.Time {
	t.Helper()
	now, err := core.ParseDate(day)
	if err != nil {
		t.Fatalf("FixClock() failed: %v", err)
	}
	school.NowFunc = func() time.Time { return now }
	user.NowFunc = func() time.Time { return now }
	t.Cleanup(func() {
		school.NowFunc = time.Now
		user.NowFunc = time.Now
	})
	return now
}

// FastHashing lowers the bcrypt cost for the rest of the test.
func FastHashing(t *testing.T) {
	t.Helper()
	cost := user.BcryptCost
	user.BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { user.BcryptCost = cost })
}

func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("Date(%s) failed: %v", s, err)
	}
	return d
}

func NewUserService(t *testing.T, store *user.Store) *user.Service {
	t.Helper()
	svc, err := user.NewService(store, AdminPassword, core.NopLogger{})
	if err != nil {
		t.Fatalf("NewUserService() failed: %v", err)
	}
	return svc
}

func CreateUser(t *testing.T, svc *user.Service, uname, pwd, role, assocID string) user.User {
	t.Helper()
	_, err := svc.AddUser(user.NewUser{
		Username:     uname,
		Password:     pwd,
		Role:         role,
		FullName:     "Test " + role,
		Email:        uname + "@school.test",
		AssociatedID: assocID,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := svc.GetUser(uname)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, reg *school.Registry, first, last, level string) school.Student {
	t.Helper()
	id := reg.AddStudent(school.NewStudent{
		FirstName:   first,
		LastName:    last,
		DateOfBirth: Date(t, "2011-03-14"),
		Gender:      "M",
		GradeLevel:  level,
		ParentName:  "Rehema " + last,
		ParentPhone: "+254700000000",
		ParentEmail: "parent@school.test",
		Address:     "Moi Avenue, Nairobi",
	})
	s, _ := reg.GetStudent(id)
	return s
}

// SchoolFixture builds 1 student, 1 teacher, 2 grades, 3 attendance records and 2 users.
func SchoolFixture(t *testing.T) (*school.Registry, *user.Store) {
	t.Helper()
	FastHashing(t)

	reg := school.NewRegistry()
	s := CreateStudent(t, reg, "Amani", "Juma", "Grade 5")
	reg.SetStudentFees(s.ID, 1500.5)
	reg.AddFeePayment(s.ID, 700.25)
	reg.SetStudentStatus(s.ID, school.StatusActive)

	tch := reg.AddTeacher(school.NewTeacher{
		FirstName:     "Baraka",
		LastName:      "Otieno",
		Email:         "baraka@school.test",
		Phone:         "+254711111111",
		Subject:       "Mathematics",
		Qualification: "B.Ed",
		Salary:        55000,
		Address:       "Kisumu",
	})

	reg.AddGrade(school.NewGrade{StudentID: s.ID, Subject: "Mathematics", ExamType: "Midterm", Marks: 78.5, TotalMarks: 100, Semester: "Fall", AcademicYear: "2024"})
	reg.AddGrade(school.NewGrade{StudentID: s.ID, Subject: "English", ExamType: "Final", Marks: 45, TotalMarks: 50, Semester: "Fall", AcademicYear: "2024"})

	reg.MarkAttendance(school.NewAttendance{StudentID: s.ID, Date: Date(t, "2024-09-02"), Status: school.AttendancePresent})
	reg.MarkAttendance(school.NewAttendance{StudentID: s.ID, Date: Date(t, "2024-09-03"), Status: school.AttendanceLate, Remarks: "bus delayed"})
	reg.MarkAttendance(school.NewAttendance{StudentID: s.ID, Date: Date(t, "2024-09-04"), Status: school.AttendanceAbsent})

	store := user.NewStore()
	svc := NewUserService(t, store)
	CreateUser(t, svc, "baraka", "chaki#42", user.RoleTeacher, tch)
	return reg, store
}

// AssertSameState fails unless both registries and stores hold the same records, ids included.
func AssertSameState(t *testing.T, wantReg, gotReg *school.Registry, wantUsers, gotUsers *user.Store) {
	t.Helper()
	compare := func(what string, want, got interface{}) {
		if !reflect.DeepEqual(want, got) {
			t.Errorf("%s differ:\n got: %+v\nwant: %+v", what, got, want)
		}
	}
	compare("students", wantReg.AllStudents(), gotReg.AllStudents())
	compare("teachers", wantReg.AllTeachers(), gotReg.AllTeachers())
	compare("grades", wantReg.AllGrades(), gotReg.AllGrades())
	compare("attendance", wantReg.AllAttendance(), gotReg.AllAttendance())
	compare("users", wantUsers.All(), gotUsers.All())
}
