package flatfile

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// minimum fields per line; trailing optional fields follow
const (
	studentMinFields    = 11 // + feesTotal, feesPaid
	teacherMinFields    = 9  // + status
	gradeMinFields      = 8
	attendanceMinFields = 5
	userMinFields       = 7 // + active
)

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", field)
	}
	return v, nil
}

func parseDate(s, field string) (time.Time, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid %s", field)
	}
	return d, nil
}

// students.txt: id|firstName|lastName|dob|gender|grade|parentName|parentPhone|parentEmail|address|status|feesTotal|feesPaid

func encodeStudents(w *recordWriter, students []school.Student) error {
	for _, s := range students {
		err := w.write(s.ID, s.FirstName, s.LastName, core.FormatDate(s.DateOfBirth), s.Gender, s.GradeLevel,
			s.ParentName, s.ParentPhone, s.ParentEmail, s.Address, s.Status,
			formatMoney(s.FeesTotal), formatMoney(s.FeesPaid))
		if err != nil {
			return errors.Wrapf(err, "student %s", s.ID)
		}
	}
	return nil
}

// decodeStudent restores a student. The enrollment date is not persisted and becomes today.
func decodeStudent(f []string, reg *school.Registry) error {
	dob, err := parseDate(f[3], "date of birth")
	if err != nil {
		return err
	}
	s := school.Student{
		ID:             f[0],
		FirstName:      f[1],
		LastName:       f[2],
		DateOfBirth:    dob,
		Gender:         f[4],
		GradeLevel:     f[5],
		ParentName:     f[6],
		ParentPhone:    f[7],
		ParentEmail:    f[8],
		Address:        f[9],
		EnrollmentDate: core.DateOf(school.NowFunc()),
		Status:         f[10],
	}
	if len(f) > 11 {
		if s.FeesTotal, err = parseFloat(f[11], "fees total"); err != nil {
			return err
		}
	}
	if len(f) > 12 {
		if s.FeesPaid, err = parseFloat(f[12], "fees paid"); err != nil {
			return err
		}
	}
	reg.AddExistingStudent(s)
	return nil
}

// teachers.txt: id|firstName|lastName|email|phone|subject|qualification|salary|address|status

func encodeTeachers(w *recordWriter, teachers []school.Teacher) error {
	for _, t := range teachers {
		err := w.write(t.ID, t.FirstName, t.LastName, t.Email, t.Phone, t.Subject, t.Qualification,
			formatMoney(t.Salary), t.Address, t.Status)
		if err != nil {
			return errors.Wrapf(err, "teacher %s", t.ID)
		}
	}
	return nil
}

// decodeTeacher restores a teacher. The hire date is not persisted and becomes today.
func decodeTeacher(f []string, reg *school.Registry) error {
	salary, err := parseFloat(f[7], "salary")
	if err != nil {
		return err
	}
	t := school.Teacher{
		ID:            f[0],
		FirstName:     f[1],
		LastName:      f[2],
		Email:         f[3],
		Phone:         f[4],
		Subject:       f[5],
		Qualification: f[6],
		Salary:        salary,
		HireDate:      core.DateOf(school.NowFunc()),
		Status:        school.StatusActive,
		Address:       f[8],
	}
	if len(f) > 9 {
		t.Status = f[9]
	}
	reg.AddExistingTeacher(t)
	return nil
}

// grades.txt: id|studentId|subject|examType|marks|totalMarks|semester|academicYear

func encodeGrades(w *recordWriter, grades []school.Grade) error {
	for _, g := range grades {
		err := w.write(g.ID, g.StudentID, g.Subject, g.ExamType, formatMoney(g.Marks), formatMoney(g.TotalMarks),
			g.Semester, g.AcademicYear)
		if err != nil {
			return errors.Wrapf(err, "grade %s", g.ID)
		}
	}
	return nil
}

func decodeGrade(f []string, reg *school.Registry) error {
	marks, err := parseFloat(f[4], "marks")
	if err != nil {
		return err
	}
	total, err := parseFloat(f[5], "total marks")
	if err != nil {
		return err
	}
	reg.AddExistingGrade(school.Grade{
		ID:           f[0],
		StudentID:    f[1],
		Subject:      f[2],
		ExamType:     f[3],
		Marks:        marks,
		TotalMarks:   total,
		Semester:     f[6],
		AcademicYear: f[7],
	})
	return nil
}

// attendance.txt: id|studentId|date|status|remarks

func encodeAttendance(w *recordWriter, records []school.Attendance) error {
	for _, a := range records {
		if err := w.write(a.ID, a.StudentID, core.FormatDate(a.Date), a.Status, a.Remarks); err != nil {
			return errors.Wrapf(err, "attendance %s", a.ID)
		}
	}
	return nil
}

func decodeAttendance(f []string, reg *school.Registry) error {
	day, err := parseDate(f[2], "date")
	if err != nil {
		return err
	}
	reg.AddExistingAttendance(school.Attendance{
		ID:        f[0],
		StudentID: f[1],
		Date:      day,
		Status:    f[3],
		Remarks:   f[4],
	})
	return nil
}

// users.txt: id|username|password|role|fullName|email|associatedId|active
// The password field holds the bcrypt hash.

func encodeUsers(w *recordWriter, users []user.User) error {
	for _, u := range users {
		err := w.write(u.ID, u.Username, string(u.PasswordHash), u.Role, u.FullName, u.Email, u.AssociatedID,
			strconv.FormatBool(u.IsActive))
		if err != nil {
			return errors.Wrapf(err, "user %s", u.Username)
		}
	}
	return nil
}

// decodeUser restores a user, hashing legacy plaintext passwords.
func decodeUser(f []string, store *user.Store) error {
	hash, err := user.ImportPassword(f[2])
	if err != nil {
		return errors.Wrapf(err, "hashing password of %s", f[1])
	}
	usr := user.User{
		ID:           f[0],
		Username:     f[1],
		PasswordHash: hash,
		Role:         f[3],
		FullName:     f[4],
		Email:        f[5],
		AssociatedID: f[6],
		IsActive:     true,
	}
	if len(f) > 7 {
		usr.IsActive = strings.EqualFold(strings.TrimSpace(f[7]), "true")
	}
	store.Restore(usr)
	return nil
}
