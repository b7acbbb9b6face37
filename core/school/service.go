package school

import (
	"errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("record not found")
)

const (
	defaultReportDays = 30
	defaultSemester   = "Fall"
	defaultYear       = "2024"
)

// Service validates input, checks permissions of the acting session and filters
// what each role may see before reaching the Registry.
type Service struct {
	reg *Registry
	log core.Logger
}

func NewService(reg *Registry, logger core.Logger) *Service {
	return &Service{reg: reg, log: logger}
}

func (svc *Service) Registry() *Registry {
	return svc.reg
}

func (svc *Service) authorize(sess *user.Session, perm user.Permission) error {
	if !sess.HasPermission(perm) {
		if sess != nil {
			svc.log.Warn("permission denied", sess.User, map[string]interface{}{"permission": string(perm)})
		}
		return core.ErrPermissionDenied
	}
	return nil
}

func found(ok bool) error {
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Students

func (svc *Service) AddStudent(sess *user.Session, ns NewStudent) (string, error) {
	if err := svc.authorize(sess, user.ManageStudents); err != nil {
		return "", err
	}
	if err := ns.Validate(); err != nil {
		return "", err
	}
	id := svc.reg.AddStudent(ns)
	svc.log.Info("student added", sess.User, map[string]interface{}{"id": id})
	return id, nil
}

func (svc *Service) UpdateStudent(sess *user.Session, id string, us UpdateStudent) error {
	if err := svc.authorize(sess, user.ManageStudents); err != nil {
		return err
	}
	if err := us.Validate(); err != nil {
		return err
	}
	return found(svc.reg.UpdateStudent(id, us))
}

func (svc *Service) SetStudentStatus(sess *user.Session, id, status string) error {
	if err := svc.authorize(sess, user.ManageStudents); err != nil {
		return err
	}
	if status = core.CleanString(status); status == "" {
		return core.NewValidationError(core.ErrInvalidInput, core.FieldError{Field: "status", Error: "status must not be blank"})
	}
	return found(svc.reg.SetStudentStatus(id, status))
}

func (svc *Service) RemoveStudent(sess *user.Session, id string) error {
	if err := svc.authorize(sess, user.ManageStudents); err != nil {
		return err
	}
	if !svc.reg.RemoveStudent(id) {
		return ErrNotFound
	}
	svc.log.Info("student removed", sess.User, map[string]interface{}{"id": id})
	return nil
}

// Students lists the students visible to the session.
func (svc *Service) Students(sess *user.Session) ([]Student, error) {
	if sess == nil {
		return nil, core.ErrPermissionDenied
	}
	return svc.visibleStudents(sess, svc.reg.AllStudents()), nil
}

func (svc *Service) SearchStudents(sess *user.Session, keyword string) ([]Student, error) {
	if sess == nil {
		return nil, core.ErrPermissionDenied
	}
	return svc.visibleStudents(sess, svc.reg.SearchStudents(core.CleanString(keyword))), nil
}

func (svc *Service) visibleStudents(sess *user.Session, students []Student) []Student {
	if sess.SeesAll() {
		return students
	}
	res := make([]Student, 0, 1)
	for _, s := range students {
		if sess.CanView(s.ID) {
			res = append(res, s)
		}
	}
	return res
}

// Teachers

func (svc *Service) AddTeacher(sess *user.Session, nt NewTeacher) (string, error) {
	if err := svc.authorize(sess, user.ManageTeachers); err != nil {
		return "", err
	}
	if err := nt.Validate(); err != nil {
		return "", err
	}
	return svc.reg.AddTeacher(nt), nil
}

func (svc *Service) UpdateTeacher(sess *user.Session, id string, ut UpdateTeacher) error {
	if err := svc.authorize(sess, user.ManageTeachers); err != nil {
		return err
	}
	if err := ut.Validate(); err != nil {
		return err
	}
	return found(svc.reg.UpdateTeacher(id, ut))
}

func (svc *Service) RemoveTeacher(sess *user.Session, id string) error {
	if err := svc.authorize(sess, user.ManageTeachers); err != nil {
		return err
	}
	return found(svc.reg.RemoveTeacher(id))
}

func (svc *Service) Teachers(sess *user.Session) ([]Teacher, error) {
	if err := svc.authorize(sess, user.ManageTeachers); err != nil {
		return nil, err
	}
	return svc.reg.AllTeachers(), nil
}

// Grades

func (svc *Service) AddGrade(sess *user.Session, ng NewGrade) (string, error) {
	if err := svc.authorize(sess, user.ManageGrades); err != nil {
		return "", err
	}
	if err := ng.Validate(); err != nil {
		return "", err
	}
	return svc.reg.AddGrade(ng), nil
}

func (svc *Service) UpdateGrade(sess *user.Session, id string, gm GradeMarks) error {
	if err := svc.authorize(sess, user.ManageGrades); err != nil {
		return err
	}
	if err := gm.Validate(); err != nil {
		return err
	}
	return found(svc.reg.UpdateGrade(id, gm))
}

func (svc *Service) RemoveGrade(sess *user.Session, id string) error {
	if err := svc.authorize(sess, user.ManageGrades); err != nil {
		return err
	}
	return found(svc.reg.RemoveGrade(id))
}

// Grades lists the grades visible to the session.
func (svc *Service) Grades(sess *user.Session) ([]Grade, error) {
	if err := svc.authorize(sess, user.ViewGrades); err != nil {
		return nil, err
	}
	if sess.SeesAll() {
		return svc.reg.AllGrades(), nil
	}
	return svc.reg.StudentGrades(sess.User.AssociatedID), nil
}

// Attendance

func (svc *Service) MarkAttendance(sess *user.Session, na NewAttendance) (string, error) {
	if err := svc.authorize(sess, user.ManageAttendance); err != nil {
		return "", err
	}
	if err := na.Validate(); err != nil {
		return "", err
	}
	return svc.reg.MarkAttendance(na), nil
}

func (svc *Service) UpdateAttendance(sess *user.Session, id, status, remarks string) error {
	if err := svc.authorize(sess, user.ManageAttendance); err != nil {
		return err
	}
	ac := AttendanceChange{Status: status, Remarks: remarks}
	if err := ac.Validate(); err != nil {
		return err
	}
	return found(svc.reg.UpdateAttendance(id, ac.Status, ac.Remarks))
}

func (svc *Service) RemoveAttendance(sess *user.Session, id string) error {
	if err := svc.authorize(sess, user.ManageAttendance); err != nil {
		return err
	}
	return found(svc.reg.RemoveAttendance(id))
}

// Attendance lists the attendance records visible to the session.
func (svc *Service) Attendance(sess *user.Session) ([]Attendance, error) {
	if err := svc.authorize(sess, user.ViewAttendance); err != nil {
		return nil, err
	}
	if sess.SeesAll() {
		return svc.reg.AllAttendance(), nil
	}
	return svc.reg.StudentAttendance(sess.User.AssociatedID), nil
}

// Fees

func (svc *Service) RecordPayment(sess *user.Session, studentID string, amount float64) error {
	if err := svc.authorize(sess, user.ManageFees); err != nil {
		return err
	}
	if amount <= 0 {
		return core.NewValidationError(core.ErrInvalidInput, core.FieldError{Field: "amount", Error: "amount must be greater than 0"})
	}
	if !svc.reg.AddFeePayment(studentID, amount) {
		return ErrNotFound
	}
	svc.log.Info("fee payment recorded", sess.User, map[string]interface{}{"student_id": studentID, "amount": amount})
	return nil
}

func (svc *Service) SetFees(sess *user.Session, studentID string, total float64) error {
	if err := svc.authorize(sess, user.ManageFees); err != nil {
		return err
	}
	if total < 0 {
		return core.NewValidationError(core.ErrInvalidInput, core.FieldError{Field: "total", Error: "total must be 0 or greater"})
	}
	return found(svc.reg.SetStudentFees(studentID, total))
}

// FeeAccounts lists the students whose fees the session may see.
func (svc *Service) FeeAccounts(sess *user.Session) ([]Student, error) {
	if err := svc.authorize(sess, user.ViewFees); err != nil {
		return nil, err
	}
	return svc.visibleStudents(sess, svc.reg.AllStudents()), nil
}

func (svc *Service) OutstandingFees(sess *user.Session) ([]Student, error) {
	if err := svc.authorize(sess, user.ViewFees); err != nil {
		return nil, err
	}
	return svc.visibleStudents(sess, svc.reg.StudentsWithOutstandingFees()), nil
}

// Reports

// StudentReport gathers the GPA, attendance and fees of a student the session may see.
func (svc *Service) StudentReport(sess *user.Session, rq ReportQuery) (StudentReport, error) {
	if sess == nil {
		return StudentReport{}, core.ErrPermissionDenied
	}
	if err := rq.Validate(); err != nil {
		return StudentReport{}, err
	}
	if !sess.CanView(rq.StudentID) {
		return StudentReport{}, core.ErrPermissionDenied
	}
	s, ok := svc.reg.GetStudent(rq.StudentID)
	if !ok {
		return StudentReport{}, ErrNotFound
	}

	rep := StudentReport{
		Student:      s,
		Semester:     rq.Semester,
		AcademicYear: rq.AcademicYear,
		To:           core.DateOf(NowFunc()),
	}
	if rep.Semester == "" {
		rep.Semester = defaultSemester
	}
	if rep.AcademicYear == "" {
		rep.AcademicYear = defaultYear
	}
	if rq.To != "" {
		rep.To, _ = core.ParseDate(rq.To) // validated
	}
	rep.From = rep.To.AddDate(0, 0, -defaultReportDays)
	if rq.From != "" {
		rep.From, _ = core.ParseDate(rq.From)
	}
	if rep.From.After(rep.To) {
		return StudentReport{}, core.NewValidationError(core.ErrInvalidInput, core.FieldError{Field: "from", Error: "from must not be after to"})
	}

	rep.GPA, rep.HasGPA = svc.reg.StudentGPA(s.ID, rep.Semester, rep.AcademicYear)
	rep.OverallGPA, rep.HasOverallGPA = svc.reg.OverallGPA(s.ID)
	rep.Attendance, rep.HasAttendance = svc.reg.AttendancePercentage(s.ID, rep.From, rep.To)
	rep.Grades = svc.reg.StudentGrades(s.ID)
	if sess.HasPermission(user.ViewFees) {
		rep.OutstandingFees = s.OutstandingFees()
	}
	return rep, nil
}

// Orphans lists the unknown student ids referenced by grades and attendance.
func (svc *Service) Orphans(sess *user.Session) (grades, attendance []string, err error) {
	if err := svc.authorize(sess, user.ManageStudents); err != nil {
		return nil, nil, err
	}
	return svc.reg.OrphanedGradeStudents(), svc.reg.OrphanedAttendanceStudents(), nil
}

func (svc *Service) CleanupOrphans(sess *user.Session) (grades, attendance int, err error) {
	if err := svc.authorize(sess, user.ManageStudents); err != nil {
		return 0, 0, err
	}
	grades, attendance = svc.reg.CleanupOrphanedRecords()
	svc.log.Info("orphaned records removed", sess.User, map[string]interface{}{"grades": grades, "attendance": attendance})
	return grades, attendance, nil
}
