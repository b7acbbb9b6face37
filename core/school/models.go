package school

import (
	"time"

	"github.com/trezcool/shule/core"
)

// Statuses
const (
	StatusActive    = "Active"
	StatusInactive  = "Inactive"
	StatusGraduated = "Graduated"

	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLate    = "Late"
	AttendanceExcused = "Excused"
)

type Student struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	Gender         string    `json:"gender"`
	GradeLevel     string    `json:"grade_level"`
	ParentName     string    `json:"parent_name"`
	ParentPhone    string    `json:"parent_phone"`
	ParentEmail    string    `json:"parent_email"`
	Address        string    `json:"address"`
	EnrollmentDate time.Time `json:"enrollment_date"`
	Status         string    `json:"status"`
	FeesTotal      float64   `json:"fees_total"`
	FeesPaid       float64   `json:"fees_paid"`
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// OutstandingFees is negative when the student overpaid.
func (s Student) OutstandingFees() float64 {
	return s.FeesTotal - s.FeesPaid
}

type Teacher struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Subject       string    `json:"subject"`
	Qualification string    `json:"qualification"`
	Salary        float64   `json:"salary"`
	HireDate      time.Time `json:"hire_date"`
	Status        string    `json:"status"`
	Address       string    `json:"address"`
}

func (t Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}

type Grade struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"student_id"`
	Subject      string  `json:"subject"`
	ExamType     string  `json:"exam_type"`
	Marks        float64 `json:"marks"`
	TotalMarks   float64 `json:"total_marks"`
	Semester     string  `json:"semester"`
	AcademicYear string  `json:"academic_year"`
}

// Percentage is 0 when TotalMarks is not positive.
func (g Grade) Percentage() float64 {
	if g.TotalMarks <= 0 {
		return 0
	}
	return g.Marks / g.TotalMarks * 100
}

func (g Grade) Letter() string {
	return LetterFor(g.Percentage())
}

// LetterFor maps a percentage to its letter grade. Lower bounds are inclusive.
func LetterFor(pct float64) string {
	switch {
	case pct >= 90:
		return "A+"
	case pct >= 80:
		return "A"
	case pct >= 70:
		return "B"
	case pct >= 60:
		return "C"
	case pct >= 50:
		return "D"
	default:
		return "F"
	}
}

type Attendance struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	Remarks   string    `json:"remarks"`
}

// Counts reports whether the record counts towards attendance.
func (a Attendance) Counts() bool {
	return a.Status == AttendancePresent || a.Status == AttendanceLate
}

// NewStudent contains information needed to enroll a Student.
type NewStudent struct {
	FirstName   string    `json:"first_name" validate:"notblank,nodelim"`
	LastName    string    `json:"last_name" validate:"notblank,nodelim"`
	DateOfBirth time.Time `json:"date_of_birth" validate:"required"`
	Gender      string    `json:"gender" validate:"nodelim"`
	GradeLevel  string    `json:"grade_level" validate:"notblank,nodelim"`
	ParentName  string    `json:"parent_name" validate:"nodelim"`
	ParentPhone string    `json:"parent_phone" validate:"nodelim"`
	ParentEmail string    `json:"parent_email" validate:"omitempty,email,nodelim"`
	Address     string    `json:"address" validate:"nodelim"`
}

func (ns *NewStudent) Validate() error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.GradeLevel = core.CleanString(ns.GradeLevel)
	ns.ParentEmail = core.CleanString(ns.ParentEmail, true /* lower */)
	return core.ValidateStruct(ns)
}

// UpdateStudent holds the mutable fields of a Student.
type UpdateStudent struct {
	FirstName   string `json:"first_name" validate:"notblank,nodelim"`
	LastName    string `json:"last_name" validate:"notblank,nodelim"`
	GradeLevel  string `json:"grade_level" validate:"notblank,nodelim"`
	ParentName  string `json:"parent_name" validate:"nodelim"`
	ParentPhone string `json:"parent_phone" validate:"nodelim"`
	ParentEmail string `json:"parent_email" validate:"omitempty,email,nodelim"`
	Address     string `json:"address" validate:"nodelim"`
}

func (us *UpdateStudent) Validate() error {
	us.FirstName = core.CleanString(us.FirstName)
	us.LastName = core.CleanString(us.LastName)
	us.GradeLevel = core.CleanString(us.GradeLevel)
	us.ParentEmail = core.CleanString(us.ParentEmail, true /* lower */)
	return core.ValidateStruct(us)
}

// NewTeacher contains information needed to hire a Teacher.
type NewTeacher struct {
	FirstName     string  `json:"first_name" validate:"notblank,nodelim"`
	LastName      string  `json:"last_name" validate:"notblank,nodelim"`
	Email         string  `json:"email" validate:"omitempty,email,nodelim"`
	Phone         string  `json:"phone" validate:"nodelim"`
	Subject       string  `json:"subject" validate:"notblank,nodelim"`
	Qualification string  `json:"qualification" validate:"nodelim"`
	Salary        float64 `json:"salary" validate:"gte=0"`
	Address       string  `json:"address" validate:"nodelim"`
}

func (nt *NewTeacher) Validate() error {
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Subject = core.CleanString(nt.Subject)
	return core.ValidateStruct(nt)
}

// UpdateTeacher holds the mutable fields of a Teacher.
type UpdateTeacher NewTeacher

func (ut *UpdateTeacher) Validate() error {
	return (*NewTeacher)(ut).Validate()
}

// NewGrade contains information needed to record a Grade.
type NewGrade struct {
	StudentID    string  `json:"student_id" validate:"notblank,nodelim"`
	Subject      string  `json:"subject" validate:"notblank,nodelim"`
	ExamType     string  `json:"exam_type" validate:"nodelim"`
	Marks        float64 `json:"marks" validate:"gte=0"`
	TotalMarks   float64 `json:"total_marks" validate:"gt=0"`
	Semester     string  `json:"semester" validate:"nodelim"`
	AcademicYear string  `json:"academic_year" validate:"nodelim"`
}

func (ng *NewGrade) Validate() error {
	ng.StudentID = core.CleanString(ng.StudentID)
	ng.Subject = core.CleanString(ng.Subject)
	return core.ValidateStruct(ng)
}

// GradeMarks is what may change on a recorded Grade.
type GradeMarks struct {
	Marks      float64 `json:"marks" validate:"gte=0"`
	TotalMarks float64 `json:"total_marks" validate:"gt=0"`
}

func (gm GradeMarks) Validate() error {
	return core.ValidateStruct(gm)
}

// NewAttendance contains information needed to mark Attendance.
type NewAttendance struct {
	StudentID string    `json:"student_id" validate:"notblank,nodelim"`
	Date      time.Time `json:"date" validate:"required"`
	Status    string    `json:"status" validate:"notblank,nodelim"`
	Remarks   string    `json:"remarks" validate:"nodelim"`
}

func (na *NewAttendance) Validate() error {
	na.StudentID = core.CleanString(na.StudentID)
	na.Status = core.CleanString(na.Status)
	return core.ValidateStruct(na)
}

// AttendanceChange is what may change on a marked Attendance.
type AttendanceChange struct {
	Status  string `json:"status" validate:"notblank,nodelim"`
	Remarks string `json:"remarks" validate:"nodelim"`
}

func (ac *AttendanceChange) Validate() error {
	ac.Status = core.CleanString(ac.Status)
	return core.ValidateStruct(ac)
}

// ReportQuery selects the period of a StudentReport. Empty dates default to the last 30 days.
type ReportQuery struct {
	StudentID    string `json:"student_id" validate:"notblank"`
	Semester     string `json:"semester"`
	AcademicYear string `json:"academic_year"`
	From         string `json:"from" validate:"isodate"`
	To           string `json:"to" validate:"isodate"`
}

func (rq *ReportQuery) Validate() error {
	rq.StudentID = core.CleanString(rq.StudentID)
	return core.ValidateStruct(rq)
}

// StudentReport is the dashboard of a single student.
type StudentReport struct {
	Student         Student
	Semester        string
	AcademicYear    string
	GPA             float64
	HasGPA          bool
	OverallGPA      float64
	HasOverallGPA   bool
	From            time.Time
	To              time.Time
	Attendance      float64
	HasAttendance   bool
	Grades          []Grade
	OutstandingFees float64
}

// Summary counts the registry content.
type Summary struct {
	Students           int
	StudentsByStatus   map[string]int
	Teachers           int
	Grades             int
	Attendance         int
	OutstandingFees    float64
	OrphanedGrades     int
	OrphanedAttendance int
}
