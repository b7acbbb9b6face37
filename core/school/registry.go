package school

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/shule/core"
)

var NowFunc = time.Now // mockable

// id prefixes & counter seeds
const (
	studentPrefix    = "STU"
	teacherPrefix    = "TEA"
	gradePrefix      = "GRD"
	attendancePrefix = "ATT"

	studentBase    = 1000
	teacherBase    = 100
	gradeBase      = 10000
	attendanceBase = 50000
)

// Registry owns every school record. Queries return copies.
type Registry struct {
	sync.RWMutex
	students   map[string]*Student
	teachers   map[string]*Teacher
	grades     []Grade
	attendance []Attendance

	studentSeq    int
	teacherSeq    int
	gradeSeq      int
	attendanceSeq int
}

func NewRegistry() *Registry {
	return &Registry{
		students:      make(map[string]*Student),
		teachers:      make(map[string]*Teacher),
		studentSeq:    studentBase,
		teacherSeq:    teacherBase,
		gradeSeq:      gradeBase,
		attendanceSeq: attendanceBase,
	}
}

func nextID(prefix string, seq *int) string {
	*seq++
	return fmt.Sprintf("%s%d", prefix, *seq)
}

// advance moves `seq` past a restored id.
func advance(id, prefix string, seq *int) {
	if n, ok := core.SeqOf(id, prefix); ok && n > *seq {
		*seq = n
	}
}

func today() time.Time {
	return core.DateOf(NowFunc())
}

// Students

func (r *Registry) AddStudent(ns NewStudent) string {
	r.Lock()
	defer r.Unlock()

	s := Student{
		ID:             nextID(studentPrefix, &r.studentSeq),
		FirstName:      ns.FirstName,
		LastName:       ns.LastName,
		DateOfBirth:    core.DateOf(ns.DateOfBirth),
		Gender:         ns.Gender,
		GradeLevel:     ns.GradeLevel,
		ParentName:     ns.ParentName,
		ParentPhone:    ns.ParentPhone,
		ParentEmail:    ns.ParentEmail,
		Address:        ns.Address,
		EnrollmentDate: today(),
		Status:         StatusActive,
	}
	r.students[s.ID] = &s
	return s.ID
}

// AddExistingStudent restores a persisted student under its own id.
func (r *Registry) AddExistingStudent(s Student) {
	r.Lock()
	defer r.Unlock()
	r.addExistingStudent(s)
}

func (r *Registry) addExistingStudent(s Student) {
	advance(s.ID, studentPrefix, &r.studentSeq)
	r.students[s.ID] = &s
}

func (r *Registry) UpdateStudent(id string, us UpdateStudent) bool {
	r.Lock()
	defer r.Unlock()

	s, ok := r.students[id]
	if !ok {
		return false
	}
	s.FirstName = us.FirstName
	s.LastName = us.LastName
	s.GradeLevel = us.GradeLevel
	s.ParentName = us.ParentName
	s.ParentPhone = us.ParentPhone
	s.ParentEmail = us.ParentEmail
	s.Address = us.Address
	return true
}

func (r *Registry) SetStudentStatus(id, status string) bool {
	r.Lock()
	defer r.Unlock()

	s, ok := r.students[id]
	if !ok {
		return false
	}
	s.Status = status
	return true
}

// RemoveStudent deletes the student along with their grades and attendance.
func (r *Registry) RemoveStudent(id string) bool {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.students[id]; !ok {
		return false
	}
	delete(r.students, id)
	r.grades = filterGrades(r.grades, func(g Grade) bool { return g.StudentID != id })
	r.attendance = filterAttendance(r.attendance, func(a Attendance) bool { return a.StudentID != id })
	return true
}

func (r *Registry) GetStudent(id string) (Student, bool) {
	r.RLock()
	defer r.RUnlock()

	if s, ok := r.students[id]; ok {
		return *s, true
	}
	return Student{}, false
}

func (r *Registry) queryStudents(keep func(Student) bool) []Student {
	students := make([]Student, 0, len(r.students))
	for _, s := range r.students {
		if keep == nil || keep(*s) {
			students = append(students, *s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return core.LessID(students[i].ID, students[j].ID) })
	return students
}

func (r *Registry) AllStudents() []Student {
	r.RLock()
	defer r.RUnlock()
	return r.queryStudents(nil)
}

func (r *Registry) StudentsByGradeLevel(level string) []Student {
	r.RLock()
	defer r.RUnlock()
	return r.queryStudents(func(s Student) bool { return s.GradeLevel == level })
}

// SearchStudents matches `keyword` case-insensitively against full name, id and grade level.
func (r *Registry) SearchStudents(keyword string) []Student {
	kw := strings.ToLower(keyword)
	r.RLock()
	defer r.RUnlock()
	return r.queryStudents(func(s Student) bool {
		return strings.Contains(strings.ToLower(s.FullName()), kw) ||
			strings.Contains(strings.ToLower(s.ID), kw) ||
			strings.Contains(strings.ToLower(s.GradeLevel), kw)
	})
}

// Teachers

func (r *Registry) AddTeacher(nt NewTeacher) string {
	r.Lock()
	defer r.Unlock()

	t := Teacher{
		ID:            nextID(teacherPrefix, &r.teacherSeq),
		FirstName:     nt.FirstName,
		LastName:      nt.LastName,
		Email:         nt.Email,
		Phone:         nt.Phone,
		Subject:       nt.Subject,
		Qualification: nt.Qualification,
		Salary:        nt.Salary,
		HireDate:      today(),
		Status:        StatusActive,
		Address:       nt.Address,
	}
	r.teachers[t.ID] = &t
	return t.ID
}

func (r *Registry) AddExistingTeacher(t Teacher) {
	r.Lock()
	defer r.Unlock()
	r.addExistingTeacher(t)
}

func (r *Registry) addExistingTeacher(t Teacher) {
	advance(t.ID, teacherPrefix, &r.teacherSeq)
	r.teachers[t.ID] = &t
}

func (r *Registry) UpdateTeacher(id string, ut UpdateTeacher) bool {
	r.Lock()
	defer r.Unlock()

	t, ok := r.teachers[id]
	if !ok {
		return false
	}
	t.FirstName = ut.FirstName
	t.LastName = ut.LastName
	t.Email = ut.Email
	t.Phone = ut.Phone
	t.Subject = ut.Subject
	t.Qualification = ut.Qualification
	t.Salary = ut.Salary
	t.Address = ut.Address
	return true
}

// RemoveTeacher never cascades.
func (r *Registry) RemoveTeacher(id string) bool {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.teachers[id]; !ok {
		return false
	}
	delete(r.teachers, id)
	return true
}

func (r *Registry) GetTeacher(id string) (Teacher, bool) {
	r.RLock()
	defer r.RUnlock()

	if t, ok := r.teachers[id]; ok {
		return *t, true
	}
	return Teacher{}, false
}

func (r *Registry) queryTeachers(keep func(Teacher) bool) []Teacher {
	teachers := make([]Teacher, 0, len(r.teachers))
	for _, t := range r.teachers {
		if keep == nil || keep(*t) {
			teachers = append(teachers, *t)
		}
	}
	sort.Slice(teachers, func(i, j int) bool { return core.LessID(teachers[i].ID, teachers[j].ID) })
	return teachers
}

func (r *Registry) AllTeachers() []Teacher {
	r.RLock()
	defer r.RUnlock()
	return r.queryTeachers(nil)
}

// SearchTeachers matches `keyword` case-insensitively against full name, id and subject.
func (r *Registry) SearchTeachers(keyword string) []Teacher {
	kw := strings.ToLower(keyword)
	r.RLock()
	defer r.RUnlock()
	return r.queryTeachers(func(t Teacher) bool {
		return strings.Contains(strings.ToLower(t.FullName()), kw) ||
			strings.Contains(strings.ToLower(t.ID), kw) ||
			strings.Contains(strings.ToLower(t.Subject), kw)
	})
}

// Grades

// AddGrade does not check that the student exists.
func (r *Registry) AddGrade(ng NewGrade) string {
	r.Lock()
	defer r.Unlock()

	g := Grade{
		ID:           nextID(gradePrefix, &r.gradeSeq),
		StudentID:    ng.StudentID,
		Subject:      ng.Subject,
		ExamType:     ng.ExamType,
		Marks:        ng.Marks,
		TotalMarks:   ng.TotalMarks,
		Semester:     ng.Semester,
		AcademicYear: ng.AcademicYear,
	}
	r.grades = append(r.grades, g)
	return g.ID
}

// AddExistingGrade appends a persisted grade. Ids are not deduplicated.
func (r *Registry) AddExistingGrade(g Grade) {
	r.Lock()
	defer r.Unlock()
	r.addExistingGrade(g)
}

func (r *Registry) addExistingGrade(g Grade) {
	advance(g.ID, gradePrefix, &r.gradeSeq)
	r.grades = append(r.grades, g)
}

func (r *Registry) UpdateGrade(id string, gm GradeMarks) bool {
	r.Lock()
	defer r.Unlock()

	for i := range r.grades {
		if r.grades[i].ID == id {
			r.grades[i].Marks = gm.Marks
			r.grades[i].TotalMarks = gm.TotalMarks
			return true
		}
	}
	return false
}

func (r *Registry) RemoveGrade(id string) bool {
	r.Lock()
	defer r.Unlock()

	for i := range r.grades {
		if r.grades[i].ID == id {
			r.grades = append(r.grades[:i], r.grades[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) GetGrade(id string) (Grade, bool) {
	r.RLock()
	defer r.RUnlock()

	for _, g := range r.grades {
		if g.ID == id {
			return g, true
		}
	}
	return Grade{}, false
}

func (r *Registry) AllGrades() []Grade {
	r.RLock()
	defer r.RUnlock()
	return filterGrades(r.grades, nil)
}

func (r *Registry) StudentGrades(studentID string) []Grade {
	r.RLock()
	defer r.RUnlock()
	return filterGrades(r.grades, func(g Grade) bool { return g.StudentID == studentID })
}

// filterGrades returns a new slice holding the grades `keep` accepts, all of them when `keep` is nil.
func filterGrades(grades []Grade, keep func(Grade) bool) []Grade {
	res := make([]Grade, 0, len(grades))
	for _, g := range grades {
		if keep == nil || keep(g) {
			res = append(res, g)
		}
	}
	return res
}

// Attendance

// MarkAttendance does not check that the student exists.
func (r *Registry) MarkAttendance(na NewAttendance) string {
	r.Lock()
	defer r.Unlock()

	a := Attendance{
		ID:        nextID(attendancePrefix, &r.attendanceSeq),
		StudentID: na.StudentID,
		Date:      core.DateOf(na.Date),
		Status:    na.Status,
		Remarks:   na.Remarks,
	}
	r.attendance = append(r.attendance, a)
	return a.ID
}

// AddExistingAttendance appends a persisted record. Ids are not deduplicated.
func (r *Registry) AddExistingAttendance(a Attendance) {
	r.Lock()
	defer r.Unlock()
	r.addExistingAttendance(a)
}

func (r *Registry) addExistingAttendance(a Attendance) {
	advance(a.ID, attendancePrefix, &r.attendanceSeq)
	r.attendance = append(r.attendance, a)
}

func (r *Registry) UpdateAttendance(id, status, remarks string) bool {
	r.Lock()
	defer r.Unlock()

	for i := range r.attendance {
		if r.attendance[i].ID == id {
			r.attendance[i].Status = status
			r.attendance[i].Remarks = remarks
			return true
		}
	}
	return false
}

func (r *Registry) RemoveAttendance(id string) bool {
	r.Lock()
	defer r.Unlock()

	for i := range r.attendance {
		if r.attendance[i].ID == id {
			r.attendance = append(r.attendance[:i], r.attendance[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) AllAttendance() []Attendance {
	r.RLock()
	defer r.RUnlock()
	return filterAttendance(r.attendance, nil)
}

func (r *Registry) StudentAttendance(studentID string) []Attendance {
	r.RLock()
	defer r.RUnlock()
	return filterAttendance(r.attendance, func(a Attendance) bool { return a.StudentID == studentID })
}

func (r *Registry) AttendanceByDate(date time.Time) []Attendance {
	day := core.DateOf(date)
	r.RLock()
	defer r.RUnlock()
	return filterAttendance(r.attendance, func(a Attendance) bool { return a.Date.Equal(day) })
}

func filterAttendance(records []Attendance, keep func(Attendance) bool) []Attendance {
	res := make([]Attendance, 0, len(records))
	for _, a := range records {
		if keep == nil || keep(a) {
			res = append(res, a)
		}
	}
	return res
}
