package school

import (
	"sort"
	"time"

	"github.com/trezcool/shule/core"
)

// averagePercentage returns false when `grades` is empty.
func averagePercentage(grades []Grade) (float64, bool) {
	if len(grades) == 0 {
		return 0, false
	}
	var sum float64
	for _, g := range grades {
		sum += g.Percentage()
	}
	return sum / float64(len(grades)), true
}

// StudentGPA averages the grade percentages of a student for one semester of an academic year.
func (r *Registry) StudentGPA(studentID, semester, academicYear string) (float64, bool) {
	r.RLock()
	defer r.RUnlock()
	return averagePercentage(filterGrades(r.grades, func(g Grade) bool {
		return g.StudentID == studentID && g.Semester == semester && g.AcademicYear == academicYear
	}))
}

func (r *Registry) OverallGPA(studentID string) (float64, bool) {
	r.RLock()
	defer r.RUnlock()
	return averagePercentage(filterGrades(r.grades, func(g Grade) bool { return g.StudentID == studentID }))
}

func (r *Registry) SubjectGPA(studentID, subject string) (float64, bool) {
	r.RLock()
	defer r.RUnlock()
	return averagePercentage(filterGrades(r.grades, func(g Grade) bool {
		return g.StudentID == studentID && g.Subject == subject
	}))
}

// AttendancePercentage is the share of Present and Late records dated within [start, end].
func (r *Registry) AttendancePercentage(studentID string, start, end time.Time) (float64, bool) {
	from, to := core.DateOf(start), core.DateOf(end)
	r.RLock()
	defer r.RUnlock()

	var total, counted int
	for _, a := range r.attendance {
		if a.StudentID != studentID || a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		total++
		if a.Counts() {
			counted++
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(counted) / float64(total) * 100, true
}

// Fees

// AddFeePayment adds `amount` to what the student paid. The amount is not checked.
func (r *Registry) AddFeePayment(studentID string, amount float64) bool {
	r.Lock()
	defer r.Unlock()

	s, ok := r.students[studentID]
	if !ok {
		return false
	}
	s.FeesPaid += amount
	return true
}

func (r *Registry) SetStudentFees(studentID string, total float64) bool {
	r.Lock()
	defer r.Unlock()

	s, ok := r.students[studentID]
	if !ok {
		return false
	}
	s.FeesTotal = total
	return true
}

func (r *Registry) StudentsWithOutstandingFees() []Student {
	r.RLock()
	defer r.RUnlock()
	return r.queryStudents(func(s Student) bool { return s.OutstandingFees() > 0 })
}

// Distinct sets

func (r *Registry) GradeLevels() []string {
	r.RLock()
	defer r.RUnlock()

	set := make(map[string]struct{})
	for _, s := range r.students {
		if s.GradeLevel != "" {
			set[s.GradeLevel] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Subjects lists the subjects taught or graded.
func (r *Registry) Subjects() []string {
	r.RLock()
	defer r.RUnlock()

	set := make(map[string]struct{})
	for _, t := range r.teachers {
		if t.Subject != "" {
			set[t.Subject] = struct{}{}
		}
	}
	for _, g := range r.grades {
		if g.Subject != "" {
			set[g.Subject] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Orphans

// OrphanedGradeStudents lists, in first-seen order, the unknown student ids grades refer to.
func (r *Registry) OrphanedGradeStudents() []string {
	r.RLock()
	defer r.RUnlock()

	ids := make([]string, 0, len(r.grades))
	for _, g := range r.grades {
		ids = append(ids, g.StudentID)
	}
	return r.orphaned(ids)
}

// OrphanedAttendanceStudents lists, in first-seen order, the unknown student ids attendance refers to.
func (r *Registry) OrphanedAttendanceStudents() []string {
	r.RLock()
	defer r.RUnlock()

	ids := make([]string, 0, len(r.attendance))
	for _, a := range r.attendance {
		ids = append(ids, a.StudentID)
	}
	return r.orphaned(ids)
}

func (r *Registry) orphaned(studentIDs []string) []string {
	seen := make(map[string]struct{})
	orphans := make([]string, 0)
	for _, id := range studentIDs {
		if _, ok := r.students[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		orphans = append(orphans, id)
	}
	return orphans
}

// CleanupOrphanedRecords drops grades and attendance of unknown students and returns how many went.
func (r *Registry) CleanupOrphanedRecords() (grades, attendance int) {
	r.Lock()
	defer r.Unlock()

	nGrades, nAttendance := len(r.grades), len(r.attendance)
	r.grades = filterGrades(r.grades, func(g Grade) bool {
		_, ok := r.students[g.StudentID]
		return ok
	})
	r.attendance = filterAttendance(r.attendance, func(a Attendance) bool {
		_, ok := r.students[a.StudentID]
		return ok
	})
	return nGrades - len(r.grades), nAttendance - len(r.attendance)
}

// Summary counts the registry content.
func (r *Registry) Summary() Summary {
	r.RLock()
	defer r.RUnlock()

	sum := Summary{
		Students:         len(r.students),
		StudentsByStatus: make(map[string]int),
		Teachers:         len(r.teachers),
		Grades:           len(r.grades),
		Attendance:       len(r.attendance),
	}
	for _, s := range r.students {
		sum.StudentsByStatus[s.Status]++
		if out := s.OutstandingFees(); out > 0 {
			sum.OutstandingFees += out
		}
	}
	for _, g := range r.grades {
		if _, ok := r.students[g.StudentID]; !ok {
			sum.OrphanedGrades++
		}
	}
	for _, a := range r.attendance {
		if _, ok := r.students[a.StudentID]; !ok {
			sum.OrphanedAttendance++
		}
	}
	return sum
}

// Merge restores every record of `other` into the registry.
func (r *Registry) Merge(other *Registry) {
	students, teachers := other.AllStudents(), other.AllTeachers()
	grades, attendance := other.AllGrades(), other.AllAttendance()

	r.Lock()
	defer r.Unlock()
	for _, s := range students {
		r.addExistingStudent(s)
	}
	for _, t := range teachers {
		r.addExistingTeacher(t)
	}
	for _, g := range grades {
		r.addExistingGrade(g)
	}
	for _, a := range attendance {
		r.addExistingAttendance(a)
	}
}
