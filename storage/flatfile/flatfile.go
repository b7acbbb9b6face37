// Package flatfile persists the registries as pipe-delimited text files, one record per line.
package flatfile

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage"
)

const (
	Delimiter = "|"

	StudentsFile   = "students.txt"
	TeachersFile   = "teachers.txt"
	GradesFile     = "grades.txt"
	AttendanceFile = "attendance.txt"
	UsersFile      = "users.txt"
)

// ErrDelimiterInField is returned when a value cannot be written without corrupting its line.
var ErrDelimiterInField = errors.New("field contains the delimiter or a line break")

type Gateway struct {
	dir string
	log core.Logger
}

var _ storage.Gateway = (*Gateway)(nil) // interface compliance check

func New(dir string, logger core.Logger) *Gateway {
	return &Gateway{dir: dir, log: logger}
}

func (gw *Gateway) Dir() string {
	return gw.dir
}

func (gw *Gateway) Close() error {
	return nil
}

// Save writes every file, stopping at the first failure.
func (gw *Gateway) Save(_ context.Context, reg *school.Registry, users *user.Store) error {
	if err := os.MkdirAll(gw.dir, 0o755); err != nil {
		return errors.Wrap(err, "creating data directory")
	}

	files := []struct {
		name   string
		encode func(w *recordWriter) error
	}{
		{StudentsFile, func(w *recordWriter) error { return encodeStudents(w, reg.AllStudents()) }},
		{TeachersFile, func(w *recordWriter) error { return encodeTeachers(w, reg.AllTeachers()) }},
		{GradesFile, func(w *recordWriter) error { return encodeGrades(w, reg.AllGrades()) }},
		{AttendanceFile, func(w *recordWriter) error { return encodeAttendance(w, reg.AllAttendance()) }},
		{UsersFile, func(w *recordWriter) error { return encodeUsers(w, users.All()) }},
	}
	for _, f := range files {
		w := new(recordWriter)
		if err := f.encode(w); err != nil {
			gw.log.Error("save failed", err, map[string]interface{}{"file": f.name})
			return errors.Wrapf(err, "encoding %s", f.name)
		}
		if err := os.WriteFile(filepath.Join(gw.dir, f.name), w.Bytes(), 0o644); err != nil {
			gw.log.Error("save failed", err, map[string]interface{}{"file": f.name})
			return errors.Wrapf(err, "writing %s", f.name)
		}
	}
	gw.log.Debug("data saved", map[string]interface{}{"dir": gw.dir})
	return nil
}

// Load reads every present file into a scratch registry and merges it once all of them parsed.
// A missing directory yields storage.ErrNoData, a missing file an empty category.
func (gw *Gateway) Load(_ context.Context, reg *school.Registry, users *user.Store) error {
	if fi, err := os.Stat(gw.dir); os.IsNotExist(err) {
		return storage.ErrNoData
	} else if err != nil {
		return errors.Wrap(err, "reading data directory")
	} else if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", gw.dir)
	}

	scratch, scratchUsers := school.NewRegistry(), user.NewStore()
	files := []struct {
		name      string
		minFields int
		decode    func(fields []string) error
	}{
		{StudentsFile, studentMinFields, func(f []string) error { return decodeStudent(f, scratch) }},
		{TeachersFile, teacherMinFields, func(f []string) error { return decodeTeacher(f, scratch) }},
		{GradesFile, gradeMinFields, func(f []string) error { return decodeGrade(f, scratch) }},
		{AttendanceFile, attendanceMinFields, func(f []string) error { return decodeAttendance(f, scratch) }},
		{UsersFile, userMinFields, func(f []string) error { return decodeUser(f, scratchUsers) }},
	}
	for _, f := range files {
		if err := gw.readFile(f.name, f.minFields, f.decode); err != nil {
			gw.log.Error("load failed", err, map[string]interface{}{"file": f.name})
			return err
		}
	}

	reg.Merge(scratch)
	users.Merge(scratchUsers)
	gw.log.Debug("data loaded", map[string]interface{}{"dir": gw.dir})
	return nil
}

// readFile hands the fields of every line with at least `minFields` fields to `decode`.
// Shorter lines are skipped.
func (gw *Gateway) readFile(name string, minFields int, decode func([]string) error) error {
	file, err := os.Open(filepath.Join(gw.dir, name))
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "opening %s", name)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, Delimiter)
		if len(fields) < minFields {
			gw.log.Warn("skipping short line", map[string]interface{}{"file": name, "line": lineNo})
			continue
		}
		if err := decode(fields); err != nil {
			return errors.Wrapf(err, "%s:%d", name, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}
	return nil
}

// recordWriter buffers a whole file so nothing is written when a record is invalid.
type recordWriter struct {
	bytes.Buffer
}

func (w *recordWriter) write(fields ...string) error {
	for _, f := range fields {
		if strings.ContainsAny(f, Delimiter+"\r\n") {
			return errors.Wrapf(ErrDelimiterInField, "%q", f)
		}
	}
	w.WriteString(strings.Join(fields, Delimiter))
	w.WriteByte('\n')
	return nil
}
