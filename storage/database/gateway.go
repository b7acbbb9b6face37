package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage"
)

// buckets
const (
	studentsBucket   = "students"
	teachersBucket   = "teachers"
	gradesBucket     = "grades"
	attendanceBucket = "attendance"
	usersBucket      = "users"
)

var NowFunc = time.Now // mockable

// userRecord is the persisted form of a user.User, whose hash is never marshaled otherwise.
type userRecord struct {
	user.User
	PasswordHash string `json:"password_hash"`
}

type snapshot struct {
	Students   []school.Student
	Teachers   []school.Teacher
	Grades     []school.Grade
	Attendance []school.Attendance
	Users      []userRecord
}

type Gateway struct {
	db   *sql.DB
	path string
	log  core.Logger
}

var _ storage.Gateway = (*Gateway)(nil) // interface compliance check

// Open opens, creating it if needed, the database file at `path`.
func Open(ctx context.Context, path string, logger core.Logger) (*Gateway, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Gateway{db: db, path: path, log: logger}, nil
}

func (gw *Gateway) Path() string { return gw.path }

func (gw *Gateway) Close() error {
	return gw.db.Close()
}

// Save upserts every bucket in a single transaction.
func (gw *Gateway) Save(ctx context.Context, reg *school.Registry, users *user.Store) (retErr error) {
	snap := snapshot{
		Students:   reg.AllStudents(),
		Teachers:   reg.AllTeachers(),
		Grades:     reg.AllGrades(),
		Attendance: reg.AllAttendance(),
	}
	for _, u := range users.All() {
		snap.Users = append(snap.Users, userRecord{User: u, PasswordHash: string(u.PasswordHash)})
	}
	payloads := []struct {
		bucket string
		value  interface{}
	}{
		{studentsBucket, snap.Students},
		{teachersBucket, snap.Teachers},
		{gradesBucket, snap.Grades},
		{attendanceBucket, snap.Attendance},
		{usersBucket, snap.Users},
	}

	tx, err := gw.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
			gw.log.Error("save failed", retErr, map[string]interface{}{"path": gw.path})
		}
	}()

	updatedAt := NowFunc().UTC().Format(time.RFC3339)
	for _, p := range payloads {
		data, err := json.Marshal(p.value)
		if err != nil {
			return errors.Wrapf(err, "encoding %s", p.bucket)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO state(bucket, payload, updated_at) VALUES(?, ?, ?)
			ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
			p.bucket, data, updatedAt)
		if err != nil {
			return errors.Wrapf(err, "upserting %s", p.bucket)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing snapshot")
	}
	gw.log.Debug("data saved", map[string]interface{}{"path": gw.path})
	return nil
}

// Load restores the saved buckets. An empty database yields storage.ErrNoData.
func (gw *Gateway) Load(ctx context.Context, reg *school.Registry, users *user.Store) error {
	rows, err := gw.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return errors.Wrap(err, "selecting state")
	}
	defer func() { _ = rows.Close() }()

	var (
		snap  snapshot
		found int
	)
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return errors.Wrap(err, "scanning state")
		}
		var dest interface{}
		switch bucket {
		case studentsBucket:
			dest = &snap.Students
		case teachersBucket:
			dest = &snap.Teachers
		case gradesBucket:
			dest = &snap.Grades
		case attendanceBucket:
			dest = &snap.Attendance
		case usersBucket:
			dest = &snap.Users
		default:
			gw.log.Warn("unknown bucket", map[string]interface{}{"bucket": bucket})
			continue
		}
		if err := json.Unmarshal(payload, dest); err != nil {
			return errors.Wrapf(err, "decoding %s", bucket)
		}
		found++
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "reading state")
	}
	if found == 0 {
		return storage.ErrNoData
	}

	scratch, scratchUsers := school.NewRegistry(), user.NewStore()
	for _, s := range snap.Students {
		scratch.AddExistingStudent(s)
	}
	for _, t := range snap.Teachers {
		scratch.AddExistingTeacher(t)
	}
	for _, g := range snap.Grades {
		scratch.AddExistingGrade(g)
	}
	for _, a := range snap.Attendance {
		scratch.AddExistingAttendance(a)
	}
	for _, rec := range snap.Users {
		usr := rec.User
		if usr.PasswordHash, err = user.ImportPassword(rec.PasswordHash); err != nil {
			return errors.Wrapf(err, "hashing password of %s", usr.Username)
		}
		scratchUsers.Restore(usr)
	}
	reg.Merge(scratch)
	users.Merge(scratchUsers)
	gw.log.Debug("data loaded", map[string]interface{}{"path": gw.path})
	return nil
}
