package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/storage/flatfile"
	"github.com/trezcool/shule/tests"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

// setup saves the school fixture into a temp data dir and starts a CLI on it.
func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	t.Helper()
	testutil.FixClock(t, "2024-09-10")
	reg, users := testutil.SchoolFixture(t)

	conf := *core.Conf
	dir := t.TempDir()
	conf.DataDir = filepath.Join(dir, "school_data")
	conf.Storage.SQLitePath = filepath.Join(dir, "shule.db")
	conf.Metrics.Textfile = filepath.Join(dir, "shule.prom")
	conf.AdminPassword = testutil.AdminPassword

	ctx := context.Background()
	gw := flatfile.New(conf.DataDir, core.NopLogger{})
	if err := gw.Save(ctx, reg, users); err != nil {
		t.Fatalf("saving fixture failed: %v", err)
	}
	out := new(bytes.Buffer)
	cli, err := newCommandLine(ctx, &conf, gw, core.NopLogger{}, out)
	if err != nil {
		t.Fatalf("newCommandLine() error = %v", err)
	}
	readPassword := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = readPassword })
	return cli, out
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func checkErr(t *testing.T, err error, tt cliTest) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

// reload reads back what the CLI saved.
func reload(t *testing.T, cli *commandLine) (*school.Registry, *user.Store) {
	t.Helper()
	reg, users := school.NewRegistry(), user.NewStore()
	if err := flatfile.New(cli.conf.DataDir, core.NopLogger{}).Load(context.Background(), reg, users); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	return reg, users
}

func Test_commandLine_help(t *testing.T) {
	cli, _ := setup(t)
	mockPassword(cliTest{})

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "resetpassword: no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "resetpassword: no password", args: []string{"resetpassword", "-username", "baraka"}, wantErr: errHelp},
		{name: "adduser: no role", args: []string{"adduser", "-username", "zawadi"}, wantErr: errHelp},
		{name: "stats: no student", args: []string{"stats", "-username", "admin"}, wantErr: errHelp},
		{name: "export: unknown kind", args: []string{"export", "-username", "admin", "-kind", "pdf", "-out", "x"}, wantErr: errHelp},
		{name: "migrate: unknown driver", args: []string{"migrate", "-to", "postgres"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"orphans", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, cli.run(args), tt)
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)
	usr, _ := cli.users.Get("baraka")

	tests := []cliTest{
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "ubao#55"}, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-username", "baraka"}, extra: extra{pwd: "abc"}, wantErr: core.ErrInvalidInput},
		{name: "reset", args: []string{"resetpassword", "-username", "baraka"}, extra: extra{pwd: "ubao#55"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, err, tt)
			if err != nil {
				return
			}
			_, users := reload(t, cli)
			saved, err := users.Get("baraka")
			if err != nil {
				t.Fatalf("Get() failed, %v", err)
			}
			if bytes.Equal(saved.PasswordHash, usr.PasswordHash) {
				t.Error("failed to save the new password")
			}
			if err := saved.CheckPassword("ubao#55"); err != nil {
				t.Errorf("CheckPassword() error = %v", err)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "invalid role", args: []string{"adduser", "-username", "zawadi", "-role", "JANITOR"}, extra: extra{pwd: "darasa#3"}, wantErr: core.ErrInvalidInput},
		{name: "weak password", args: []string{"adduser", "-username", "zawadi", "-role", user.RoleParent, "-name", "Zawadi Juma"}, extra: extra{pwd: "abc"}, wantErr: core.ErrInvalidInput},
		{name: "delimiter in name", args: []string{"adduser", "-username", "zawadi", "-role", user.RoleParent, "-name", "Zawadi | Juma"}, extra: extra{pwd: "darasa#3"}, wantErr: core.ErrInvalidInput},
		{name: "create", args: []string{"adduser", "-username", "zawadi", "-role", user.RoleParent, "-name", "Zawadi Juma", "-associated", "STU1001"}, extra: extra{pwd: "darasa#3"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, err, tt)
			if err != nil {
				return
			}
			_, users := reload(t, cli)
			usr, err := users.Get("zawadi")
			if err != nil {
				t.Fatalf("Get() failed, %v", err)
			}
			if usr.Role != user.RoleParent || usr.AssociatedID != "STU1001" || !usr.IsActive {
				t.Errorf("saved user = %+v", usr)
			}
			if !strings.Contains(out.String(), "user zawadi created with id "+usr.ID) {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func Test_commandLine_addUser_roleUsage(t *testing.T) {
	cli, out := setup(t)
	if err := cli.run([]string{"admin", "adduser", "-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("cli.run() error = %v, want %v", err, flag.ErrHelp)
	}
	// the usage names the roles exactly as the validator accepts them
	for _, role := range user.AllRoles {
		if !strings.Contains(out.String(), role) {
			t.Errorf("usage %q does not mention role %s", out.String(), role)
		}
	}
}

func Test_commandLine_orphans(t *testing.T) {
	cli, out := setup(t)
	cli.reg.AddGrade(school.NewGrade{StudentID: "STU9999", Subject: "Art", Marks: 1, TotalMarks: 2})
	cli.reg.MarkAttendance(school.NewAttendance{StudentID: "STU9998", Date: testutil.Date(t, "2024-09-05"), Status: school.AttendancePresent})

	if err := cli.run([]string{"admin", "orphans"}); err != nil {
		t.Fatalf("orphans error = %v", err)
	}
	for _, want := range []string{"grades of unknown students: STU9999", "attendance of unknown students: STU9998"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output %q does not contain %q", out.String(), want)
		}
	}

	out.Reset()
	if err := cli.run([]string{"admin", "orphans", "-cleanup"}); err != nil {
		t.Fatalf("orphans -cleanup error = %v", err)
	}
	if want := "removed 1 grades and 1 attendance records\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	reg, _ := reload(t, cli)
	if n := len(reg.AllGrades()); n != 2 {
		t.Errorf("saved %d grades, want 2", n)
	}
	if n := len(reg.AllAttendance()); n != 3 {
		t.Errorf("saved %d attendance records, want 3", n)
	}
}

func Test_commandLine_stats(t *testing.T) {
	cli, out := setup(t)
	testutil.CreateUser(t, cli.usrSvc, "nuru", "nyumba#9", user.RoleStudent, "STU2000")

	tests := []struct {
		cliTest
		want    []string
		notWant string
	}{
		{cliTest: cliTest{name: "wrong password", args: []string{"stats", "-username", "admin", "-student", "STU1001"}, extra: extra{pwd: "lol"}, wantErr: user.ErrInvalidCredentials}},
		{cliTest: cliTest{name: "other student", args: []string{"stats", "-username", "nuru", "-student", "STU1001"}, extra: extra{pwd: "nyumba#9"}, wantErr: core.ErrPermissionDenied}},
		{cliTest: cliTest{name: "unknown student", args: []string{"stats", "-username", "admin", "-student", "STU9999"}, extra: extra{pwd: testutil.AdminPassword}, wantErr: school.ErrNotFound}},
		{cliTest: cliTest{name: "bad date", args: []string{"stats", "-username", "admin", "-student", "STU1001", "-from", "yesterday"}, extra: extra{pwd: testutil.AdminPassword}, wantErr: core.ErrInvalidInput}},
		{
			cliTest: cliTest{name: "admin", args: []string{"stats", "-username", "admin", "-student", "STU1001", "-from", "2024-09-01"}, extra: extra{pwd: testutil.AdminPassword}},
			want:    []string{"STU1001 Amani Juma", "GPA Fall 2024: 84.25", "Attendance 2024-09-01..2024-09-10: 66.67", "Outstanding fees: 800.25", "GRD10002"},
		},
		{
			cliTest: cliTest{name: "teacher", args: []string{"stats", "-username", "baraka", "-student", "STU1001"}, extra: extra{pwd: "chaki#42"}},
			want:    []string{"STU1001 Amani Juma", "Overall GPA: 84.25"},
			notWant: "Outstanding fees",
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.cliTest)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			checkErr(t, cli.run(args), tt.cliTest)
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output %q does not contain %q", out.String(), want)
				}
			}
			if tt.notWant != "" && strings.Contains(out.String(), tt.notWant) {
				t.Errorf("output %q contains %q", out.String(), tt.notWant)
			}
		})
	}
}

func Test_commandLine_export(t *testing.T) {
	cli, _ := setup(t)
	dir := t.TempDir()

	tests := []cliTest{
		{name: "teacher cannot export fees", args: []string{"export", "-username", "baraka", "-kind", "fees", "-out", filepath.Join(dir, "denied.xlsx")}, extra: extra{pwd: "chaki#42"}, wantErr: core.ErrPermissionDenied},
		{name: "fees", args: []string{"export", "-username", "admin", "-kind", "fees", "-out", filepath.Join(dir, "fees.xlsx")}, extra: extra{pwd: testutil.AdminPassword}},
		{name: "grades", args: []string{"export", "-username", "baraka", "-kind", "grades", "-out", filepath.Join(dir, "grades.xlsx")}, extra: extra{pwd: "chaki#42"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, err, tt)
			path := args[len(args)-1]
			_, statErr := os.Stat(path)
			if exists := statErr == nil; exists != (err == nil) {
				t.Errorf("workbook exists = %v, want %v", exists, err == nil)
			}
		})
	}
}

func Test_commandLine_metrics(t *testing.T) {
	cli, out := setup(t)
	if err := cli.run([]string{"admin", "metrics"}); err != nil {
		t.Fatalf("metrics error = %v", err)
	}
	b, err := os.ReadFile(cli.conf.Metrics.Textfile)
	if err != nil {
		t.Fatal(err)
	}
	if want := `shule_students{status="Active"} 1`; !strings.Contains(string(b), want) {
		t.Errorf("textfile does not contain %q:\n%s", want, b)
	}
	if !strings.Contains(out.String(), cli.conf.Metrics.Textfile) {
		t.Errorf("output = %q", out.String())
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()
	if err := cli.run([]string{"admin", "migrate", "-to", driverSQLite}); err != nil {
		t.Fatalf("migrate error = %v", err)
	}

	gw, err := database.Open(ctx, cli.conf.Storage.SQLitePath, core.NopLogger{})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer func() { _ = gw.Close() }()
	reg, users := school.NewRegistry(), user.NewStore()
	if err := gw.Load(ctx, reg, users); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	testutil.AssertSameState(t, cli.reg, reg, cli.users, users)
}

// fakeS3 accepts path-style uploads and records their keys.
type fakeS3 struct{ keys []string }

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	_, _ = io.Copy(io.Discard, req.Body)
	f.keys = append(f.keys, strings.TrimPrefix(req.URL.Path, "/"))
	return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
}

func Test_commandLine_backup(t *testing.T) {
	cli, out := setup(t)

	// no bucket configured
	cli.conf.Backup.Bucket = ""
	if err := cli.run([]string{"admin", "backup"}); err == nil {
		t.Fatal("backup without bucket error = nil")
	}

	fake := &fakeS3{}
	backupOptions = []func(*s3.Options){func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
	}}
	t.Cleanup(func() { backupOptions = nil })
	cli.conf.Backup.Bucket = "school-backups"
	cli.conf.Backup.Endpoint = "https://mock.s3.local"
	cli.conf.Backup.PathStyle = true
	cli.conf.Backup.AccessKeyID = "AKIA"
	cli.conf.Backup.SecretAccessKey = "SECRET"

	if err := cli.run([]string{"admin", "backup"}); err != nil {
		t.Fatalf("backup error = %v", err)
	}
	if n := len(fake.keys); n != 5 {
		t.Errorf("uploaded %d files, want 5: %v", n, fake.keys)
	}
	for _, key := range fake.keys {
		if !strings.HasPrefix(key, "school-backups/") || !strings.HasSuffix(key, ".txt") {
			t.Errorf("unexpected object %s", key)
		}
	}
	if n := strings.Count(out.String(), "uploaded "); n != 5 {
		t.Errorf("output lists %d uploads, want 5", n)
	}
}

func Test_commandLine_inventory(t *testing.T) {
	cli, out := setup(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant string
	}{
		{
			name:    "default threshold",
			args:    []string{"inventory"},
			want:    []string{"P001", "Warehouse-B", "Inventory value: 119447.45", "Low stock: P005 Coffee Maker (5 left)"},
			notWant: "Low stock: P002",
		},
		{
			name: "custom threshold",
			args: []string{"inventory", "-threshold", "30"},
			want: []string{"Low stock: P002 MacBook Pro (25 left)", "Low stock: P005 Coffee Maker (5 left)"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			if err := cli.run(args); err != nil {
				t.Fatalf("cli.run() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output %q does not contain %q", out.String(), want)
				}
			}
			if tt.notWant != "" && strings.Contains(out.String(), tt.notWant) {
				t.Errorf("output %q contains %q", out.String(), tt.notWant)
			}
		})
	}
}
