package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage"
	"github.com/trezcool/shule/tests"
)

func openGateway(t *testing.T) *Gateway {
	t.Helper()
	gw, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "shule.db"), core.NopLogger{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}

func TestGateway_roundTrip(t *testing.T) {
	testutil.FixClock(t, "2024-09-01")
	reg, users := testutil.SchoolFixture(t)
	gw := openGateway(t)
	ctx := context.Background()

	// saving twice upserts the buckets
	for i := 0; i < 2; i++ {
		if err := gw.Save(ctx, reg, users); err != nil {
			t.Fatalf("Save() #%d error = %v", i+1, err)
		}
	}

	gotReg, gotUsers := school.NewRegistry(), user.NewStore()
	if err := gw.Load(ctx, gotReg, gotUsers); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	testutil.AssertSameState(t, reg, gotReg, users, gotUsers)

	usr, err := gotUsers.Get("baraka")
	if err != nil {
		t.Fatalf("Get(baraka) error = %v", err)
	}
	if err := usr.CheckPassword("chaki#42"); err != nil {
		t.Errorf("CheckPassword() after Load() error = %v", err)
	}
	if id := gotReg.AddStudent(school.NewStudent{FirstName: "N", LastName: "W", DateOfBirth: testutil.Date(t, "2012-01-01")}); id != "STU1002" {
		t.Errorf("AddStudent() after Load() = %s, want STU1002", id)
	}
}

func TestGateway_Load_noData(t *testing.T) {
	gw := openGateway(t)
	reg, users := school.NewRegistry(), user.NewStore()
	if err := gw.Load(context.Background(), reg, users); !errors.Is(err, storage.ErrNoData) {
		t.Errorf("Load() error = %v, want %v", err, storage.ErrNoData)
	}
}

func TestGateway_Save_empty(t *testing.T) {
	gw := openGateway(t)
	ctx := context.Background()
	if err := gw.Save(ctx, school.NewRegistry(), user.NewStore()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// an empty save is still a save
	reg, users := school.NewRegistry(), user.NewStore()
	if err := gw.Load(ctx, reg, users); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n := len(reg.AllStudents()) + users.Len(); n != 0 {
		t.Errorf("Load() restored %d records, want 0", n)
	}
}

func TestGateway_Load_corrupt(t *testing.T) {
	gw := openGateway(t)
	ctx := context.Background()
	if _, err := gw.db.ExecContext(ctx,
		`INSERT INTO state(bucket, payload, updated_at) VALUES('students', '{not json', '')`); err != nil {
		t.Fatalf("seeding state failed: %v", err)
	}
	reg, users := school.NewRegistry(), user.NewStore()
	if err := gw.Load(ctx, reg, users); err == nil {
		t.Fatal("Load() error = nil, want decoding error")
	}
	if n := len(reg.AllStudents()); n != 0 {
		t.Errorf("Load() restored %d students from a corrupt state, want 0", n)
	}
}
