// Package dbtest opens throwaway in-memory stores for tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sahilchouksey/prof-ratings/database"
	"github.com/sahilchouksey/prof-ratings/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewStore returns a migrated GORMStore backed by a private in-memory SQLite
// database. The database is closed when the test ends.
func NewStore(t testing.TB) *database.GORMStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// every connection to :memory: is a new database
	sqlDB.SetMaxOpenConns(1)

	store := database.NewGORMStore(db, nil)
	if err := store.Init(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Fixture is a small data set shared by store and service tests
type Fixture struct {
	Florida      model.University
	FloridaState model.University
	COP3530      model.Course
	MAC2311      model.Course
	OtherCourse  model.Course // belongs to FloridaState
	Smith        model.Professor
	Smithson     model.Professor
	AnaSmith     model.Professor // at FloridaState
}

// Seed inserts the fixture through the store's GORM handle
func Seed(t testing.TB, store *database.GORMStore) Fixture {
	t.Helper()
	db := store.DB()
	f := Fixture{
		Florida:      model.University{Name: "Florida University", Location: "Miami, FL", Country: "United States"},
		FloridaState: model.University{Name: "Florida State University", Location: "Tallahassee, FL", Country: "United States"},
	}
	must(t, db.Create(&f.Florida).Error)
	must(t, db.Create(&f.FloridaState).Error)

	f.COP3530 = model.Course{UniversityID: f.Florida.ID, Code: "COP 3530"}
	f.MAC2311 = model.Course{UniversityID: f.Florida.ID, Code: "MAC 2311"}
	f.OtherCourse = model.Course{UniversityID: f.FloridaState.ID, Code: "PHY 2048"}
	must(t, db.Create(&f.COP3530).Error)
	must(t, db.Create(&f.MAC2311).Error)
	must(t, db.Create(&f.OtherCourse).Error)

	f.Smith = model.Professor{UniversityID: f.Florida.ID, FirstName: "Jane", LastName: "Smith", Department: "Computer Science"}
	f.Smithson = model.Professor{UniversityID: f.Florida.ID, FirstName: "Carlos", LastName: "Smithson", Department: "Mathematics"}
	f.AnaSmith = model.Professor{UniversityID: f.FloridaState.ID, FirstName: "Ana", LastName: "Smith", Department: "Physics"}
	must(t, db.Create(&f.Smith).Error)
	must(t, db.Create(&f.Smithson).Error)
	must(t, db.Create(&f.AnaSmith).Error)
	return f
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
}
