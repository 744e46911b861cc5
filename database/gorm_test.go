package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/prof-ratings/database"
	"github.com/sahilchouksey/prof-ratings/database/dbtest"
	"github.com/sahilchouksey/prof-ratings/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestGetMissingRecords(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	_, err := store.GetUniversity(ctx, 99)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.GetProfessor(ctx, 99)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.GetCourse(ctx, 99)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestSearchUniversitiesIsCaseInsensitiveContains(t *testing.T) {
	store := dbtest.NewStore(t)
	f := dbtest.Seed(t, store)
	ctx := context.Background()

	found, err := store.SearchUniversities(ctx, "FLOR", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = store.SearchUniversities(ctx, "state", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, f.FloridaState.ID, found[0].ID)

	found, err = store.SearchUniversities(ctx, "flor", 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestSearchEscapesWildcards(t *testing.T) {
	store := dbtest.NewStore(t)
	dbtest.Seed(t, store)
	ctx := context.Background()

	found, err := store.SearchUniversities(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = store.SearchUniversities(ctx, "Flori_a", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestListUniversitiesPaginates(t *testing.T) {
	store := dbtest.NewStore(t)
	f := dbtest.Seed(t, store)
	ctx := context.Background()

	page, total, err := store.ListUniversities(ctx, "", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, f.FloridaState.ID, page[0].ID)

	page, _, err = store.ListUniversities(ctx, "", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, f.Florida.ID, page[0].ID)

	// location matches too
	page, total, err = store.ListUniversities(ctx, "tallahassee", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, page, 1)
}

func TestSearchProfessorsScopedToUniversity(t *testing.T) {
	store := dbtest.NewStore(t)
	f := dbtest.Seed(t, store)
	ctx := context.Background()

	found, err := store.SearchProfessors(ctx, f.Florida.ID, "smi", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, f.Smith.ID, found[0].ID)
	assert.Equal(t, f.Smithson.ID, found[1].ID)

	// first name matches as well as last name
	found, err = store.SearchProfessors(ctx, f.Florida.ID, "CARL", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, f.Smithson.ID, found[0].ID)

	found, err = store.SearchProfessors(ctx, f.FloridaState.ID, "smith", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, f.AnaSmith.ID, found[0].ID)
}

func TestFindByName(t *testing.T) {
	store := dbtest.NewStore(t)
	f := dbtest.Seed(t, store)
	ctx := context.Background()

	u, err := store.FindUniversityByName(ctx, "  florida university ")
	require.NoError(t, err)
	assert.Equal(t, f.Florida.ID, u.ID)

	p, err := store.FindProfessorByName(ctx, f.Florida.ID, "JANE", "smith")
	require.NoError(t, err)
	assert.Equal(t, f.Smith.ID, p.ID)

	_, err = store.FindProfessorByName(ctx, f.FloridaState.ID, "Jane", "Smith")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCourses(t *testing.T) {
	store := dbtest.NewStore(t)
	f := dbtest.Seed(t, store)
	ctx := context.Background()

	courses, err := store.ListCoursesByUniversity(ctx, f.Florida.ID)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "COP 3530", courses[0].Code)
	assert.Equal(t, "MAC 2311", courses[1].Code)

	courses, err = store.ListCoursesByIDs(ctx, []uint{f.MAC2311.ID, f.OtherCourse.ID, 999})
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	courses, err = store.ListCoursesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, courses)
	assert.Empty(t, courses)

	course := &model.Course{UniversityID: f.FloridaState.ID, Code: "ENC 1101"}
	require.NoError(t, store.CreateCourse(ctx, course))
	got, err := store.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "ENC 1101", got.Code)
}

func TestReviewsRoundTripAndOrder(t *testing.T) {
	store := dbtest.NewStore(t)
	f := dbtest.Seed(t, store)
	ctx := context.Background()

	yes := true
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	first := &model.Review{
		CreatedAt:      base,
		ProfessorID:    f.Smith.ID,
		CourseID:       f.COP3530.ID,
		Rating:         5,
		Difficulty:     3,
		WouldTakeAgain: &yes,
		GradeReceived:  "A",
		Body:           "Great",
		Tags:           datatypes.JSON(`["Caring"]`),
	}
	second := &model.Review{
		CreatedAt:   base.Add(time.Hour),
		ProfessorID: f.Smith.ID,
		CourseID:    f.MAC2311.ID,
		Rating:      3,
		Difficulty:  3,
	}
	other := &model.Review{
		CreatedAt:   base.Add(2 * time.Hour),
		ProfessorID: f.Smithson.ID,
		CourseID:    f.MAC2311.ID,
		Rating:      4,
		Difficulty:  2,
	}
	require.NoError(t, store.CreateReview(ctx, first))
	require.NoError(t, store.CreateReview(ctx, second))
	require.NoError(t, store.CreateReview(ctx, other))

	newest, err := store.ListReviewsByProfessor(ctx, f.Smith.ID, database.NewestFirst)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, second.ID, newest[0].ID)
	assert.Nil(t, newest[0].WouldTakeAgain)

	oldest, err := store.ListReviewsByProfessor(ctx, f.Smith.ID, database.OldestFirst)
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	assert.Equal(t, first.ID, oldest[0].ID)
	require.NotNil(t, oldest[0].WouldTakeAgain)
	assert.True(t, *oldest[0].WouldTakeAgain)
	assert.JSONEq(t, `["Caring"]`, string(oldest[0].Tags))
	assert.Equal(t, "Great", oldest[0].Body)

	all, err := store.ListReviewsByProfessors(ctx, []uint{f.Smith.ID, f.Smithson.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := store.ListReviewsByProfessors(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCountReviewsSince(t *testing.T) {
	store := dbtest.NewStore(t)
	f := dbtest.Seed(t, store)
	ctx := context.Background()

	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateReview(ctx, &model.Review{
			CreatedAt:   base.Add(time.Duration(i) * 24 * time.Hour),
			ProfessorID: f.Smith.ID,
			CourseID:    f.COP3530.ID,
			Rating:      4,
			Difficulty:  2,
		}))
	}

	count, err := store.CountReviewsSince(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, database.OldestFirst, database.ParseSortOrder("ASC"))
	assert.Equal(t, database.NewestFirst, database.ParseSortOrder("desc"))
	assert.Equal(t, database.NewestFirst, database.ParseSortOrder(""))
}

func TestSeederIsIdempotent(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, database.RunSeeds(store.DB(), nil))
	require.NoError(t, database.RunSeeds(store.DB(), nil))

	_, total, err := store.ListUniversities(ctx, "", 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	found, err := store.SearchUniversities(ctx, "montréal", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
