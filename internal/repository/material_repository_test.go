package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/akshay-km/studyvault-api/internal/models"
)

func newMaterialRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func materialRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "request_id", "title", "description", "type", "scheme", "semester", "subject_id", "file_url", "uploaded_by", "approved_by", "status", "created_at", "updated_at", "rating_count", "average_rating"})
}

func TestMaterialRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	rows := materialRows().
		AddRow("mat-1", "req-1", "Module 1 Notes", "", "notes", "2019", 3, "CST201", "https://drive.google.com/file/d/abc/view", "user-1", "admin-1", "active", time.Now(), time.Now(), 2, 3.5)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT m.id, m.request_id")).
		WithArgs("active", "2019", 3, "notes").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM materials")).
		WithArgs("active", "2019", 3, "notes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	materials, total, err := repo.List(context.Background(), models.MaterialFilter{
		Scheme:   models.Scheme2019,
		Semester: 3,
		Type:     models.MaterialTypeNotes,
	})
	require.NoError(t, err)
	require.Len(t, materials, 1)
	require.Equal(t, 1, total)
	require.Equal(t, 2, materials[0].RatingCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT m.id, m.request_id")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryCountByType(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	rows := sqlmock.NewRows([]string{"type", "total"}).
		AddRow("notes", 4).
		AddRow("pyq", 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT type, COUNT(*) AS total FROM materials")).
		WithArgs("active", "2019", 3, "CST201").
		WillReturnRows(rows)

	counts, err := repo.CountByType(context.Background(), models.Scheme2019, 3, "CST201")
	require.NoError(t, err)
	require.Equal(t, 4, counts[models.MaterialTypeNotes])
	require.Equal(t, 2, counts[models.MaterialTypePYQ])
	require.Zero(t, counts[models.MaterialTypeSyllabus])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryAddRatingAndSummary(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO material_ratings")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rating := &models.Rating{MaterialID: "mat-1", RatedBy: "user-1", Rating: 4}
	require.NoError(t, repo.AddRating(context.Background(), rating))
	require.NotEmpty(t, rating.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COALESCE(AVG(rating), 0)")).
		WithArgs("mat-1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(2, 3.5))

	count, average, err := repo.RatingSummary(context.Background(), "mat-1")
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, 3.5, average)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM material_ratings")).
		WithArgs("mat-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM materials")).
		WithArgs("mat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "mat-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
