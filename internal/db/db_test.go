package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/story-annotations/internal/annotation"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return New(sqlDB, Postgres), mock
}

var columns = []string{
	"id", "owner_type", "owner_id", "section_key", "start_offset", "end_offset",
	"annotated_text", "style", "color", "note", "created_at", "updated_at",
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		driver  string
		dsn     string
		dialect Dialect
		wantErr bool
	}{
		{"postgres://u:p@localhost:5432/notes", "pgx", "postgres://u:p@localhost:5432/notes", Postgres, false},
		{"postgresql://localhost/notes", "pgx", "postgresql://localhost/notes", Postgres, false},
		{"sqlite:notes.db", "sqlite3", "file:notes.db", SQLite, false},
		{"sqlite://tmp/notes.db", "sqlite3", "file:tmp/notes.db", SQLite, false},
		{"file:notes.db?_pragma=busy_timeout(5000)", "sqlite3", "file:notes.db?_pragma=busy_timeout(5000)", SQLite, false},
		{"mysql://root@localhost/notes", "", "", "", true},
		{"", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, dsn, dialect, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dsn, dsn)
			assert.Equal(t, tt.dialect, dialect)
		})
	}
}

func TestParseURL_RedactsCredentials(t *testing.T) {
	_, _, _, err := ParseURL("mysql://root:hunter2@db/notes")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS annotations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_annotations_owner").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaFor(t *testing.T) {
	assert.Contains(t, schemaFor(Postgres)[0], "TIMESTAMPTZ")
	assert.Contains(t, schemaFor(SQLite)[0], "DATETIME")
}

func TestListAnnotations(t *testing.T) {
	db, mock := newMock(t)
	ownerID := uuid.New()
	now := time.Now().UTC()
	first, second := uuid.New(), uuid.New()

	rows := sqlmock.NewRows(columns).
		AddRow(first.String(), "story", ownerID.String(), "situation", 0, 4, "Led", "box", "blue", nil, now, now).
		AddRow(second.String(), "story", ownerID.String(), "situation", -1, -1, "", "aside", "gray", "Why now?", now, now)
	mock.ExpectQuery("SELECT (.+) FROM annotations WHERE owner_type = \\$1 AND owner_id = \\$2").
		WithArgs("story", ownerID).
		WillReturnRows(rows)

	anns, err := db.ListAnnotations(context.Background(), annotation.OwnerStory, ownerID)
	require.NoError(t, err)
	require.Len(t, anns, 2)

	assert.Equal(t, first, anns[0].ID)
	assert.Equal(t, annotation.OwnerStory, anns[0].OwnerType)
	assert.Equal(t, ownerID, anns[0].OwnerID)
	assert.Equal(t, annotation.StyleBox, anns[0].Style)
	assert.Nil(t, anns[0].Note)

	assert.True(t, anns[1].IsAside())
	require.NotNil(t, anns[1].Note)
	assert.Equal(t, "Why now?", *anns[1].Note)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAnnotations_Empty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM annotations").WillReturnRows(sqlmock.NewRows(columns))

	anns, err := db.ListAnnotations(context.Background(), annotation.OwnerDerivation, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, anns)
	assert.Empty(t, anns)
}

func TestGetAnnotation_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM annotations WHERE id = \\$1").WillReturnRows(sqlmock.NewRows(columns))

	a, err := db.GetAnnotation(context.Background(), annotation.OwnerStory, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestCreateAnnotation(t *testing.T) {
	db, mock := newMock(t)
	ownerID := uuid.New()
	blue := annotation.ColorBlue

	mock.ExpectExec("INSERT INTO annotations").
		WithArgs(sqlmock.AnyArg(), "derivation", ownerID, "content", 10, 25, "migration of bi", "underline", "blue",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	a, err := db.CreateAnnotation(context.Background(), annotation.OwnerDerivation, ownerID, &annotation.CreateInput{
		SectionKey:    "content",
		StartOffset:   10,
		EndOffset:     25,
		AnnotatedText: "migration of bi",
		Style:         annotation.StyleUnderline,
		Color:         &blue,
		Note:          annotation.StringPtr("  "),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, annotation.ColorBlue, a.Color)
	assert.Nil(t, a.Note)
	assert.False(t, a.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAnnotation_DefaultColor(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO annotations").WillReturnResult(sqlmock.NewResult(1, 1))

	a, err := db.CreateAnnotation(context.Background(), annotation.OwnerStory, uuid.New(), &annotation.CreateInput{
		SectionKey: "result", StartOffset: -1, EndOffset: -1, Style: annotation.StyleAside,
		Note: annotation.StringPtr("Ask about rollout timeline"),
	})
	require.NoError(t, err)
	assert.Equal(t, annotation.DefaultColor, a.Color)
	require.NotNil(t, a.Note)
}

func TestCreateAnnotation_Error(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO annotations").WillReturnError(errors.New("disk full"))

	_, err := db.CreateAnnotation(context.Background(), annotation.OwnerStory, uuid.New(), &annotation.CreateInput{
		SectionKey: "result", StartOffset: 0, EndOffset: 1, Style: annotation.StyleHighlight,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create annotation")
}

func TestUpdateAnnotation(t *testing.T) {
	db, mock := newMock(t)
	ownerID, id := uuid.New(), uuid.New()
	created := time.Now().Add(-time.Hour).UTC()

	mock.ExpectQuery("SELECT (.+) FROM annotations WHERE id = \\$1").
		WithArgs(id, "story", ownerID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id.String(), "story", ownerID.String(), "task", 3, 9, "shipped", "highlight", "yellow", "old", created, created))
	mock.ExpectExec("UPDATE annotations SET note = \\$1, style = \\$2, color = \\$3").
		WithArgs(sqlmock.AnyArg(), "strike-through", "rose", sqlmock.AnyArg(), id, "story", ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	style, color := annotation.StyleStrikeThrough, annotation.ColorRose
	a, err := db.UpdateAnnotation(context.Background(), annotation.OwnerStory, ownerID, id, &annotation.UpdateInput{
		Style: &style, Color: &color, Note: annotation.StringPtr(""),
	})
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, annotation.StyleStrikeThrough, a.Style)
	assert.Nil(t, a.Note)
	assert.True(t, a.UpdatedAt.After(created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAnnotation_Missing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM annotations").WillReturnRows(sqlmock.NewRows(columns))

	a, err := db.UpdateAnnotation(context.Background(), annotation.OwnerStory, uuid.New(), uuid.New(), &annotation.UpdateInput{})
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAnnotation(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"existing", 1, true},
		{"already gone", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			ownerID, id := uuid.New(), uuid.New()
			mock.ExpectExec("DELETE FROM annotations WHERE id = \\$1").
				WithArgs(id, "derivation", ownerID).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			deleted, err := db.DeleteAnnotation(context.Background(), annotation.OwnerDerivation, ownerID, id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, deleted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeleteOwnerAnnotations(t *testing.T) {
	db, mock := newMock(t)
	ownerID := uuid.New()
	mock.ExpectExec("DELETE FROM annotations WHERE owner_type = \\$1 AND owner_id = \\$2").
		WithArgs("derivation", ownerID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := db.DeleteOwnerAnnotations(context.Background(), annotation.OwnerDerivation, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
