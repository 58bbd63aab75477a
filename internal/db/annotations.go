package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/story-annotations/internal/annotation"
)

const annotationColumns = `id, owner_type, owner_id, section_key, start_offset, end_offset,
	annotated_text, style, color, note, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row rowScanner) (*annotation.Annotation, error) {
	var a annotation.Annotation
	var note sql.NullString
	err := row.Scan(
		&a.ID, &a.OwnerType, &a.OwnerID, &a.SectionKey, &a.StartOffset, &a.EndOffset,
		&a.AnnotatedText, &a.Style, &a.Color, &note, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if note.Valid {
		a.Note = &note.String
	}
	return &a, nil
}

func nullNote(note *string) sql.NullString {
	if note == nil || strings.TrimSpace(*note) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *note, Valid: true}
}

// ListAnnotations returns every annotation of an owner ordered by section, then
// offset, then creation time
func (db *DB) ListAnnotations(ctx context.Context, ownerType annotation.OwnerType, ownerID uuid.UUID) ([]annotation.Annotation, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations
		 WHERE owner_type = $1 AND owner_id = $2
		 ORDER BY section_key, start_offset, created_at`,
		string(ownerType), ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	defer rows.Close()

	anns := []annotation.Annotation{}
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		anns = append(anns, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate annotations: %w", err)
	}
	return anns, nil
}

// GetAnnotation retrieves one annotation of an owner. Returns nil if not found.
func (db *DB) GetAnnotation(ctx context.Context, ownerType annotation.OwnerType, ownerID, id uuid.UUID) (*annotation.Annotation, error) {
	row := db.sql.QueryRowContext(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations
		 WHERE id = $1 AND owner_type = $2 AND owner_id = $3`,
		id, string(ownerType), ownerID,
	)
	a, err := scanAnnotation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get annotation %s: %w", id, err)
	}
	return a, nil
}

// CreateAnnotation inserts a validated input for an owner and returns the record
func (db *DB) CreateAnnotation(ctx context.Context, ownerType annotation.OwnerType, ownerID uuid.UUID, input *annotation.CreateInput) (*annotation.Annotation, error) {
	now := time.Now().UTC()
	nn := nullNote(input.Note)

	a := &annotation.Annotation{
		ID:            uuid.New(),
		OwnerType:     ownerType,
		OwnerID:       ownerID,
		SectionKey:    input.SectionKey,
		StartOffset:   input.StartOffset,
		EndOffset:     input.EndOffset,
		AnnotatedText: input.AnnotatedText,
		Style:         input.Style,
		Color:         input.ColorOrDefault(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if nn.Valid {
		a.Note = &nn.String
	}

	_, err := db.sql.ExecContext(ctx,
		`INSERT INTO annotations (`+annotationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, string(a.OwnerType), a.OwnerID, a.SectionKey, a.StartOffset, a.EndOffset,
		a.AnnotatedText, string(a.Style), string(a.Color), nn, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create annotation: %w", err)
	}
	return a, nil
}

// UpdateAnnotation applies an update to an owner's annotation and returns the new
// record. Returns nil if the annotation does not exist.
func (db *DB) UpdateAnnotation(ctx context.Context, ownerType annotation.OwnerType, ownerID, id uuid.UUID, input *annotation.UpdateInput) (*annotation.Annotation, error) {
	existing, err := db.GetAnnotation(ctx, ownerType, ownerID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	input.Apply(existing)
	existing.UpdatedAt = time.Now().UTC()

	_, err = db.sql.ExecContext(ctx,
		`UPDATE annotations SET note = $1, style = $2, color = $3, updated_at = $4
		 WHERE id = $5 AND owner_type = $6 AND owner_id = $7`,
		nullNote(existing.Note), string(existing.Style), string(existing.Color), existing.UpdatedAt,
		id, string(ownerType), ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update annotation %s: %w", id, err)
	}
	return existing, nil
}

// DeleteAnnotation removes an owner's annotation. Deleting a missing annotation is
// not an error; the result reports whether a row was removed.
func (db *DB) DeleteAnnotation(ctx context.Context, ownerType annotation.OwnerType, ownerID, id uuid.UUID) (bool, error) {
	res, err := db.sql.ExecContext(ctx,
		`DELETE FROM annotations WHERE id = $1 AND owner_type = $2 AND owner_id = $3`,
		id, string(ownerType), ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete annotation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete annotation %s: %w", id, err)
	}
	return n > 0, nil
}

// DeleteOwnerAnnotations removes every annotation of an owner, for example when a
// derivation is discarded
func (db *DB) DeleteOwnerAnnotations(ctx context.Context, ownerType annotation.OwnerType, ownerID uuid.UUID) (int64, error) {
	res, err := db.sql.ExecContext(ctx,
		`DELETE FROM annotations WHERE owner_type = $1 AND owner_id = $2`,
		string(ownerType), ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete annotations of %s %s: %w", ownerType, ownerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete annotations of %s %s: %w", ownerType, ownerID, err)
	}
	return n, nil
}
