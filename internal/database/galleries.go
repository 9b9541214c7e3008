package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"git.sr.ht/~jakintosh/gallery/internal/service"
)

func (s *SQLiteStore) GalleryStore() service.GalleryStore {
	return s
}

func (s *SQLiteStore) InsertGallery(
	owner string,
	title string,
	description string,
	at time.Time,
) (
	int64,
	error,
) {
	result, err := s.db.Exec(`
		INSERT INTO gallery (owner, title, description, created_at, updated_at)
		VALUES (?1, ?2, ?3, ?4, ?4);`,
		owner,
		title,
		description,
		toTimestamp(at),
	)
	if err != nil {
		return 0, fmt.Errorf("couldn't insert into gallery: %v", err)
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) GetGallery(
	owner string,
	id int64,
) (
	*service.Gallery,
	error,
) {
	row := s.db.QueryRow(`
		SELECT id, owner, title, description, created_at, updated_at
		FROM gallery
		WHERE id=?1 AND owner=?2;`,
		id,
		owner,
	)

	var g service.Gallery
	var createdAt, updatedAt int64
	err := row.Scan(&g.ID, &g.Owner, &g.Title, &g.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", service.ErrGalleryNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't scan gallery: %v", err)
	}
	g.CreatedAt = fromTimestamp(createdAt)
	g.UpdatedAt = fromTimestamp(updatedAt)
	return &g, nil
}

func (s *SQLiteStore) ListGalleries(
	owner string,
) (
	[]service.GallerySummary,
	error,
) {
	rows, err := s.db.Query(`
		SELECT g.id, g.owner, g.title, g.description, g.created_at, g.updated_at,
			COALESCE((
				SELECT i.blob
				FROM image i
				WHERE i.gallery=g.id
				ORDER BY i.created_at, i.id
				LIMIT 1
			), '')
		FROM gallery g
		WHERE g.owner=?1
		ORDER BY g.created_at DESC, g.id DESC;`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("couldn't query galleries: %v", err)
	}
	defer rows.Close()

	var galleries []service.GallerySummary
	for rows.Next() {
		var g service.GallerySummary
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&g.ID,
			&g.Owner,
			&g.Title,
			&g.Description,
			&createdAt,
			&updatedAt,
			&g.Cover,
		); err != nil {
			return nil, fmt.Errorf("couldn't scan gallery: %v", err)
		}
		g.CreatedAt = fromTimestamp(createdAt)
		g.UpdatedAt = fromTimestamp(updatedAt)
		galleries = append(galleries, g)
	}
	return galleries, rows.Err()
}

func (s *SQLiteStore) UpdateGallery(
	owner string,
	id int64,
	title string,
	description string,
	at time.Time,
) error {
	result, err := s.db.Exec(`
		UPDATE gallery
		SET title=?1, description=?2, updated_at=?3
		WHERE id=?4 AND owner=?5;`,
		title,
		description,
		toTimestamp(at),
		id,
		owner,
	)
	if err != nil {
		return fmt.Errorf("couldn't update gallery: %v", err)
	}
	if resultsEmpty(result) {
		return fmt.Errorf("%w: %d", service.ErrGalleryNotFound, id)
	}
	return nil
}

// DeleteGallery deletes the gallery and its images, returning the blobs the
// images referenced.
func (s *SQLiteStore) DeleteGallery(
	owner string,
	id int64,
) (
	[]string,
	error,
) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("couldn't begin transaction: %v", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT i.blob
		FROM image i
		JOIN gallery g ON i.gallery=g.id
		WHERE g.id=?1 AND g.owner=?2;`,
		id,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("couldn't query gallery images: %v", err)
	}
	var blobs []string
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			rows.Close()
			return nil, fmt.Errorf("couldn't scan blob: %v", err)
		}
		blobs = append(blobs, blob)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("couldn't read gallery images: %v", err)
	}
	rows.Close()

	result, err := tx.Exec(`
		DELETE FROM gallery
		WHERE id=?1 AND owner=?2;`,
		id,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("couldn't delete from gallery: %v", err)
	}
	if resultsEmpty(result) {
		return nil, fmt.Errorf("%w: %d", service.ErrGalleryNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("couldn't commit gallery delete: %v", err)
	}
	return blobs, nil
}
