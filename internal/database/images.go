package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"git.sr.ht/~jakintosh/gallery/internal/service"
)

func (s *SQLiteStore) ImageStore() service.ImageStore {
	return s
}

func (s *SQLiteStore) InsertImage(
	galleryID int64,
	blob string,
	hash string,
	at time.Time,
) (
	int64,
	error,
) {
	result, err := s.db.Exec(`
		INSERT INTO image (gallery, blob, hash, created_at)
		VALUES (?1, ?2, ?3, ?4);`,
		galleryID,
		blob,
		hash,
		toTimestamp(at),
	)
	if isUniqueViolation(err) {
		return 0, service.ErrDuplicateImage
	}
	if err != nil {
		return 0, fmt.Errorf("couldn't insert into image: %v", err)
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) HasImageHash(
	galleryID int64,
	hash string,
) (
	bool,
	error,
) {
	row := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1
			FROM image
			WHERE gallery=?1 AND hash=?2
		);`,
		galleryID,
		hash,
	)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("couldn't scan image hash: %v", err)
	}
	return exists, nil
}

// ListImages returns the gallery's images, oldest first.
func (s *SQLiteStore) ListImages(
	galleryID int64,
) (
	[]service.Image,
	error,
) {
	return s.queryImages(`
		SELECT id, gallery, blob, hash, created_at
		FROM image
		WHERE gallery=?1
		ORDER BY created_at, id;`,
		galleryID,
	)
}

// ListUserImages returns every image in the owner's galleries ordered by
// hash, then age.
func (s *SQLiteStore) ListUserImages(
	owner string,
) (
	[]service.Image,
	error,
) {
	return s.queryImages(`
		SELECT i.id, i.gallery, i.blob, i.hash, i.created_at
		FROM image i
		JOIN gallery g ON i.gallery=g.id
		WHERE g.owner=?1
		ORDER BY i.hash, i.created_at, i.id;`,
		owner,
	)
}

func (s *SQLiteStore) DeleteImage(
	owner string,
	galleryID int64,
	imageID int64,
) (
	string,
	error,
) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("couldn't begin transaction: %v", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		SELECT i.blob
		FROM image i
		JOIN gallery g ON i.gallery=g.id
		WHERE i.id=?1 AND i.gallery=?2 AND g.owner=?3;`,
		imageID,
		galleryID,
		owner,
	)
	var blob string
	err = row.Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %d", service.ErrImageNotFound, imageID)
	}
	if err != nil {
		return "", fmt.Errorf("couldn't scan image: %v", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM image
		WHERE id=?1;`,
		imageID,
	); err != nil {
		return "", fmt.Errorf("couldn't delete from image: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("couldn't commit image delete: %v", err)
	}
	return blob, nil
}

func (s *SQLiteStore) queryImages(
	query string,
	args ...any,
) (
	[]service.Image,
	error,
) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("couldn't query images: %v", err)
	}
	defer rows.Close()

	var images []service.Image
	for rows.Next() {
		var img service.Image
		var createdAt int64
		if err := rows.Scan(&img.ID, &img.GalleryID, &img.Blob, &img.Hash, &createdAt); err != nil {
			return nil, fmt.Errorf("couldn't scan image: %v", err)
		}
		img.CreatedAt = fromTimestamp(createdAt)
		images = append(images, img)
	}
	return images, rows.Err()
}
