package pagestore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/pdfmcr/internal/apperr"
	"github.com/starford/pdfmcr/internal/jpeg"
	"github.com/starford/pdfmcr/internal/model"
)

// PageRow represents a page: its position, background image and
// annotations.
type PageRow struct {
	// Index is the 0-based position of the page in the document.
	Index       int
	ImagePath   string
	Checksum    string
	Image       jpeg.Info
	Annotations model.PageAnnotations
	UpdatedAt   time.Time
}

const pageColumns = `image_path, checksum, bit_depth, width, height, color_space,
	density_unit, density_x, density_y, annotations, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(s scanner, idx int) (*PageRow, error) {
	var (
		r     PageRow
		space string
		unit  string
		ann   string
	)
	err := s.Scan(&r.ImagePath, &r.Checksum, &r.Image.BitDepth, &r.Image.Width, &r.Image.Height,
		&space, &unit, &r.Image.DensityX, &r.Image.DensityY, &ann, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Index = idx
	r.Image.ColorSpace = jpeg.ColorSpace(space)
	r.Image.DensityUnit = jpeg.DensityUnit(unit)
	r.Annotations, err = model.Decode([]byte(ann))
	if err != nil {
		return nil, fmt.Errorf("pagestore: page %d: %w", idx, err)
	}
	return &r, nil
}

// AddPage appends a page and returns its index. Annotations default to
// the empty payload. A page for the same image path yields
// apperr.ErrAlreadyExists.
func (db *DB) AddPage(p PageRow) (int, error) {
	if p.Annotations.Annotations == nil && p.Annotations.Artifacts == nil {
		p.Annotations = model.Empty()
	}
	ann, err := model.Encode(p.Annotations)
	if err != nil {
		return 0, err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("pagestore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`INSERT INTO pages (`+pageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ImagePath, p.Checksum, p.Image.BitDepth, p.Image.Width, p.Image.Height,
		string(p.Image.ColorSpace), string(p.Image.DensityUnit), p.Image.DensityX, p.Image.DensityY,
		string(ann), p.UpdatedAt)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, fmt.Errorf("pagestore: page for %s: %w", p.ImagePath, apperr.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("pagestore: insert page: %w", err)
	}

	var n int
	if err := tx.QueryRow(`SELECT count(*) - 1 FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("pagestore: count: %w", err)
	}
	return n, tx.Commit()
}

// Count returns the number of pages.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("pagestore: count: %w", err)
	}
	return n, nil
}

// List returns every page in document order.
func (db *DB) List() ([]PageRow, error) {
	rows, err := db.conn.Query(`SELECT ` + pageColumns + ` FROM pages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pagestore: list: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		r, err := scanPage(rows, len(out))
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Get returns the page at index n, or apperr.ErrNotFound.
func (db *DB) Get(n int) (*PageRow, error) {
	if n < 0 {
		return nil, fmt.Errorf("pagestore: page %d: %w", n, apperr.ErrNotFound)
	}
	row := db.conn.QueryRow(`SELECT `+pageColumns+` FROM pages ORDER BY id LIMIT 1 OFFSET ?`, n)
	r, err := scanPage(row, n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pagestore: page %d: %w", n, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pagestore: get page %d: %w", n, err)
	}
	return r, nil
}

// IndexOf returns the index of the page showing imagePath.
func (db *DB) IndexOf(imagePath string) (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT count(*) FROM pages
		WHERE id < (SELECT id FROM pages WHERE image_path = ?)`, imagePath).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("pagestore: index of %s: %w", imagePath, err)
	}
	var exists bool
	if err := db.conn.QueryRow(`SELECT EXISTS(SELECT 1 FROM pages WHERE image_path = ?)`, imagePath).Scan(&exists); err != nil {
		return 0, fmt.Errorf("pagestore: index of %s: %w", imagePath, err)
	}
	if !exists {
		return 0, fmt.Errorf("pagestore: image %s: %w", imagePath, apperr.ErrNotFound)
	}
	return n, nil
}

// SetAnnotations replaces the annotations of page n.
func (db *DB) SetAnnotations(n int, p model.PageAnnotations) error {
	if n < 0 {
		return fmt.Errorf("pagestore: page %d: %w", n, apperr.ErrNotFound)
	}
	ann, err := model.Encode(p)
	if err != nil {
		return err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("pagestore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id int64
	err = tx.QueryRow(`SELECT id FROM pages ORDER BY id LIMIT 1 OFFSET ?`, n).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("pagestore: page %d: %w", n, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("pagestore: lookup page %d: %w", n, err)
	}
	if _, err := tx.Exec(`UPDATE pages SET annotations = ?, updated_at = ? WHERE id = ?`,
		string(ann), time.Now().UTC(), id); err != nil {
		return fmt.Errorf("pagestore: update annotations: %w", err)
	}
	return tx.Commit()
}

// AllImagePaths returns every page image path with its checksum.
func (db *DB) AllImagePaths() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT image_path, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("pagestore: all image paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// PathsByChecksum returns the image paths of pages whose image has the
// given checksum.
func (db *DB) PathsByChecksum(cs string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT image_path FROM pages WHERE checksum = ? ORDER BY id`, cs)
	if err != nil {
		return nil, fmt.Errorf("pagestore: paths by checksum: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Relink points the page showing oldPath at newPath, keeping its
// position and annotations.
func (db *DB) Relink(oldPath, newPath string) error {
	res, err := db.conn.Exec(`UPDATE pages SET image_path = ?, updated_at = ? WHERE image_path = ?`,
		newPath, time.Now().UTC(), oldPath)
	if err != nil {
		return fmt.Errorf("pagestore: relink %s: %w", oldPath, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pagestore: image %s: %w", oldPath, apperr.ErrNotFound)
	}
	return nil
}
