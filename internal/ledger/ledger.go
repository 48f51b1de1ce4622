package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/VoxDroid/bhub/internal/db"
)

// Repository provides CRUD operations for install records.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository using db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Repository, error) {
	conn, err := db.InitDB(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return NewRepository(conn), nil
}

// RecordInstall stores rec, replacing any earlier record for the same slug.
func (r *Repository) RecordInstall(rec *InstallRecord) error {
	if strings.TrimSpace(rec.Slug) == "" {
		return fmt.Errorf("invalid install record: slug cannot be empty")
	}
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = time.Now()
	}
	trx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	if _, err := trx.Exec("DELETE FROM installs WHERE slug = ?", rec.Slug); err != nil {
		return fmt.Errorf("replace install: %w", err)
	}
	res, err := trx.Exec(`INSERT INTO installs (slug, revision, name, version, install_dir, run_id, installed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Slug, rec.Revision, rec.Name, rec.Version, rec.InstallDir, rec.RunID, rec.InstalledAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert install: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for i, f := range rec.Files {
		pos := f.Position
		if pos == 0 {
			pos = i + 1
		}
		if _, err := trx.Exec("INSERT INTO install_files (install_id, position, full_path, sha256, size) VALUES (?, ?, ?, ?, ?)",
			id, pos, f.FullPath, f.SHA256, f.Size); err != nil {
			return fmt.Errorf("insert install file: %w", err)
		}
	}
	if err := trx.Commit(); err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// GetInstall retrieves an install and its files by slug. It returns nil, nil
// when the slug is not installed.
func (r *Repository) GetInstall(slug string) (*InstallRecord, error) {
	row := r.db.QueryRow("SELECT id, slug, revision, name, version, install_dir, run_id, installed_at FROM installs WHERE slug = ?", slug)
	rec, err := scanInstall(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.attachFiles(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListInstalls returns every install ordered by slug, with files attached.
func (r *Repository) ListInstalls() ([]InstallRecord, error) {
	rows, err := r.db.Query("SELECT id, slug, revision, name, version, install_dir, run_id, installed_at FROM installs ORDER BY slug ASC")
	if err != nil {
		return nil, err
	}
	var out []InstallRecord
	for rows.Next() {
		rec, err := scanInstall(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// release the connection before the per-install file queries
	_ = rows.Close()
	for i := range out {
		if err := r.attachFiles(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteInstall removes the record for slug. Deleting a slug that is not
// installed is a no-op.
func (r *Repository) DeleteInstall(slug string) error {
	trx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	var id int64
	row := trx.QueryRow("SELECT id FROM installs WHERE slug = ?", slug)
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	if _, err := trx.Exec("DELETE FROM install_files WHERE install_id = ?", id); err != nil {
		return err
	}
	if _, err := trx.Exec("DELETE FROM installs WHERE id = ?", id); err != nil {
		return err
	}
	return trx.Commit()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInstall(s scanner) (*InstallRecord, error) {
	var rec InstallRecord
	var at string
	if err := s.Scan(&rec.ID, &rec.Slug, &rec.Revision, &rec.Name, &rec.Version, &rec.InstallDir, &rec.RunID, &at); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, at); err == nil {
		rec.InstalledAt = t
	}
	return &rec, nil
}

func (r *Repository) attachFiles(rec *InstallRecord) error {
	rows, err := r.db.Query("SELECT position, full_path, sha256, size FROM install_files WHERE install_id = ? ORDER BY position ASC", rec.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	rec.Files = nil
	for rows.Next() {
		var f InstalledFile
		if err := rows.Scan(&f.Position, &f.FullPath, &f.SHA256, &f.Size); err != nil {
			return err
		}
		rec.Files = append(rec.Files, f)
	}
	return rows.Err()
}
