package db

import (
	"context"
	"database/sql"
	"fmt"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

const profileColumns = `id, email, name, phone, avatar_url, cover_photo, biography, location,
	university_id, university_name, university_short_name, year, instagram, linkedin,
	posts_count, followers_count, following_count, created_at, updated_at`

func scanProfile(s scanner) (*Profile, error) {
	var (
		p             Profile
		avatar, cover sql.NullString
		year          sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.Email, &p.Name, &p.Phone, &avatar, &cover, &p.Biography, &p.Location,
		&p.UniversityID, &p.UniversityName, &p.UniversityShortName, &year, &p.Instagram, &p.LinkedIn,
		&p.PostsCount, &p.FollowersCount, &p.FollowingCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	p.AvatarURL = nullString(avatar)
	p.CoverPhoto = nullString(cover)
	if year.Valid {
		y := int(year.Int64)
		p.Year = &y
	}
	return &p, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Register creates the credential row and the profile in one transaction and
// returns the new user id.
func (d *DB) Register(ctx context.Context, reg Registration, passwordHash string) (string, error) {
	var id string
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO users (email, encrypted_password) VALUES ($1, $2) RETURNING id`,
			reg.Email, passwordHash).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (id, email, name, university_id, university_name, university_short_name, year)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, reg.Email, reg.Name, reg.UniversityID, reg.UniversityName, reg.UniversityShortName, reg.Year)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// EmailExists reports whether an account already uses the address.
func (d *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := d.Db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (d *DB) CredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	var c Credentials
	err := d.Db.QueryRowContext(ctx,
		`SELECT id, email, encrypted_password FROM users WHERE email = $1 LIMIT 1`, email).
		Scan(&c.UserID, &c.Email, &c.EncryptedPassword)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (d *DB) GetProfile(ctx context.Context, id string) (*Profile, error) {
	row := d.Db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1 LIMIT 1`, id)
	return scanProfile(row)
}

// UpdateProfile applies the non-nil fields of u.
func (d *DB) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (*Profile, error) {
	row := d.Db.QueryRowContext(ctx, `
		UPDATE profiles SET
			name        = COALESCE($2, name),
			phone       = COALESCE($3, phone),
			biography   = COALESCE($4, biography),
			avatar_url  = COALESCE($5, avatar_url),
			cover_photo = COALESCE($6, cover_photo),
			location    = COALESCE($7, location),
			year        = COALESCE($8, year),
			instagram   = COALESCE($9, instagram),
			linkedin    = COALESCE($10, linkedin),
			updated_at  = now()
		WHERE id = $1
		RETURNING `+profileColumns,
		id, u.Name, u.Phone, u.Biography, u.AvatarURL, u.CoverPhoto, u.Location, u.Year, u.Instagram, u.LinkedIn)
	return scanProfile(row)
}
