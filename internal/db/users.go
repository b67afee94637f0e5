package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

// inserts a new user into the table, returns the new user ID.
func (p *pgStore) CreateUser(email, hashedPassword string, name *string, role string) (int, error) {
	if role == "" {
		role = "user"
	}
	const q = `
	INSERT INTO users (email, hashed_password, name, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING id;`
	var newID int
	if err := p.db.Get(&newID, q, email, hashedPassword, name, role); err != nil {
		log.Error().Err(err).Msg("CreateUser failed")
		return 0, err
	}
	return newID, nil
}

// fetches a user by email. Returns nil, ErrNotFound if not found.
func (p *pgStore) GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	const q = `
	SELECT id, email, hashed_password, name, role, created_at, updated_at
	  FROM users
	 WHERE email = $1;`
	if err := p.db.Get(&u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("GetUserByEmail failed")
		return nil, err
	}
	return &u, nil
}

// fetches a user by ID. Returns nil, ErrNotFound if not found.
func (p *pgStore) GetUserByID(id int) (*model.User, error) {
	var u model.User
	const q = `
	SELECT id, email, hashed_password, name, role, created_at, updated_at
	  FROM users
	 WHERE id = $1;`
	if err := p.db.Get(&u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int("user_id", id).Msg("GetUserByID failed")
		return nil, err
	}
	return &u, nil
}

// updates a user's email and name and bumps updated_at.
func (p *pgStore) UpdateUserProfile(id int, email string, name *string) error {
	const q = `
	UPDATE users
	   SET email = $2,
	       name = $3,
	       updated_at = now()
	 WHERE id = $1;`
	res, err := p.db.Exec(q, id, email, name)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("UpdateUserProfile failed")
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
