package store

import (
	"context"

	"github.com/google/uuid"

	"vetclinic-api/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User, role string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, phone) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Phone,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_roles (id, user_id, role) VALUES ($1,$2,$3)`,
		uuid.New().String(), u.ID, role,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, full_name, COALESCE(phone,''), created_at, updated_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Roles, err = s.RolesForUser(ctx, u.ID)
	return u, err
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, full_name, COALESCE(phone,''), COALESCE(google_refresh_token,''), created_at, updated_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.GoogleRefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Roles, err = s.RolesForUser(ctx, u.ID)
	return u, err
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.email, u.full_name, COALESCE(u.phone,''), u.created_at, u.updated_at,
		        COALESCE(array_agg(r.role) FILTER (WHERE r.role IS NOT NULL), '{}')
		 FROM users u
		 LEFT JOIN user_roles r ON r.user_id = u.id
		 GROUP BY u.id
		 ORDER BY u.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.CreatedAt, &u.UpdatedAt, &u.Roles); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) RolesForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (s *Store) AssignRole(ctx context.Context, userID, role string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_roles (id, user_id, role) VALUES ($1,$2,$3)
		 ON CONFLICT (user_id, role) DO NOTHING`,
		uuid.New().String(), userID, role,
	)
	return err
}

func (s *Store) SetGoogleRefreshToken(ctx context.Context, userID, refreshToken string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET google_refresh_token = $1, updated_at = NOW() WHERE id = $2`,
		refreshToken, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user, their roles and their sessions. Clinic data
// that references the user (appointments, sales) is kept for the record.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, _ = tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, id)
	_, _ = tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id)

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}
