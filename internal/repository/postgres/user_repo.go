package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mentorbooking/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

// NewDirectoryLookup returns a DirectoryLookup that reads current display
// names from the users table.
func NewDirectoryLookup(db *sql.DB) domain.DirectoryLookup {
	return &userRepository{DB: db}
}

func (r *userRepository) Upsert(ctx context.Context, u *domain.User) error {
	cred, err := marshalCredential(u.Credential)
	if err != nil {
		return err
	}
	// Pass an untyped nil so the driver sees SQL NULL rather than a
	// typed-nil []byte, which sqlmock treats as a non-null argument.
	var credArg any
	if cred != nil {
		credArg = cred
	}
	query := `
		INSERT INTO users (email, name, picture, role, credential, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
		    picture = EXCLUDED.picture,
		    credential = COALESCE(EXCLUDED.credential, users.credential),
		    updated_at = EXCLUDED.updated_at
		RETURNING id, role, created_at
	`
	return r.DB.QueryRowContext(ctx, query,
		u.Email, u.Name, u.Picture, u.Role, credArg, u.CreatedAt, u.UpdatedAt).
		Scan(&u.ID, &u.Role, &u.CreatedAt)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, name, picture, role, startup_name, expertise, linkedin, credential, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *userRepository) UpdateProfile(ctx context.Context, email string, p domain.ProfileUpdate) (*domain.User, error) {
	query := `
		UPDATE users
		SET role = $1, startup_name = $2, expertise = $3, linkedin = $4, updated_at = $5
		WHERE email = $6
		RETURNING id, email, name, picture, role, startup_name, expertise, linkedin, credential, created_at, updated_at
	`
	return scanUser(r.DB.QueryRowContext(ctx, query,
		p.Role, p.StartupName, p.Expertise, p.LinkedIn, time.Now(), email))
}

// FindNameByEmail implements domain.DirectoryLookup on top of the users table.
func (r *userRepository) FindNameByEmail(ctx context.Context, email string) (string, error) {
	var name string
	err := r.DB.QueryRowContext(ctx, `SELECT name FROM users WHERE email = $1`, email).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrUserNotFound
		}
		return "", err
	}
	return name, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var (
		startupName, expertise, linkedin sql.NullString
		cred                             []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.Role,
		&startupName, &expertise, &linkedin, &cred, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	u.StartupName = startupName.String
	u.Expertise = expertise.String
	u.LinkedIn = linkedin.String
	if len(cred) > 0 {
		u.Credential = &domain.CalendarCredential{}
		if err := json.Unmarshal(cred, u.Credential); err != nil {
			return nil, fmt.Errorf("unmarshal credential: %w", err)
		}
	}
	return u, nil
}

func marshalCredential(c *domain.CalendarCredential) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal credential: %w", err)
	}
	return b, nil
}
