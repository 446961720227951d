package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"

	"blog/pkg/common"
)

const pgUniqueViolation = "23505"

const schema = `CREATE TABLE IF NOT EXISTS users (
	id       BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email    TEXT NOT NULL UNIQUE,
	password BYTEA NOT NULL,
	avatar   TEXT NOT NULL DEFAULT '',
	created  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

// Migrate creates the users table if it doesn't exist yet.
func (r *UserRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("user/repo: migration failed: %w", err)
	}
	return nil
}

func (r *UserRepo) Add(ctx context.Context, u *User) (string, error) {
	row := r.db.QueryRowContext(ctx,
		"INSERT INTO users(username, email, password, avatar) VALUES($1, $2, $3, $4) RETURNING id, created",
		u.Username, u.Email, u.Password, u.Avatar)
	var id int64
	if err := row.Scan(&id, &u.Created); err != nil {
		return ``, fmt.Errorf("user/repo: user wasn't added: %w", mapErr(err))
	}
	u.Id = strconv.FormatInt(id, 10)
	return u.Id, nil
}

func (r *UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username=$1 OR email=$2 LIMIT 1", username, email)
	var id int64
	err := row.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("user/repo: could not scan row: %w", err)
	}
	return true, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password, avatar, created FROM users WHERE email=$1", email)
	u := new(User)
	if err := row.Scan(&u.Id, &u.Username, &u.Email, &u.Password, &u.Avatar, &u.Created); err != nil {
		return nil, fmt.Errorf("user/repo: could not scan row: %w", mapErr(err))
	}
	return u, nil
}

func (r *UserRepo) GetById(ctx context.Context, uid string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, username, email, avatar, created FROM users WHERE id=$1", uid)
	u := new(User)
	if err := row.Scan(&u.Id, &u.Username, &u.Email, &u.Avatar, &u.Created); err != nil {
		return nil, fmt.Errorf("user/repo: could not scan row: %w", mapErr(err))
	}
	return u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, username, email, avatar, created FROM users WHERE username=$1", username)
	u := new(User)
	if err := row.Scan(&u.Id, &u.Username, &u.Email, &u.Avatar, &u.Created); err != nil {
		return nil, fmt.Errorf("user/repo: could not scan row: %w", mapErr(err))
	}
	return u, nil
}

// GetByIds returns the users found for ids. Unknown ids are skipped.
func (r *UserRepo) GetByIds(ctx context.Context, ids []string) ([]*User, error) {
	if len(ids) == 0 {
		return []*User{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}
	query := "SELECT id, username, email, avatar, created FROM users WHERE id IN (" +
		strings.Join(placeholders, ", ") + ")"
	return r.query(ctx, query, args...)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"UPDATE users SET username = COALESCE($2, username), avatar = COALESCE($3, avatar) "+
			"WHERE id=$1 RETURNING id, username, email, avatar, created",
		uid, upd.Username, upd.Avatar)
	u := new(User)
	if err := row.Scan(&u.Id, &u.Username, &u.Email, &u.Avatar, &u.Created); err != nil {
		return nil, fmt.Errorf("user/repo: profile wasn't updated: %w", mapErr(err))
	}
	return u, nil
}

// Returns all users. Used only for seeding the DB.
func (r *UserRepo) GetAll(ctx context.Context) ([]*User, error) {
	return r.query(ctx, "SELECT id, username, email, avatar, created FROM users")
}

func (r *UserRepo) query(ctx context.Context, query string, args ...interface{}) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("user/repo: failed executing query: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u := new(User)
		if err := rows.Scan(&u.Id, &u.Username, &u.Email, &u.Avatar, &u.Created); err != nil {
			return nil, fmt.Errorf("user/repo: could not scan row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user/repo: rows iteration failed: %w", err)
	}
	return users, nil
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", common.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
