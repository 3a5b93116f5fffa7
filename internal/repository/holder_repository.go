package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/utils"
)

// HolderRepo provides data access to the holders table.  It carries just
// enough account state to authenticate reservation requests; full account
// management belongs to the users service.
type HolderRepo struct{ DB *sql.DB }

// NewHolderRepo returns a HolderRepo bound to the provided database.
func NewHolderRepo(db *sql.DB) *HolderRepo { return &HolderRepo{DB: db} }

// ErrEmailExists is returned when registering an email that is already taken.
var ErrEmailExists = errors.New("email already exists")

// Create inserts a holder and returns its ID.  The password is bcrypt-hashed
// with the given cost before it is stored.
func (r *HolderRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO holders (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a holder by normalized email.  Returns
// ErrHolderNotFound when no such account exists.
func (r *HolderRepo) GetByEmail(ctx context.Context, email string) (model.Holder, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var h model.Holder
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM holders WHERE email=? LIMIT 1",
		email).Scan(&h.ID, &h.Email, &h.PasswordHash, &h.Role, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holder{}, ErrHolderNotFound
	}
	return h, err
}
