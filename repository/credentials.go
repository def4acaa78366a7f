package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	talent "github.com/goliatone/go-talent-session"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// DefaultKey is the well-known storage key of the credential
const DefaultKey = "token"

var _ talent.CredentialStore = (*CredentialRepository)(nil)

// CredentialModel is the Bun model for the stored credential.
type CredentialModel struct {
	bun.BaseModel `bun:"table:credentials"`

	StorageKey string    `bun:"storage_key,pk"`
	Token      string    `bun:"token,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

// CredentialRepository implements talent.CredentialStore using Bun. The
// table holds at most one row per storage key.
type CredentialRepository struct {
	db  *bun.DB
	key string
	now func() time.Time
}

// NewCredentialRepository creates a new repository. An empty key uses DefaultKey.
func NewCredentialRepository(db *bun.DB, key string) *CredentialRepository {
	if key == "" {
		key = DefaultKey
	}
	return &CredentialRepository{
		db:  db,
		key: key,
		now: time.Now,
	}
}

// Open connects to the SQLite database at dsn.
func Open(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open credential database")
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateTable creates the credentials table when missing.
func (r *CredentialRepository) CreateTable(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*CredentialModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create credentials table")
	}
	return nil
}

// Save implements talent.CredentialStore.
func (r *CredentialRepository) Save(ctx context.Context, token string) error {
	model := &CredentialModel{
		StorageKey: r.key,
		Token:      token,
		UpdatedAt:  r.now(),
	}

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (storage_key) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save credential")
	}
	return nil
}

// Read implements talent.CredentialStore.
func (r *CredentialRepository) Read(ctx context.Context) (string, bool, error) {
	var model CredentialModel
	err := r.db.NewSelect().
		Model(&model).
		Where("storage_key = ?", r.key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read credential")
	}
	return model.Token, true, nil
}

// Clear implements talent.CredentialStore.
func (r *CredentialRepository) Clear(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*CredentialModel)(nil)).
		Where("storage_key = ?", r.key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear credential")
	}
	return nil
}
