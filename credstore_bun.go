package apiclient

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// credentialRecord is one persisted credential field.
type credentialRecord struct {
	bun.BaseModel `bun:"table:credential_state,alias:cs"`

	Key       string    `bun:"key,pk" json:"key"`
	Value     []byte    `bun:"value,notnull" json:"value"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// BunCredentials is the durable CredentialStore: a single key/value table
// kept in a local sqlite database, surviving process restarts but not
// logout.
type BunCredentials struct {
	db *bun.DB
}

var _ CredentialStore = (*BunCredentials)(nil)

// NewBunCredentials prepares the backing table and returns the store.
func NewBunCredentials(ctx context.Context, db *bun.DB) (*BunCredentials, error) {
	if _, err := db.NewCreateTable().
		Model((*credentialRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to prepare credential table")
	}
	return &BunCredentials{db: db}, nil
}

// OpenSQLiteCredentials opens (or creates) the sqlite database at path and
// returns a durable store over it.
func OpenSQLiteCredentials(ctx context.Context, path string) (*BunCredentials, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+path+"?cache=shared")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to open credential database")
	}
	sqldb.SetMaxOpenConns(1)

	return NewBunCredentials(ctx, bun.NewDB(sqldb, sqlitedialect.New()))
}

// DB exposes the underlying handle so callers can close it on shutdown.
func (b *BunCredentials) DB() *bun.DB {
	return b.db
}

func (b *BunCredentials) get(ctx context.Context, key string, v any) error {
	record := &credentialRecord{}
	err := b.db.NewSelect().
		Model(record).
		Where("cs.key = ?", key).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to read credential field")
	}

	if len(record.Value) == 0 {
		return nil
	}
	return decodeCredentialValue(record.Value, v)
}

func (b *BunCredentials) set(ctx context.Context, key string, v any) error {
	data, err := encodeCredentialValue(v)
	if err != nil {
		return err
	}

	record := &credentialRecord{
		Key:       key,
		Value:     data,
		UpdatedAt: time.Now(),
	}

	if _, err := b.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to write credential field")
	}
	return nil
}

func (b *BunCredentials) AccessToken(ctx context.Context) (string, error) {
	token := ""
	err := b.get(ctx, credKeyAccessToken, &token)
	return token, err
}

func (b *BunCredentials) RefreshToken(ctx context.Context) (string, error) {
	token := ""
	err := b.get(ctx, credKeyRefreshToken, &token)
	return token, err
}

func (b *BunCredentials) SetTokens(ctx context.Context, access, refresh string) error {
	if err := b.set(ctx, credKeyAccessToken, access); err != nil {
		return err
	}
	if refresh == "" {
		return nil
	}
	return b.set(ctx, credKeyRefreshToken, refresh)
}

func (b *BunCredentials) SetAccessToken(ctx context.Context, access string) error {
	return b.set(ctx, credKeyAccessToken, access)
}

func (b *BunCredentials) Identity(ctx context.Context) (*Identity, error) {
	identity := &Identity{}
	if err := b.get(ctx, credKeyIdentity, identity); err != nil {
		return nil, err
	}
	if !identity.Valid() {
		return nil, nil
	}
	return identity, nil
}

func (b *BunCredentials) SetIdentity(ctx context.Context, identity *Identity) error {
	return b.set(ctx, credKeyIdentity, identity)
}

func (b *BunCredentials) Permissions(ctx context.Context) ([]string, error) {
	var permissions []string
	err := b.get(ctx, credKeyPermissions, &permissions)
	return permissions, err
}

func (b *BunCredentials) SetPermissions(ctx context.Context, permissions []string) error {
	return b.set(ctx, credKeyPermissions, permissions)
}

func (b *BunCredentials) Roles(ctx context.Context) ([]string, error) {
	var roles []string
	err := b.get(ctx, credKeyRoles, &roles)
	return roles, err
}

func (b *BunCredentials) SetRoles(ctx context.Context, roles []string) error {
	return b.set(ctx, credKeyRoles, roles)
}

func (b *BunCredentials) Menus(ctx context.Context) ([]MenuNode, error) {
	var menus []MenuNode
	err := b.get(ctx, credKeyMenus, &menus)
	return menus, err
}

func (b *BunCredentials) SetMenus(ctx context.Context, menus []MenuNode) error {
	return b.set(ctx, credKeyMenus, menus)
}

func (b *BunCredentials) Department(ctx context.Context) (*Department, error) {
	department := &Department{}
	if err := b.get(ctx, credKeyDepartment, department); err != nil {
		return nil, err
	}
	if department.ID == 0 && department.Name == "" {
		return nil, nil
	}
	return department, nil
}

func (b *BunCredentials) SetDepartment(ctx context.Context, department *Department) error {
	return b.set(ctx, credKeyDepartment, department)
}

// ClearAll removes every key in one statement so the store is never left
// partially cleared.
func (b *BunCredentials) ClearAll(ctx context.Context) error {
	if _, err := b.db.NewDelete().
		Model((*credentialRecord)(nil)).
		Where("cs.key IS NOT NULL").
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to clear credential store")
	}
	return nil
}
