package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the credential store backed by bun
type Users interface {
	AccountRegisterer

	RegisterTx(ctx context.Context, tx bun.IDB, user *User, roles ...string) (*User, error)
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	FindRoleByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	RegisterModels(db)

	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

// FindByIdentifier matches the identifier against username or email and
// loads the user's roles
func (a *users) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrIdentityNotFound
	}

	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Roles").
		Where("?TableAlias.username = ? OR ?TableAlias.email = ?", identifier, identifier).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to find user by identifier")
	}

	return record, nil
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", strings.TrimSpace(username)).
		Exists(ctx)
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Exists(ctx)
}

func (a *users) Register(ctx context.Context, user *User, roles ...string) (*User, error) {
	var created *User
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		created, err = a.RegisterTx(ctx, tx, user, roles...)
		return err
	})
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "user registration transaction failed")
	}
	return created, nil
}

// RegisterTx inserts the user and links the given roles. The USER role is
// always linked.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User, roles ...string) (*User, error) {
	if user == nil {
		return nil, errors.New("user is required", errors.CategoryBadInput)
	}

	prepareUserDefaults(user)

	linked := make([]*Role, 0, len(roles)+1)
	for _, name := range NormalizeRoles(append([]string{RoleUser}, roles...)) {
		role, err := a.FindRoleByNameTx(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		linked = append(linked, role)
	}

	created, err := a.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create user")
	}

	for _, role := range linked {
		link := &UserRole{UserID: created.ID, RoleID: role.ID}
		if _, err := tx.NewInsert().Model(link).Exec(ctx); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "could not assign role")
		}
	}

	created.Roles = linked
	return created, nil
}

func (a *users) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	return a.FindRoleByNameTx(ctx, a.db, name)
}

// FindRoleByNameTx accepts "ADMIN" or "ROLE_ADMIN"
func (a *users) FindRoleByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error) {
	authority := AuthorityName(name)
	if authority == "" {
		return nil, ErrRoleNotFound
	}

	role := &Role{}
	err := tx.NewSelect().
		Model(role).
		Where("?TableAlias.name = ?", authority).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to find role")
	}
	return role, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Username = strings.TrimSpace(record.Username)
	record.Email = strings.TrimSpace(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
