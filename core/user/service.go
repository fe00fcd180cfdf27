package user

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core"
)

var (
	// errors
	ErrNotFound   = errors.New("user not found")
	ErrUserExists = errors.New("a user with this email already exists")

	// OrderingFields are the fields users can be ordered by.
	OrderingFields  = []string{"name", "email", "role", "created_at", "last_login"}
	defaultOrdering = core.DBOrdering{Field: "name", Ascending: true}
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)

		RevokeToken(ctx context.Context, tok RevokedToken) error
		IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
		PurgeRevokedTokens(ctx context.Context, before time.Time) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		QueryTechnicians(ctx context.Context) ([]User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)

		RevokeToken(ctx context.Context, tokenID, userID string, expiresAt time.Time) error
		IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	}

	service struct {
		repo    Repository
		nowFunc func() time.Time
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo, nowFunc: time.Now}
}

func (svc *service) CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrUserExists {
			return core.NewValidationError(ErrUserExists, core.FieldError{Field: "email", Error: ErrUserExists.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := svc.nowFunc().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      NormalizeRole(nu.Role),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter, core.CleanOrderings(ordering, OrderingFields, defaultOrdering))
}

// QueryTechnicians returns the active technicians, the only users tasks can be assigned to.
func (svc *service) QueryTechnicians(ctx context.Context) ([]User, error) {
	active := true
	return svc.Query(ctx, &QueryFilter{Roles: []string{RoleTechnician}, IsActive: &active}, nil)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = svc.nowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) RevokeToken(ctx context.Context, tokenID, userID string, expiresAt time.Time) error {
	now := svc.nowFunc().UTC()
	if err := svc.repo.PurgeRevokedTokens(ctx, now); err != nil {
		return errors.Wrap(err, "purging revoked tokens")
	}
	return svc.repo.RevokeToken(ctx, RevokedToken{
		TokenID:   tokenID,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		RevokedAt: now,
	})
}

func (svc *service) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return svc.repo.IsTokenRevoked(ctx, tokenID)
}
