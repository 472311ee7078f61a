package service

import (
	"context"
	"time"

	"github.com/visdata-app/visdata/internal/model"
	appErr "github.com/visdata-app/visdata/internal/pkg/errors"
	"github.com/visdata-app/visdata/internal/pkg/password"
	"github.com/visdata-app/visdata/internal/pkg/timeutil"
	"github.com/visdata-app/visdata/internal/pkg/token"
	"github.com/visdata-app/visdata/internal/repo"
)

type AuthService struct {
	users    *repo.UserRepo
	issuer   *token.Issuer
	tokenTTL time.Duration
}

func NewAuthService(users *repo.UserRepo, issuer *token.Issuer, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, issuer: issuer, tokenTTL: tokenTTL}
}

// Register hashes the password and inserts the user. There is no prior
// existence check: the store's unique constraint decides, so concurrent
// registrations of the same email race safely and the loser gets
// ErrConflict.
func (s *AuthService) Register(ctx context.Context, email, plainPassword string) (*model.User, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns a bearer token on success. Unknown email and wrong
// password yield the same ErrUnauthorized so the response cannot be
// used to probe which factor failed.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return "", appErr.ErrUnauthorized
	}
	signed, err := s.issuer.Issue(user.Email, s.tokenTTL)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ResolveUser turns a bearer token into the authenticated user. Any
// failure, including a still-valid token whose subject no longer
// exists, collapses to ErrUnauthorized.
func (s *AuthService) ResolveUser(ctx context.Context, tokenString string) (*model.User, error) {
	subject, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, appErr.ErrUnauthorized
	}
	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		return nil, appErr.ErrUnauthorized
	}
	return user, nil
}
