package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/servicehub/internal/lib/password"
	"github.com/magabrotheeeer/servicehub/internal/lib/phone"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/services/auth"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type TokenMakerMock struct {
	mock.Mock
}

func (m *TokenMakerMock) GenerateToken(userUID, username, role string) (string, error) {
	args := m.Called(userUID, username, role)
	return args.String(0), args.Error(1)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name       string
		req        models.RegisterRequest
		setupMocks func(r *UserRepoMock)
		wantUID    string
		wantErr    error
	}{
		{
			name: "successful registration",
			req:  models.RegisterRequest{Email: " Kofi@Example.com", Username: "kofi", Password: "password123", Phone: "024 123 4567"},
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "kofi@example.com" &&
						u.Username == "kofi" &&
						u.Phone == "+233241234567" &&
						u.PasswordHash != "" && u.PasswordHash != "password123" &&
						u.Role == models.RoleUser
				})).Return("uid-1", nil).Once()
			},
			wantUID: "uid-1",
		},
		{
			name:       "invalid phone",
			req:        models.RegisterRequest{Email: "a@b.c", Username: "kofi", Password: "password123", Phone: "12"},
			setupMocks: func(_ *UserRepoMock) {},
			wantErr:    phone.ErrInvalid,
		},
		{
			name: "duplicate user",
			req:  models.RegisterRequest{Email: "a@b.c", Username: "kofi", Password: "password123", Phone: "0241234567"},
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return("", fmt.Errorf("storage.CreateUser: %w", repository.ErrUserExists)).Once()
			},
			wantErr: repository.ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := auth.New(sl.Discard(), repo, new(TokenMakerMock))
			tt.setupMocks(repo)

			got, err := svc.Register(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	hashed, err := password.Hash("correctpassword")
	require.NoError(t, err)
	user := &models.User{UID: "uid-1", Username: "kofi", PasswordHash: hashed, Role: models.RoleUser}

	tests := []struct {
		name       string
		password   string
		setupMocks func(r *UserRepoMock, j *TokenMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "successful login",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock, j *TokenMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "kofi").Return(user, nil).Once()
				j.On("GenerateToken", "uid-1", "kofi", models.RoleUser).Return("token", nil).Once()
			},
			wantToken: "token",
		},
		{
			name:     "wrong password",
			password: "nope",
			setupMocks: func(r *UserRepoMock, _ *TokenMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "kofi").Return(user, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock, _ *TokenMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "kofi").Return(nil, repository.ErrUserNotFound).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "token failure",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock, j *TokenMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "kofi").Return(user, nil).Once()
				j.On("GenerateToken", "uid-1", "kofi", models.RoleUser).Return("", errors.New("sign")).Once()
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tokens := new(TokenMakerMock)
			tt.setupMocks(repo, tokens)
			svc := auth.New(sl.Discard(), repo, tokens)

			token, got, err := svc.Login(context.Background(), "kofi", tt.password)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantToken == "":
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, user.UID, got.UID)
			}
			repo.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}
