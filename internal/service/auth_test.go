package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

func testUser(t *testing.T) model.User {
	t.Helper()
	hash, err := HashPassword("1234", bcrypt.MinCost)
	require.NoError(t, err)
	return model.User{ID: 7, Name: "Alice", Email: "alice@test.local", Role: model.RoleMember, PasswordHash: hash}
}

func TestAuthService_Login(t *testing.T) {
	user := testUser(t)

	tests := []struct {
		name      string
		email     string
		password  string
		setupMock func(m *MockUserRepository)
		wantKind  apperr.Kind
	}{
		{
			name:     "valid credentials",
			email:    user.Email,
			password: "1234",
			setupMock: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
			},
		},
		{
			name:     "wrong password",
			email:    user.Email,
			password: "4321",
			setupMock: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
			},
			wantKind: apperr.Unauthorized,
		},
		{
			name:     "unknown email",
			email:    "nobody@test.local",
			password: "1234",
			setupMock: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "nobody@test.local").Return(model.User{}, repo.ErrorNotFound)
			},
			wantKind: apperr.Unauthorized,
		},
		{
			name:      "missing password",
			email:     user.Email,
			setupMock: func(m *MockUserRepository) {},
			wantKind:  apperr.InvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tt.setupMock(users)

			auth := NewAuthService(users, "secret", time.Hour)
			token, got, err := auth.Login(context.Background(), tt.email, tt.password)

			if tt.wantKind != "" {
				assert.ErrorIs(t, err, tt.wantKind)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, user.ID, got.ID)

				requester, err := auth.Authenticate(token)
				require.NoError(t, err)
				assert.Equal(t, model.Requester{ID: user.ID, Role: model.RoleMember}, requester)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginStorageError(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "a@test.local").Return(model.User{}, errors.New("db down"))

	_, _, err := NewAuthService(users, "secret", time.Hour).Login(context.Background(), "a@test.local", "1234")
	require.Error(t, err)
	_, known := apperr.KindOf(err)
	assert.False(t, known, "storage errors are not credential errors")
}

func TestAuthService_Authenticate(t *testing.T) {
	auth := NewAuthService(nil, "secret", time.Hour)
	admin := model.User{ID: 1, Role: model.RoleAdmin}

	valid, err := auth.IssueToken(admin)
	require.NoError(t, err)

	expired := NewAuthService(nil, "secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.IssueToken(admin)
	require.NoError(t, err)

	otherSecret, err := NewAuthService(nil, "other", time.Hour).IssueToken(admin)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": 1, "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": 1, "role": "root", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: valid},
		{name: "expired", token: expiredToken, wantErr: true},
		{name: "wrong secret", token: otherSecret, wantErr: true},
		{name: "alg none", token: noneAlg, wantErr: true},
		{name: "unknown role", token: badRole, wantErr: true},
		{name: "garbage", token: "not-a-token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requester, err := auth.Authenticate(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.Unauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.Requester{ID: 1, Role: model.RoleAdmin}, requester)
		})
	}
}
