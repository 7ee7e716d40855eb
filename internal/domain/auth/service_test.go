package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"stockward/internal/core/apperror"
	appctx "stockward/internal/core/context"
	"stockward/internal/core/id"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	users map[string]*User // by email
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	cp := *user
	r.users[user.Email] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	for _, u := range r.users {
		if u.ID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", userID.String())
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *User) error {
	cp := *user
	r.users[user.Email] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, userID id.ID) error { return nil }

func (r *fakeUserRepo) List(ctx context.Context, filter UserFilter) ([]User, int, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	_, ok := r.users[email]
	return ok, nil
}

type fakeTokenRepo struct {
	tokens map[string]*RefreshToken // by hash
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (r *fakeTokenRepo) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	cp := *token
	r.tokens[token.TokenHash] = &cp
	return nil
}

func (r *fakeTokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh_token", tokenHash)
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	for _, t := range r.tokens {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (r *fakeTokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (r *fakeTokenRepo) CleanupExpiredTokens(ctx context.Context) (int, error) { return 0, nil }

func (r *fakeTokenRepo) activeCount(userID id.ID) int {
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

type authFixture struct {
	users   *fakeUserRepo
	tokens  *fakeTokenRepo
	jwt     *JWTService
	service *Service
}

func newAuthFixture() *authFixture {
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	jwtService := NewJWTService(DefaultJWTConfig("test-secret"))
	return &authFixture{
		users:   users,
		tokens:  tokens,
		jwt:     jwtService,
		service: NewService(users, tokens, passthroughTx{}, jwtService, DefaultServiceConfig()),
	}
}

// addUser seeds a user directly, bypassing Register, so tests do not pay
// for bcrypt at default cost.
func (f *authFixture) addUser(t *testing.T, email, password, role string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := NewUser(email, string(hash))
	user.Role = role
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to clerk role", func(t *testing.T) {
		f := newAuthFixture()
		user, err := f.service.Register(ctx, RegisterRequest{
			Email:    "clerk@example.com",
			Password: "longenough",
		})
		require.NoError(t, err)
		assert.Equal(t, appctx.RoleClerk, user.Role)
		assert.True(t, user.IsActive)
		assert.NotEqual(t, "longenough", user.PasswordHash)
	})

	t.Run("short password rejected", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.service.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "short"})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		f := newAuthFixture()
		f.addUser(t, "taken@example.com", "password1", appctx.RoleClerk)

		_, err := f.service.Register(ctx, RegisterRequest{Email: "taken@example.com", Password: "password1"})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.service.Register(ctx, RegisterRequest{
			Email:    "x@example.com",
			Password: "longenough",
			Role:     "superuser",
		})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues tokens with role claim", func(t *testing.T) {
		f := newAuthFixture()
		f.addUser(t, "admin@example.com", "correct-horse", appctx.RoleAdmin)

		pair, user, err := f.service.Login(ctx, Credentials{Email: "admin@example.com", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.NotEmpty(t, pair.RefreshToken)
		require.NotNil(t, user.LastLoginAt)

		uc, err := f.jwt.ValidateToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), uc.UserID)
		assert.Equal(t, appctx.RoleAdmin, uc.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.addUser(t, "u@example.com", "correct-horse", appctx.RoleClerk)

		_, _, err := f.service.Login(ctx, Credentials{Email: "u@example.com", Password: "wrong"})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
		assert.Equal(t, 1, f.users.users["u@example.com"].FailedLoginAttempts)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture()
		_, _, err := f.service.Login(ctx, Credentials{Email: "nobody@example.com", Password: "whatever"})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
	})

	t.Run("locks after repeated failures", func(t *testing.T) {
		f := newAuthFixture()
		f.addUser(t, "locked@example.com", "correct-horse", appctx.RoleClerk)

		for i := 0; i < f.service.config.MaxLoginAttempts; i++ {
			_, _, err := f.service.Login(ctx, Credentials{Email: "locked@example.com", Password: "wrong"})
			require.Error(t, err)
		}

		// Even the right password is refused while locked.
		_, _, err := f.service.Login(ctx, Credentials{Email: "locked@example.com", Password: "correct-horse"})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
	})

	t.Run("disabled account", func(t *testing.T) {
		f := newAuthFixture()
		user := f.addUser(t, "off@example.com", "correct-horse", appctx.RoleClerk)
		user.IsActive = false
		require.NoError(t, f.users.Update(ctx, user))

		_, _, err := f.service.Login(ctx, Credentials{Email: "off@example.com", Password: "correct-horse"})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
	})
}

func TestRefreshToken_Rotation(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.addUser(t, "u@example.com", "correct-horse", appctx.RoleClerk)

	pair, user, err := f.service.Login(ctx, Credentials{Email: "u@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, 1, f.tokens.activeCount(user.ID))

	newPair, err := f.service.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// The old refresh token is revoked; replaying it fails.
	_, err = f.service.RefreshToken(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))

	assert.Equal(t, 1, f.tokens.activeCount(user.ID))
}

func TestRefreshToken_Garbage(t *testing.T) {
	f := newAuthFixture()
	_, err := f.service.RefreshToken(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.addUser(t, "u@example.com", "correct-horse", appctx.RoleClerk)

	pair, user, err := f.service.Login(ctx, Credentials{Email: "u@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, user.ID))
	assert.Equal(t, 0, f.tokens.activeCount(user.ID))

	_, err = f.service.RefreshToken(ctx, pair.RefreshToken)
	require.Error(t, err)
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes refresh tokens", func(t *testing.T) {
		f := newAuthFixture()
		f.addUser(t, "u@example.com", "correct-horse", appctx.RoleClerk)

		_, user, err := f.service.Login(ctx, Credentials{Email: "u@example.com", Password: "correct-horse"})
		require.NoError(t, err)
		require.Equal(t, 1, f.tokens.activeCount(user.ID))

		require.NoError(t, f.service.SetRole(ctx, user.ID, appctx.RoleAdmin))
		assert.Equal(t, appctx.RoleAdmin, f.users.users["u@example.com"].Role)
		assert.Equal(t, 0, f.tokens.activeCount(user.ID))
	})

	t.Run("same role is a no-op", func(t *testing.T) {
		f := newAuthFixture()
		user := f.addUser(t, "u@example.com", "correct-horse", appctx.RoleClerk)

		_, _, err := f.service.Login(ctx, Credentials{Email: "u@example.com", Password: "correct-horse"})
		require.NoError(t, err)

		require.NoError(t, f.service.SetRole(ctx, user.ID, appctx.RoleClerk))
		assert.Equal(t, 1, f.tokens.activeCount(user.ID))
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		f := newAuthFixture()
		user := f.addUser(t, "u@example.com", "correct-horse", appctx.RoleClerk)

		err := f.service.SetRole(ctx, user.ID, "root")
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture()
		err := f.service.SetRole(ctx, id.New(), appctx.RoleAdmin)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	})
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.addUser(t, "u@example.com", "correct-horse", appctx.RoleClerk)

	_, user, err := f.service.Login(ctx, Credentials{Email: "u@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, f.service.SetActive(ctx, user.ID, false))
	assert.False(t, f.users.users["u@example.com"].IsActive)
	assert.Equal(t, 0, f.tokens.activeCount(user.ID))

	require.NoError(t, f.service.SetActive(ctx, user.ID, true))
	assert.True(t, f.users.users["u@example.com"].IsActive)
}
