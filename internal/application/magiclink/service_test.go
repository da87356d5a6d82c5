package magiclink

import (
	"context"
	"testing"
	"time"

	"github.com/review-auth-api/internal/domain"
	redisstore "github.com/review-auth-api/internal/infrastructure/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

// --- helpers ---

func newFixture() (Service, *redisstore.Memory, *mockUserStore, *mockMailer) {
	kv := redisstore.NewMemory()
	us := &mockUserStore{}
	mm := &mockMailer{}
	svc := NewService(ServiceDeps{
		UserRepo:        us,
		KV:              kv,
		Mailer:          mm,
		FrontendBaseURL: "https://app.example.com",
	})
	return svc, kv, us, mm
}

func storedCode(t *testing.T, kv *redisstore.Memory, email string) string {
	t.Helper()
	code, ok, err := kv.Get(context.Background(), email)
	require.NoError(t, err)
	require.True(t, ok, "expected a live code entry for %s", email)
	return code
}

// --- Backoff ---

func TestBackoff_Schedule(t *testing.T) {
	assert.Equal(t, 30*time.Second, Backoff(0))
	assert.Equal(t, 60*time.Second, Backoff(1))
	assert.Equal(t, 120*time.Second, Backoff(2))
	assert.Equal(t, 120*time.Second, Backoff(9))
}

// --- SignUp ---

func TestSignUp_ExistingUser(t *testing.T) {
	svc, _, us, _ := newFixture()
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)

	err := svc.SignUp(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestSignUp_OutstandingCode(t *testing.T) {
	svc, kv, us, _ := newFixture()
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	require.NoError(t, kv.SetWithTTL(context.Background(), "a@x.com", "C1", time.Minute))

	err := svc.SignUp(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, domain.ErrTooManyRequests)
}

func TestSignUp_AlreadyVerified(t *testing.T) {
	svc, kv, us, _ := newFixture()
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	require.NoError(t, kv.SetWithTTL(context.Background(), "verify-a@x.com", "verified", time.Hour))

	err := svc.SignUp(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, domain.ErrEmailVerified)
}

func TestSignUp_SendsCode(t *testing.T) {
	svc, kv, us, mm := newFixture()
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	mm.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.SignUp(context.Background(), "a@x.com"))

	code := storedCode(t, kv, "a@x.com")
	assert.Len(t, code, 32)
	mm.AssertNumberOfCalls(t, "SendEmail", 1)

	// The email body embeds the code in the verification link.
	body := mm.Calls[0].Arguments.String(2)
	assert.Contains(t, body, code)
	assert.Contains(t, body, "https://app.example.com/auth/verify")
}

// --- SendMagicLink / resend throttling ---

func TestSendMagicLink_SecondCallWithinBackoff(t *testing.T) {
	svc, _, _, mm := newFixture()
	mm.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.SendMagicLink(context.Background(), "a@x.com"))
	err := svc.SendMagicLink(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, domain.ErrTooManyRequests)
	mm.AssertNumberOfCalls(t, "SendEmail", 1)
}

func TestSendMagicLink_BackoffGrowsWithCount(t *testing.T) {
	svc, kv, _, mm := newFixture()
	mm.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	now := time.Now()
	kv.SetClock(func() time.Time { return now })
	require.NoError(t, svc.SendMagicLink(ctx, "a@x.com"))

	// 31s later the first 30s throttle has lapsed; the second send arms a
	// 60s window.
	now = now.Add(31 * time.Second)
	require.NoError(t, svc.SendMagicLink(ctx, "a@x.com"))

	// 31s into the 60s window the throttle still holds.
	now = now.Add(31 * time.Second)
	assert.ErrorIs(t, svc.SendMagicLink(ctx, "a@x.com"), domain.ErrTooManyRequests)

	// Past the 60s window it lapses again.
	now = now.Add(30 * time.Second)
	require.NoError(t, svc.SendMagicLink(ctx, "a@x.com"))
}

func TestResendMagicLink_SamePolicy(t *testing.T) {
	svc, _, _, mm := newFixture()
	mm.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.ResendMagicLink(context.Background(), "a@x.com"))
	assert.ErrorIs(t, svc.ResendMagicLink(context.Background(), "a@x.com"), domain.ErrTooManyRequests)
}

// --- VerifyMagicLink ---

func TestVerifyMagicLink_WrongCode_LeavesCodeValid(t *testing.T) {
	svc, kv, _, mm := newFixture()
	mm.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	require.NoError(t, svc.SendMagicLink(ctx, "a@x.com"))
	code := storedCode(t, kv, "a@x.com")

	_, err := svc.VerifyMagicLink(ctx, "a@x.com", "wrong-code", true)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	// Failure is idempotent: the original code survives and still verifies.
	assert.Equal(t, code, storedCode(t, kv, "a@x.com"))
	_, err = svc.VerifyMagicLink(ctx, "a@x.com", code, true)
	require.NoError(t, err)
}

func TestVerifyMagicLink_NoStoredCode(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.VerifyMagicLink(context.Background(), "a@x.com", "anything", true)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerifyMagicLink_SignUp_SetsVerifiedMarkerAndClearsState(t *testing.T) {
	svc, kv, us, mm := newFixture()
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	mm.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	require.NoError(t, svc.SignUp(ctx, "a@x.com"))
	code := storedCode(t, kv, "a@x.com")

	res, err := svc.VerifyMagicLink(ctx, "a@x.com", code, true)
	require.NoError(t, err)
	assert.Nil(t, res.User)

	// Code, throttle and counter are gone; the verified marker is live.
	_, ok, _ := kv.Get(ctx, "a@x.com")
	assert.False(t, ok)
	_, ok, _ = kv.Get(ctx, "resend-a@x.com")
	assert.False(t, ok)
	_, ok, _ = kv.Get(ctx, "resend-count-a@x.com")
	assert.False(t, ok)
	v, ok, _ := kv.Get(ctx, "verify-a@x.com")
	require.True(t, ok)
	assert.Equal(t, "verified", v)

	// A repeat signup is now rejected until the marker expires.
	assert.ErrorIs(t, svc.SignUp(ctx, "a@x.com"), domain.ErrEmailVerified)
}

func TestVerifyMagicLink_SignIn_UnknownUser(t *testing.T) {
	svc, kv, us, _ := newFixture()
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	ctx := context.Background()
	require.NoError(t, kv.SetWithTTL(ctx, "a@x.com", "C1", time.Minute))

	_, err := svc.VerifyMagicLink(ctx, "a@x.com", "C1", false)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerifyMagicLink_SignIn_ReturnsUser(t *testing.T) {
	svc, kv, us, _ := newFixture()
	u := &domain.User{UserID: "u1", Email: "a@x.com", Roles: []string{domain.RoleAuthor}}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(u, nil)
	ctx := context.Background()
	require.NoError(t, kv.SetWithTTL(ctx, "a@x.com", "C1", time.Minute))

	res, err := svc.VerifyMagicLink(ctx, "a@x.com", "C1", false)
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, "u1", res.User.UserID)

	// Single-use: the same code cannot verify twice.
	_, err = svc.VerifyMagicLink(ctx, "a@x.com", "C1", false)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerifyMagicLink_ResetsResendCounter(t *testing.T) {
	svc, kv, us, mm := newFixture()
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	mm.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	now := time.Now()
	kv.SetClock(func() time.Time { return now })
	require.NoError(t, svc.SendMagicLink(ctx, "a@x.com"))
	now = now.Add(31 * time.Second)
	require.NoError(t, svc.SendMagicLink(ctx, "a@x.com"))

	code := storedCode(t, kv, "a@x.com")
	_, err := svc.VerifyMagicLink(ctx, "a@x.com", code, true)
	require.NoError(t, err)

	// After verification the counter restarts, so the next send gets the
	// initial 30s backoff again.
	kv.Delete(ctx, "verify-a@x.com")
	require.NoError(t, svc.SendMagicLink(ctx, "a@x.com"))
	now = now.Add(31 * time.Second)
	require.NoError(t, svc.SendMagicLink(ctx, "a@x.com"))
}
