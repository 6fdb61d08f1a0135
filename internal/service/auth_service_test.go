package service_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ramtsps/Art-Academy-Website/internal/config"
	"github.com/ramtsps/Art-Academy-Website/internal/domain"
	"github.com/ramtsps/Art-Academy-Website/internal/jwt"
	"github.com/ramtsps/Art-Academy-Website/internal/mail"
	"github.com/ramtsps/Art-Academy-Website/internal/service"
)

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]domain.User)}
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *memoryUserRepo) GetByEmailOrProviderID(_ context.Context, email, provider, providerID string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email || (providerID != "" && u.ProviderID(provider) == providerID) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *memoryUserRepo) GetByEmailAndValidOTP(_ context.Context, email, otp string, now time.Time) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email && u.HasValidOTP(otp, now) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *memoryUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.User{}, domain.ErrDuplicateEmail
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryUserRepo) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *memoryUserRepo) byEmail(t *testing.T, email string) domain.User {
	t.Helper()
	u, err := r.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

func (r *memoryUserRepo) put(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (n *captureNotifier) Enqueue(msg mail.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *captureNotifier) subjects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, m := range n.sent {
		out[i] = m.Subject
	}
	return out
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

type authFixture struct {
	svc      *service.AuthService
	repo     *memoryUserRepo
	notifier *captureNotifier
	mailer   *captureMailer
	tokens   *jwt.Generator
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := newMemoryUserRepo()
	notifier := &captureNotifier{}
	mailer := &captureMailer{}
	tokens := jwt.NewGenerator("test-secret", time.Hour, "art-academy")
	cfg := config.Config{OTPTTL: 15 * time.Minute}

	return &authFixture{
		svc:      service.NewAuthService(repo, tokens, notifier, mailer, node, cfg, zap.NewNop()),
		repo:     repo,
		notifier: notifier,
		mailer:   mailer,
		tokens:   tokens,
	}
}

func requireAuthError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var authErr *service.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, status, authErr.Status)
	require.Equal(t, message, authErr.Message)
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)
	require.True(t, res.IsNewUser)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "Amy", res.User.Name)
	require.Equal(t, domain.ProviderEmail, res.User.Provider)
	require.NotEmpty(t, res.User.PasswordHash)
	require.NotEqual(t, "secret1", res.User.PasswordHash)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, "amy@example.com", claims.Email)

	require.Contains(t, f.notifier.subjects(), "Welcome to Primiya's Art! 🎨")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "Other Amy", "amy@example.com", "another1")
	requireAuthError(t, err, http.StatusBadRequest, "User already exists")
	require.Equal(t, 1, f.repo.count())
}

func TestRegisterShortPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "Amy", "amy@example.com", "abc")
	requireAuthError(t, err, http.StatusBadRequest, "Password must be at least 6 characters")
	require.Equal(t, 0, f.repo.count())
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)

	res, err := f.svc.Login(ctx, "amy@example.com", "secret1")
	require.NoError(t, err)
	require.False(t, res.IsNewUser)
	require.NotEmpty(t, res.Token)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)

	// Social-only account with no password.
	_, err = f.svc.SocialLogin(ctx, domain.ProviderGoogle, domain.SocialProfile{
		ID: "g-1", Name: "Bob", Email: "bob@example.com",
	})
	require.NoError(t, err)

	cases := map[string][2]string{
		"unknown email":        {"nobody@example.com", "secret1"},
		"wrong password":       {"amy@example.com", "wrong-1"},
		"passwordless account": {"bob@example.com", "secret1"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, c[0], c[1])
			requireAuthError(t, err, http.StatusBadRequest, "Invalid credentials")
		})
	}
}

func TestSocialLoginCreatesThenReuses(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	profile := domain.SocialProfile{ID: "g-42", Name: "Amy", Email: "amy@example.com", Picture: "https://pic/a.png"}

	first, err := f.svc.SocialLogin(ctx, domain.ProviderGoogle, profile)
	require.NoError(t, err)
	require.True(t, first.IsNewUser)
	require.Equal(t, "g-42", first.User.GoogleID)
	require.Empty(t, first.User.PasswordHash)

	second, err := f.svc.SocialLogin(ctx, domain.ProviderGoogle, profile)
	require.NoError(t, err)
	require.False(t, second.IsNewUser)
	require.Equal(t, first.User.ID, second.User.ID)
	require.Equal(t, 1, f.repo.count())
}

func TestSocialLoginLinksExistingLocalAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)

	res, err := f.svc.SocialLogin(ctx, domain.ProviderGoogle, domain.SocialProfile{
		ID: "g-42", Name: "Amy", Email: "amy@example.com",
	})
	require.NoError(t, err)
	require.False(t, res.IsNewUser)
	require.Equal(t, reg.User.ID, res.User.ID)
	require.Equal(t, "g-42", res.User.GoogleID)
	require.Equal(t, 1, f.repo.count())

	// The local password survives the linkage.
	_, err = f.svc.Login(ctx, "amy@example.com", "secret1")
	require.NoError(t, err)
}

func TestSocialLoginNeverReplacesProviderID(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.SocialLogin(ctx, domain.ProviderGoogle, domain.SocialProfile{
		ID: "g-old", Name: "Amy", Email: "amy@example.com",
	})
	require.NoError(t, err)

	res, err := f.svc.SocialLogin(ctx, domain.ProviderGoogle, domain.SocialProfile{
		ID: "g-new", Name: "Amy", Email: "amy@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "g-old", res.User.GoogleID)
}

func TestSocialLoginRefreshesNameAndAvatar(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.SocialLogin(ctx, domain.ProviderFacebook, domain.SocialProfile{
		ID: "fb-1", Name: "Amy", Email: "amy@example.com", Picture: "https://pic/old.png",
	})
	require.NoError(t, err)

	res, err := f.svc.SocialLogin(ctx, domain.ProviderFacebook, domain.SocialProfile{
		ID: "fb-1", Name: "Amy Lee", Email: "amy@example.com", Picture: "https://pic/new.png",
	})
	require.NoError(t, err)
	require.Equal(t, "Amy Lee", res.User.Name)
	require.Equal(t, "https://pic/new.png", res.User.Avatar)

	stored := f.repo.byEmail(t, "amy@example.com")
	require.Equal(t, "Amy Lee", stored.Name)
	require.Equal(t, "https://pic/new.png", stored.Avatar)
}

func TestSocialLoginLinksSecondProvider(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.SocialLogin(ctx, domain.ProviderGoogle, domain.SocialProfile{
		ID: "g-1", Name: "Amy", Email: "amy@example.com",
	})
	require.NoError(t, err)

	res, err := f.svc.SocialLogin(ctx, domain.ProviderFacebook, domain.SocialProfile{
		ID: "fb-1", Name: "Amy", Email: "amy@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "g-1", res.User.GoogleID)
	require.Equal(t, "fb-1", res.User.FacebookID)
	require.Equal(t, 1, f.repo.count())
}

func TestSocialLoginRejectsUnknownProvider(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.SocialLogin(context.Background(), "github", domain.SocialProfile{
		ID: "gh-1", Name: "Amy", Email: "amy@example.com",
	})
	requireAuthError(t, err, http.StatusBadRequest, "Unsupported provider")
}

func TestForgotPasswordStoresOTPAndMails(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, "amy@example.com"))

	stored := f.repo.byEmail(t, "amy@example.com")
	require.Len(t, stored.ResetOTP, 6)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), stored.ResetExpires, time.Minute)

	msgs := f.mailer.messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "amy@example.com", msgs[0].To)
	require.Contains(t, msgs[0].HTML, stored.ResetOTP)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "nobody@example.com"))
	require.Empty(t, f.mailer.messages())
}

func TestForgotPasswordSurfacesMailFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)

	f.mailer.err = errors.New("smtp down")
	err = f.svc.ForgotPassword(ctx, "amy@example.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "send otp mail")
}

func TestVerifyOTP(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, "amy@example.com"))

	code := f.repo.byEmail(t, "amy@example.com").ResetOTP
	require.NoError(t, f.svc.VerifyOTP(ctx, "amy@example.com", code))

	err = f.svc.VerifyOTP(ctx, "amy@example.com", "000000")
	requireAuthError(t, err, http.StatusBadRequest, "Invalid or expired OTP")

	err = f.svc.VerifyOTP(ctx, "other@example.com", code)
	requireAuthError(t, err, http.StatusBadRequest, "Invalid or expired OTP")
}

func TestVerifyOTPExpiry(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, "amy@example.com"))

	user := f.repo.byEmail(t, "amy@example.com")
	code := user.ResetOTP

	// Still inside the validity window.
	user.ResetExpires = time.Now().Add(time.Minute)
	f.repo.put(user)
	require.NoError(t, f.svc.VerifyOTP(ctx, "amy@example.com", code))

	// Just past it.
	user.ResetExpires = time.Now().Add(-time.Second)
	f.repo.put(user)
	err = f.svc.VerifyOTP(ctx, "amy@example.com", code)
	requireAuthError(t, err, http.StatusBadRequest, "Invalid or expired OTP")
}

func TestResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "oldsecret")
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, "amy@example.com"))
	code := f.repo.byEmail(t, "amy@example.com").ResetOTP

	require.NoError(t, f.svc.ResetPassword(ctx, "amy@example.com", code, "newsecret"))

	_, err = f.svc.Login(ctx, "amy@example.com", "oldsecret")
	requireAuthError(t, err, http.StatusBadRequest, "Invalid credentials")
	_, err = f.svc.Login(ctx, "amy@example.com", "newsecret")
	require.NoError(t, err)

	// The code is cleared and cannot be replayed.
	stored := f.repo.byEmail(t, "amy@example.com")
	require.Empty(t, stored.ResetOTP)
	require.True(t, stored.ResetExpires.IsZero())
	err = f.svc.ResetPassword(ctx, "amy@example.com", code, "thirdsecret")
	requireAuthError(t, err, http.StatusBadRequest, "Invalid or expired OTP")
}

func TestResetPasswordRejectsShortPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "oldsecret")
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, "amy@example.com"))
	code := f.repo.byEmail(t, "amy@example.com").ResetOTP

	err = f.svc.ResetPassword(ctx, "amy@example.com", code, "abc")
	requireAuthError(t, err, http.StatusBadRequest, "Password must be at least 6 characters")

	// The rejected attempt does not consume the OTP.
	require.NoError(t, f.svc.ResetPassword(ctx, "amy@example.com", code, "newsecret"))
}

func TestResetPasswordWrongOTP(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Amy", "amy@example.com", "oldsecret")
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, "amy@example.com"))

	err = f.svc.ResetPassword(ctx, "amy@example.com", "000000", "newsecret")
	requireAuthError(t, err, http.StatusBadRequest, "Invalid or expired OTP")

	// Old password still works.
	_, err = f.svc.Login(ctx, "amy@example.com", "oldsecret")
	require.NoError(t, err)
}

func TestProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)

	user, err := f.svc.Profile(ctx, reg.User.ID)
	require.NoError(t, err)
	require.Equal(t, "amy@example.com", user.Email)

	_, err = f.svc.Profile(ctx, reg.User.ID+1)
	requireAuthError(t, err, http.StatusNotFound, "User not found")
}

func TestVerifyTokenTrimsWhitespace(t *testing.T) {
	f := newAuthFixture(t)

	reg, err := f.svc.Register(context.Background(), "Amy", "amy@example.com", "secret1")
	require.NoError(t, err)

	claims, err := f.svc.VerifyToken(" " + reg.Token + " ")
	require.NoError(t, err)
	require.Equal(t, "amy@example.com", claims.Email)
}

// The full account lifecycle as one scenario: register, link a social
// provider, lose the password, reset it with the mailed code, log back
// in, and read the profile with the fresh token.
func TestAccountLifecycle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "Amy", "amy@example.com", "firstpass")
	require.NoError(t, err)

	social, err := f.svc.SocialLogin(ctx, domain.ProviderGoogle, domain.SocialProfile{
		ID: "g-amy", Name: "Amy", Email: "amy@example.com", Picture: "https://pic/amy.png",
	})
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, social.User.ID)

	require.NoError(t, f.svc.ForgotPassword(ctx, "amy@example.com"))
	code := f.repo.byEmail(t, "amy@example.com").ResetOTP
	require.NoError(t, f.svc.VerifyOTP(ctx, "amy@example.com", code))
	require.NoError(t, f.svc.ResetPassword(ctx, "amy@example.com", code, "secondpass"))

	res, err := f.svc.Login(ctx, "amy@example.com", "secondpass")
	require.NoError(t, err)

	claims, err := f.svc.VerifyToken(res.Token)
	require.NoError(t, err)
	userID, err := claims.ParsedUserID()
	require.NoError(t, err)

	profile, err := f.svc.Profile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "g-amy", profile.GoogleID)
	require.Equal(t, "https://pic/amy.png", profile.Avatar)

	subjects := strings.Join(f.notifier.subjects(), "|")
	require.Contains(t, subjects, "Password Reset Successful")
}
