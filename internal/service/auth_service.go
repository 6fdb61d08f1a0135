package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ramtsps/Art-Academy-Website/internal/config"
	"github.com/ramtsps/Art-Academy-Website/internal/domain"
	"github.com/ramtsps/Art-Academy-Website/internal/jwt"
	"github.com/ramtsps/Art-Academy-Website/internal/mail"
	"github.com/ramtsps/Art-Academy-Website/internal/otp"
	"github.com/ramtsps/Art-Academy-Website/internal/password"
	"github.com/ramtsps/Art-Academy-Website/internal/repository"
)

// ForgotPasswordMessage is returned whether or not the email exists, so
// responses cannot be used to enumerate accounts.
const ForgotPasswordMessage = "If an account with that email exists, an OTP has been sent."

// AuthError carries a client-safe message and the HTTP status to return.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func newAuthError(status int, message string) *AuthError {
	return &AuthError{Status: status, Message: message}
}

// Notifier enqueues best-effort notification mail.
type Notifier interface {
	Enqueue(msg mail.Message)
}

// AuthResult is the outcome of an operation that establishes a session.
type AuthResult struct {
	Token     string
	User      domain.User
	IsNewUser bool
}

// AuthService implements registration, login, social-login
// reconciliation, and the OTP password-reset flow.
type AuthService struct {
	users     repository.UserRepository
	tokens    *jwt.Generator
	notifier  Notifier
	mailer    mail.Mailer
	snowflake *snowflake.Node
	cfg       config.Config
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, tokens *jwt.Generator, notifier Notifier, mailer mail.Mailer, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		notifier:  notifier,
		mailer:    mailer,
		snowflake: node,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("github.com/ramtsps/Art-Academy-Website/internal/service"),
	}
}

// Register creates a local-credential account. The email must be unseen;
// concurrent registrations racing past the lookup are settled by the
// store's unique index, so at most one wins.
func (s *AuthService) Register(ctx context.Context, name, email, plaintext string) (*AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, newAuthError(http.StatusBadRequest, "User already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, newAuthError(http.StatusBadRequest, "Password must be at least 6 characters")
		}
		span.RecordError(err)
		return nil, err
	}

	user, err := s.users.Create(ctx, domain.User{
		ID:           s.snowflake.Generate().Int64(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Provider:     domain.ProviderEmail,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, newAuthError(http.StatusBadRequest, "User already exists")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Sign(user.ID, user.Email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.notifier.Enqueue(mail.Welcome(user.Name, user.Email))
	s.audit("register.success", "user_id", user.ID, "email", user.Email)
	return &AuthResult{Token: token, User: user, IsNewUser: true}, nil
}

// Login authenticates a local-credential account. Unknown email,
// passwordless record, and wrong password all fail identically.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, newAuthError(http.StatusBadRequest, "Invalid credentials")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user.PasswordHash == "" || !password.Verify(plaintext, user.PasswordHash) {
		return nil, newAuthError(http.StatusBadRequest, "Invalid credentials")
	}

	token, err := s.tokens.Sign(user.ID, user.Email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.notifier.Enqueue(mail.LoginNotification(user.Name, user.Email, domain.ProviderEmail))
	s.audit("login.success", "user_id", user.ID, "method", domain.ProviderEmail)
	return &AuthResult{Token: token, User: user}, nil
}

// SocialLogin reconciles a provider profile against stored accounts:
// matched records gain the provider linkage if absent and have name and
// avatar refreshed together; unmatched profiles become new accounts
// with no password.
func (s *AuthService) SocialLogin(ctx context.Context, provider string, profile domain.SocialProfile) (*AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.SocialLogin")
	defer span.End()

	if provider != domain.ProviderGoogle && provider != domain.ProviderFacebook {
		return nil, newAuthError(http.StatusBadRequest, "Unsupported provider")
	}

	user, err := s.users.GetByEmailOrProviderID(ctx, profile.Email, provider, profile.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s.createSocialUser(ctx, provider, profile)
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	if err := s.refreshSocialUser(ctx, &user, provider, profile); err != nil {
		span.RecordError(err)
		return nil, err
	}

	token, err := s.tokens.Sign(user.ID, user.Email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.notifier.Enqueue(mail.LoginNotification(user.Name, user.Email, provider))
	s.audit("login.success", "user_id", user.ID, "method", provider)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) createSocialUser(ctx context.Context, provider string, profile domain.SocialProfile) (*AuthResult, error) {
	user := domain.User{
		ID:        s.snowflake.Generate().Int64(),
		Name:      profile.Name,
		Email:     profile.Email,
		Avatar:    profile.Picture,
		Provider:  provider,
		CreatedAt: time.Now().UTC(),
	}
	switch provider {
	case domain.ProviderGoogle:
		user.GoogleID = profile.ID
	case domain.ProviderFacebook:
		user.FacebookID = profile.ID
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			// Lost a race with a concurrent login for the same email;
			// re-run reconciliation against the winner's record.
			return s.SocialLogin(ctx, provider, profile)
		}
		return nil, fmt.Errorf("create social user: %w", err)
	}

	token, err := s.tokens.Sign(created.ID, created.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.notifier.Enqueue(mail.SocialWelcome(created.Name, created.Email, provider))
	s.audit("register.success", "user_id", created.ID, "method", provider)
	return &AuthResult{Token: token, User: created, IsNewUser: true}, nil
}

// refreshSocialUser fills the provider id if the record lacks it and
// overwrites name and avatar together when either differs. Provider ids
// already on the record are never replaced.
func (s *AuthService) refreshSocialUser(ctx context.Context, user *domain.User, provider string, profile domain.SocialProfile) error {
	dirty := false

	if user.ProviderID(provider) == "" {
		switch provider {
		case domain.ProviderGoogle:
			user.GoogleID = profile.ID
		case domain.ProviderFacebook:
			user.FacebookID = profile.ID
		}
		dirty = true
	}

	if user.Name != profile.Name || user.Avatar != profile.Picture {
		user.Name = profile.Name
		user.Avatar = profile.Picture
		dirty = true
	}

	if !dirty {
		return nil
	}
	if err := s.users.Update(ctx, *user); err != nil {
		return fmt.Errorf("refresh social user: %w", err)
	}
	return nil
}

// ForgotPassword stores a fresh OTP and mails it. The OTP mail is the
// one synchronous send in the system: its failure surfaces to the
// caller. Unknown emails report the same success without sending.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := s.startSpan(ctx, "AuthService.ForgotPassword")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		span.RecordError(err)
		return fmt.Errorf("lookup email: %w", err)
	}

	code := otp.Generate()
	user.ResetOTP = code
	user.ResetExpires = time.Now().Add(s.cfg.OTPTTL)
	if err := s.users.Update(ctx, user); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.mailer.Send(ctx, mail.PasswordResetOTP(user.Name, user.Email, code, s.cfg.OTPTTL)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("send otp mail: %w", err)
	}

	s.audit("password.reset.requested", "user_id", user.ID)
	return nil
}

// VerifyOTP reports whether the code is currently valid for the email.
// Wrong code, wrong email, and expiry all yield the same failure.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	ctx, span := s.startSpan(ctx, "AuthService.VerifyOTP")
	defer span.End()

	if _, err := s.users.GetByEmailAndValidOTP(ctx, email, code, time.Now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return newAuthError(http.StatusBadRequest, "Invalid or expired OTP")
		}
		span.RecordError(err)
		return fmt.Errorf("verify otp: %w", err)
	}
	return nil
}

// ResetPassword re-validates the OTP (a prior VerifyOTP call is
// advisory, not trusted), replaces the password, and clears both OTP
// fields so the code cannot be replayed.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, plaintext string) error {
	ctx, span := s.startSpan(ctx, "AuthService.ResetPassword")
	defer span.End()

	if len(plaintext) < password.MinLength {
		return newAuthError(http.StatusBadRequest, "Password must be at least 6 characters")
	}

	user, err := s.users.GetByEmailAndValidOTP(ctx, email, code, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return newAuthError(http.StatusBadRequest, "Invalid or expired OTP")
		}
		span.RecordError(err)
		return fmt.Errorf("verify otp: %w", err)
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		span.RecordError(err)
		return err
	}

	user.PasswordHash = hash
	user.ResetOTP = ""
	user.ResetExpires = time.Time{}
	if err := s.users.Update(ctx, user); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store password: %w", err)
	}

	s.notifier.Enqueue(mail.PasswordResetSuccess(user.Name, user.Email))
	s.audit("password.reset.success", "user_id", user.ID)
	return nil
}

// Profile loads the account behind a verified token.
func (s *AuthService) Profile(ctx context.Context, userID int64) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Profile")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, newAuthError(http.StatusNotFound, "User not found")
		}
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("load profile: %w", err)
	}
	return user, nil
}

// VerifyToken proxies to the token generator.
func (s *AuthService) VerifyToken(token string) (*jwt.SessionClaims, error) {
	return s.tokens.Verify(strings.TrimSpace(token))
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
