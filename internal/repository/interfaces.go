package repository

import (
	"context"
	"time"

	"github.com/ramtsps/Art-Academy-Website/internal/domain"
)

// UserRepository exposes persistence for user accounts. Lookups return
// domain.ErrNotFound when no record matches; writes return
// domain.ErrDuplicateEmail when the unique email constraint rejects them.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	// GetByEmailOrProviderID matches on email or on the social id column
	// for the named provider, whichever hits first.
	GetByEmailOrProviderID(ctx context.Context, email, provider, providerID string) (domain.User, error)
	// GetByEmailAndValidOTP matches only when the stored reset code
	// equals otp and has not expired at now.
	GetByEmailAndValidOTP(ctx context.Context, email, otp string, now time.Time) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Update(ctx context.Context, user domain.User) error
}
