package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"chatter-server/services/auth-api/internal/infrastructure/metrics"
)

// TokenIssuer is the token port of the service: it signs pairs and validates
// tokens of either kind.
type TokenIssuer interface {
	IssuePair(userID uuid.UUID) (TokenPair, error)
	IssueAccess(userID uuid.UUID) (string, error)
	// ParseToken validates a raw token of the expected type ("access" or
	// "refresh") and returns the subject, the jti and the expiry.
	ParseToken(raw, expectedType string) (TokenInfo, error)
}

// TokenPair is an access+refresh pair issued at login.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenInfo is the validated content of a token.
type TokenInfo struct {
	UserID    uuid.UUID
	JTI       string
	ExpiresAt time.Time
}

// Mailer delivers a verification OTP to an address.
type Mailer interface {
	SendOTP(ctx context.Context, email string, otp int) error
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	FirstName string `validate:"omitempty,max=150"`
	LastName  string `validate:"omitempty,max=150"`
	Username  string `validate:"required,min=3,max=150"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=8,max=128"`
}

// Service implements registration, login, OTP verification and the
// service-to-service token oracle.
type Service struct {
	repo     Repository
	denylist TokenDenylist
	issuer   TokenIssuer
	mailer   Mailer
	otpTTL   time.Duration
	log      zerolog.Logger
}

// NewService creates a user service.
func NewService(
	repo Repository,
	denylist TokenDenylist,
	issuer TokenIssuer,
	mailer Mailer,
	otpTTL time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		denylist: denylist,
		issuer:   issuer,
		mailer:   mailer,
		otpTTL:   otpTTL,
		log:      log.With().Str("component", "user-service").Logger(),
	}
}

// Register creates an account, hashes the password and mails the first OTP.
// Mail delivery is best effort; the account is created either way.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	metrics.RegistrationsTotal.Inc()
	s.issueOTP(ctx, u)
	return u, nil
}

// Login checks credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return TokenPair{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		return TokenPair{}, ErrInactive
	}

	pair, err := s.issuer.IssuePair(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return pair, nil
}

// Refresh rotates a new access token out of a valid, unrevoked refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	info, err := s.issuer.ParseToken(refreshToken, "refresh")
	if err != nil {
		return "", ErrInvalidToken
	}
	revoked, err := s.denylist.IsRevoked(ctx, info.JTI)
	if err != nil {
		return "", fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return "", ErrInvalidToken
	}
	if _, err := s.activeUser(ctx, info.UserID); err != nil {
		return "", err
	}
	return s.issuer.IssueAccess(info.UserID)
}

// VerifyOTP compares the submitted OTP against the stored one. An expired OTP
// is treated the same as a wrong one.
func (s *Service) VerifyOTP(ctx context.Context, userID uuid.UUID, otp int) error {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.OTP == nil || *u.OTP != otp {
		return ErrWrongOTP
	}
	if u.OTPExpiresAt == nil || time.Now().After(*u.OTPExpiresAt) {
		return ErrWrongOTP
	}
	return s.repo.MarkVerified(ctx, userID)
}

// ResendOTP regenerates and mails a fresh OTP.
func (s *Service) ResendOTP(ctx context.Context, userID uuid.UUID) error {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	s.issueOTP(ctx, u)
	return nil
}

// Profile returns the account behind the id.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

// Logout revokes the presented refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	info, err := s.issuer.ParseToken(refreshToken, "refresh")
	if err != nil {
		return ErrInvalidToken
	}
	return s.denylist.Revoke(ctx, &RevokedToken{
		JTI:       info.JTI,
		UserID:    info.UserID,
		ExpiresAt: info.ExpiresAt,
		RevokedAt: time.Now(),
	})
}

// VerifyAccessToken is the oracle behind the service-to-service endpoint: it
// resolves an access token to the live account it belongs to.
func (s *Service) VerifyAccessToken(ctx context.Context, token string) (*User, error) {
	info, err := s.issuer.ParseToken(token, "access")
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidToken
	}
	u, err := s.activeUser(ctx, info.UserID)
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
	return u, nil
}

// SearchByUsernames resolves usernames to accounts. Unknown usernames are
// simply absent from the result.
func (s *Service) SearchByUsernames(ctx context.Context, usernames []string) ([]*User, error) {
	return s.repo.FindByUsernames(ctx, usernames)
}

// Sweep clears expired OTPs and purges stale denylist rows. Run periodically.
func (s *Service) Sweep(ctx context.Context) {
	now := time.Now()
	metrics.SweepsTotal.Inc()

	if n, err := s.repo.ClearExpiredOTPs(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("clearing expired otps failed")
	} else if n > 0 {
		s.log.Info().Int64("cleared", n).Msg("expired otps cleared")
	}

	if n, err := s.denylist.PurgeExpired(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("purging denylist failed")
	} else if n > 0 {
		s.log.Info().Int64("purged", n).Msg("expired denylist rows purged")
	}
}

func (s *Service) activeUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return u, nil
}

// issueOTP stores and mails a fresh four digit OTP. Failures are logged, never
// propagated.
func (s *Service) issueOTP(ctx context.Context, u *User) {
	otp := randomOTP()
	expiresAt := time.Now().Add(s.otpTTL)

	if err := s.repo.SetOTP(ctx, u.ID, otp, expiresAt); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID.String()).Msg("storing otp failed")
		return
	}
	if err := s.mailer.SendOTP(ctx, u.Email, otp); err != nil {
		s.log.Error().Err(err).Str("email", u.Email).Msg("sending otp mail failed")
	}
}

func randomOTP() int {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken.
		return 1000 + int(time.Now().UnixNano()%9000)
	}
	return 1000 + int(n.Int64())
}
