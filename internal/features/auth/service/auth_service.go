package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	"pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/auth/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrCodeMismatch is returned when the submitted code does not match the challenge.
	ErrCodeMismatch = errors.New("incorrect otp code")
	// ErrChallengeExpired is returned when the challenge is unknown, used or expired.
	ErrChallengeExpired = errors.New("otp expired, request a new code")
	// ErrTooManyAttempts is returned once a challenge has exhausted its attempts.
	ErrTooManyAttempts = errors.New("too many incorrect attempts, request a new code")
)

// Options tunes the login flow.
type Options struct {
	OTPTTL         time.Duration
	OTPMaxAttempts int
	SessionTTL     time.Duration
}

// AuthService implements OTP login, logout and per-request session resolution.
type AuthService struct {
	users      ports.UserRepository
	sessions   ports.SessionStore
	challenges ports.ChallengeStore
	sms        ports.SMSSender
	opts       Options
	log        *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users ports.UserRepository, sessions ports.SessionStore, challenges ports.ChallengeStore, sms ports.SMSSender, opts Options) *AuthService {
	if opts.OTPMaxAttempts <= 0 {
		opts.OTPMaxAttempts = 5
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		challenges: challenges,
		sms:        sms,
		opts:       opts,
		log:        logger.Named("auth"),
	}
}

// SendOTP starts a login challenge for phone and returns its verification id.
func (s *AuthService) SendOTP(ctx context.Context, rawPhone string) (string, error) {
	phone, err := domain.NormalizePhone(rawPhone)
	if err != nil {
		return "", apperr.Invalid("phoneNumber", "enter a valid mobile number")
	}

	code, err := randomDigits(domain.LoginCodeLength)
	if err != nil {
		return "", fmt.Errorf("service: failed to generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("service: failed to hash otp: %w", err)
	}

	challenge := &domain.OTPChallenge{
		VerificationID: uuid.NewString(),
		PhoneNumber:    phone,
		CodeHash:       string(hash),
	}
	if err := s.challenges.Save(ctx, challenge, s.opts.OTPTTL); err != nil {
		return "", fmt.Errorf("service: failed to store otp challenge: %w", err)
	}

	msg := fmt.Sprintf("%s is your PixelPanic login code. It expires in %d minutes.", code, int(s.opts.OTPTTL.Minutes()))
	if err := s.sms.Send(ctx, phone, msg); err != nil {
		_ = s.challenges.Delete(ctx, challenge.VerificationID)
		return "", fmt.Errorf("service: failed to send otp: %w", err)
	}

	return challenge.VerificationID, nil
}

// VerifyOTP checks a login code, consumes the challenge and opens a session.
// It returns the user and the new session token.
func (s *AuthService) VerifyOTP(ctx context.Context, rawPhone, code, verificationID string) (*domain.User, string, error) {
	phone, err := domain.NormalizePhone(rawPhone)
	if err != nil {
		return nil, "", apperr.Invalid("phoneNumber", "enter a valid mobile number")
	}
	if err := domain.ValidateLoginCode(code); err != nil {
		return nil, "", apperr.Invalid("otpCode", err.Error())
	}
	if verificationID == "" {
		return nil, "", apperr.Invalid("verificationId", "is required")
	}

	challenge, err := s.challenges.Get(ctx, verificationID)
	if errors.Is(err, ports.ErrChallengeNotFound) {
		return nil, "", ErrChallengeExpired
	}
	if err != nil {
		return nil, "", fmt.Errorf("service: failed to load otp challenge: %w", err)
	}

	if challenge.PhoneNumber != phone {
		return nil, "", ErrChallengeExpired
	}

	// An exhausted challenge stays unusable even if burning it failed earlier.
	failures, err := s.challenges.Failures(ctx, verificationID)
	if err != nil {
		return nil, "", fmt.Errorf("service: failed to read otp attempts: %w", err)
	}
	if failures >= int64(s.opts.OTPMaxAttempts) {
		s.burnChallenge(ctx, verificationID)
		return nil, "", ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)) != nil {
		failures, err := s.challenges.RecordFailure(ctx, verificationID, s.opts.OTPTTL)
		if err != nil {
			return nil, "", fmt.Errorf("service: failed to record otp attempt: %w", err)
		}
		if failures >= int64(s.opts.OTPMaxAttempts) {
			s.burnChallenge(ctx, verificationID)
			return nil, "", ErrTooManyAttempts
		}
		return nil, "", ErrCodeMismatch
	}

	if err := s.challenges.Delete(ctx, verificationID); err != nil {
		return nil, "", fmt.Errorf("service: failed to consume otp challenge: %w", err)
	}

	user, err := s.users.FindOrCreateByPhone(ctx, phone)
	if err != nil {
		return nil, "", fmt.Errorf("service: failed to load user: %w", err)
	}

	token, err := s.sessions.Create(ctx, user.ID, s.opts.SessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("service: failed to create session: %w", err)
	}

	s.log.Info("User signed in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return user, token, nil
}

func (s *AuthService) burnChallenge(ctx context.Context, verificationID string) {
	if err := s.challenges.Delete(ctx, verificationID); err != nil {
		s.log.Warn("Failed to burn otp challenge", zap.Error(err))
	}
}

// Logout deletes the session. Failures are logged and otherwise ignored: logging out is best effort.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		s.log.Warn("Failed to delete session", zap.Error(err))
	}
}

// Resolve implements ports.Resolver. Every call re-reads the user so role changes apply immediately.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}

	userID, err := s.sessions.Lookup(ctx, token)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service: failed to look up session: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("service: failed to load session user: %w", err)
	}

	return user, nil
}

func randomDigits(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
