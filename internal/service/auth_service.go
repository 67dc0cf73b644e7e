package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"minitasks/internal/auth"
	apperrors "minitasks/internal/errors"
	"minitasks/internal/metrics"
	"minitasks/internal/model"
	"minitasks/internal/repository"
)

const (
	bearerPrefix      = "Bearer "
	maxEmailLength    = 255
	minPasswordLength = 6
	// bcrypt ignores everything after 72 bytes and newer versions refuse it.
	maxPasswordLength = 72
)

// Session is the result of a successful register or login.
type Session struct {
	Token string
	User  *model.User
}

// AuthService handles registration, login and per-request authentication.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Authenticate(ctx context.Context, authorization string) (*auth.Identity, error)
	WhoAmI(ctx context.Context, identity *auth.Identity) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	hasher     auth.PasswordHasher
	log        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, hasher auth.PasswordHasher, log *slog.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		hasher:     hasher,
		log:        log,
	}
}

// Register creates a user with a hashed password and issues a token for it.
func (s *authService) Register(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperrors.InvalidArgument("email and password are required")
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		return nil, apperrors.InvalidArgument("email must be at most 255 characters")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.InvalidArgument("password must be at least 6 characters")
	}
	if len(password) > maxPasswordLength {
		return nil, apperrors.InvalidArgument("password must be at most 72 bytes")
	}

	// Check if user already exists
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		metrics.AuthFailures.WithLabelValues("register", "email_taken").Inc()
		return nil, apperrors.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("check user existence", err)
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Internal("hash password", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.AuthFailures.WithLabelValues("register", "email_taken").Inc()
			return nil, apperrors.ErrUserAlreadyExists
		}
		return nil, apperrors.Internal("create user", err)
	}

	return s.issue(user)
}

// Login checks credentials and issues a fresh token. Unknown email and wrong
// password produce the same error.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperrors.InvalidArgument("email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.AuthFailures.WithLabelValues("login", "unknown_email").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Internal("find user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		metrics.AuthFailures.WithLabelValues("login", "wrong_password").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Authenticate verifies a raw Authorization header value. The identity comes
// from the token claims alone; the user row is not consulted.
func (s *authService) Authenticate(ctx context.Context, authorization string) (*auth.Identity, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		metrics.AuthFailures.WithLabelValues("authenticate", "missing_bearer").Inc()
		return nil, apperrors.ErrTokenRequired
	}

	identity, err := s.jwtService.Verify(authorization[len(bearerPrefix):])
	if err != nil {
		metrics.AuthFailures.WithLabelValues("authenticate", "invalid_token").Inc()
		s.log.DebugContext(ctx, "token rejected", "error", err)
		return nil, apperrors.ErrInvalidToken
	}
	return identity, nil
}

// WhoAmI re-reads the authenticated user, catching accounts deleted after the
// token was issued.
func (s *authService) WhoAmI(ctx context.Context, identity *auth.Identity) (*model.User, error) {
	if identity == nil {
		return nil, apperrors.ErrTokenRequired
	}
	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Internal("find user", err)
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (*Session, error) {
	token, err := s.jwtService.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.Internal("issue token", err)
	}
	return &Session{Token: token, User: user}, nil
}
