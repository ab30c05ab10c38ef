package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for password hashing
const BcryptCost = 10

var (
	ErrInvalidCredentials     = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	ErrAuthenticationRequired = fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	ErrMissingFields          = fmt.Errorf("username, email and password are required: %w", domain.ErrBadRequest)
	ErrInvalidAdminCode       = fmt.Errorf("invalid admin code: %w", domain.ErrForbidden)
	ErrAdminRequired          = fmt.Errorf("admin role required: %w", domain.ErrForbidden)
	ErrNotOwner               = fmt.Errorf("only the owner may change this product: %w", domain.ErrForbidden)
)

// RegisterInput carries a registration request. Avatar is the chosen avatar
// number, nil when none was picked.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Role      string
	Avatar    *int
	AdminCode string
}

// AuthResult is returned by login and registration
type AuthResult struct {
	Token string             `json:"token"`
	User  domain.UserProfile `json:"user"`
}

// AuthService authenticates callers and enforces the mutation policy
type AuthService interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	// Resolve maps a bearer token to a caller. Unknown, expired or malformed
	// tokens resolve to domain.Anonymous without an error.
	Resolve(ctx context.Context, token string) (domain.Identity, error)
	AuthorizeMutation(caller domain.Identity, product *domain.Product) error
}

// AuthConfig holds the settings of the auth service
type AuthConfig struct {
	AdminCode  string
	SessionTTL time.Duration
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   TokenIssuer
	cfg      AuthConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens TokenIssuer,
	cfg AuthConfig,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Login checks the credentials and opens a new session
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := verifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// Register creates an account and opens a session for it. Missing fields are
// reported before a taken email, which is reported before a bad admin code.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrUserAlreadyExists
	}

	role := domain.ParseRole(in.Role)
	if role == domain.RoleAdmin && !s.validAdminCode(in.AdminCode) {
		s.logger.Warn("Admin registration rejected", zap.String("email", in.Email))
		return nil, ErrInvalidAdminCode
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("password too long: %w", domain.ErrBadRequest)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatar := domain.DefaultAvatar(role)
	if in.Avatar != nil {
		avatar = "avatar-" + strconv.Itoa(*in.Avatar)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         in.Username,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		Avatar:       avatar,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	// Create rejects the email again if a concurrent registration won.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return s.openSession(ctx, user)
}

func (s *authService) validAdminCode(code string) bool {
	if s.cfg.AdminCode == "" || code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(s.cfg.AdminCode)) == 1
}

func (s *authService) openSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	now := s.now().UTC()
	session := &domain.Session{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
	}
	if s.cfg.SessionTTL > 0 {
		session.ExpiresAt = now.Add(s.cfg.SessionTTL)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &AuthResult{Token: token, User: user.Profile()}, nil
}

// Resolve looks up the user behind a token
func (s *authService) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Anonymous, nil
	}
	if err := s.tokens.Verify(token); err != nil {
		return domain.Anonymous, nil
	}

	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return domain.Anonymous, nil
		}
		return domain.Anonymous, fmt.Errorf("failed to find session: %w", err)
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.Anonymous, nil
		}
		return domain.Anonymous, fmt.Errorf("failed to find user: %w", err)
	}

	return domain.Identity{User: user}, nil
}

// AuthorizeMutation requires an authenticated admin who owns the product.
// Admins may not touch products owned by someone else.
func (s *authService) AuthorizeMutation(caller domain.Identity, product *domain.Product) error {
	if !caller.Authenticated() {
		return ErrAuthenticationRequired
	}
	if !caller.User.IsAdmin() {
		return ErrAdminRequired
	}
	if product.OwnerID != caller.User.ID {
		return ErrNotOwner
	}
	return nil
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
