package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakehub/internal/models"
	"bakehub/internal/repositories"
	"bakehub/pkg/apperror"
	"bakehub/pkg/logger"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
	Place    string `json:"place"`
}

// Claims is the validated content of a bearer token.
type Claims struct {
	UserID    string
	Email     string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	blacklist TokenBlacklist
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *logger.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService. Tokens stay valid for tokenTTL.
func NewAuthService(userRepo repositories.UserRepository, blacklist TokenBlacklist, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if blacklist == nil {
		blacklist = NewMemoryTokenBlacklist()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{
		userRepo:  userRepo,
		blacklist: blacklist,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
		now:       time.Now,
	}
}

// Register creates a customer account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, in, models.RoleCustomer)
}

// RegisterBaker creates a baker account. It is only reachable from
// bootstrap code, never from the public API.
func (s *AuthService) RegisterBaker(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, in, models.RoleBaker)
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperror.New(apperror.CodeConflict, fmt.Sprintf("email '%s' already registered", email))
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Internal(err, "failed to check existing user")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		Place:        in.Place,
		Role:         role,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.Internal(err, "failed to register user")
	}
	s.log.Info(s.log.WithUserID(ctx, user.ID), fmt.Sprintf("registered %s account", role))
	return user, nil
}

// Login authenticates a user by email and returns a signed JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.log.Error(ctx, "login lookup failed", err)
		}
		return "", nil, apperror.New(apperror.CodeUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperror.New(apperror.CodeUnauthorized, "invalid credentials")
	}

	tokenString, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return tokenString, user, nil
}

// Refresh exchanges a valid token for a fresh one and revokes the old token
// id. Email and role are read again from the store.
func (s *AuthService) Refresh(ctx context.Context, claims *Claims) (string, error) {
	if claims == nil || claims.TokenID == "" {
		return "", apperror.New(apperror.CodeUnauthorized, "no active token")
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperror.New(apperror.CodeUnauthorized, "account no longer exists")
		}
		return "", apperror.Internal(err, "failed to load user")
	}

	tokenString, err := s.issueToken(user)
	if err != nil {
		return "", err
	}
	if err := s.blacklist.Revoke(ctx, claims.TokenID, claims.ExpiresAt.Sub(s.now())); err != nil {
		return "", apperror.Internal(err, "failed to revoke previous token")
	}
	return tokenString, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"jti":     uuid.New().String(),
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperror.Internal(err, "failed to generate token")
	}
	return tokenString, nil
}

// ValidateToken parses a JWT, checks its signature and expiry and rejects
// revoked token ids.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUnauthorized, err, "invalid or expired token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperror.New(apperror.CodeUnauthorized, "invalid token")
	}

	claims := &Claims{
		UserID:  stringClaim(mapClaims, "user_id"),
		Email:   stringClaim(mapClaims, "email"),
		Role:    models.Role(stringClaim(mapClaims, "role")),
		TokenID: stringClaim(mapClaims, "jti"),
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if claims.UserID == "" || claims.TokenID == "" || !claims.Role.IsValid() {
		return nil, apperror.New(apperror.CodeUnauthorized, "token is missing required claims")
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to check token revocation")
	}
	if revoked {
		return nil, apperror.New(apperror.CodeUnauthorized, "token has been revoked")
	}
	return claims, nil
}

// Logout revokes the token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.TokenID == "" {
		return apperror.New(apperror.CodeUnauthorized, "no active token")
	}
	if err := s.blacklist.Revoke(ctx, claims.TokenID, claims.ExpiresAt.Sub(s.now())); err != nil {
		return apperror.Internal(err, "failed to revoke token")
	}
	return nil
}

// Profile returns the account of userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	return user, nil
}

// UpdatePushToken registers the Expo device token of userID.
func (s *AuthService) UpdatePushToken(ctx context.Context, userID, pushToken string) error {
	if strings.TrimSpace(pushToken) == "" {
		return apperror.Validation("push token is required")
	}
	if err := s.userRepo.UpdatePushToken(ctx, userID, strings.TrimSpace(pushToken)); err != nil {
		return lookupError(err, "user")
	}
	return nil
}

// Baker returns the public profile of the baker with id.
func (s *AuthService) Baker(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "baker")
	}
	if !user.IsBaker() {
		return nil, apperror.NotFound("baker not found")
	}
	return user, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
