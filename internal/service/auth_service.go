package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/luminalearn/lumina-backend/internal/config"
	"github.com/luminalearn/lumina-backend/internal/mailer"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/repository"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotVerified        = errors.New("account not verified")
	ErrCodeInvalid        = errors.New("invalid code")
	ErrCodeExpired        = errors.New("code expired or not requested")
	ErrSessionInvalidated = errors.New("session invalidated by newer login")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// AuthService handles accounts, JWT, verification codes, and sessions.
type AuthService struct {
	cfg      *config.Config
	rdb      *redis.Client
	userRepo *repository.UserRepository
	mail     *mailer.Mailer
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, userRepo *repository.UserRepository, mail *mailer.Mailer) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb, userRepo: userRepo, mail: mail}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Signup creates an unverified account, issues a verification code and
// mails it. A mail delivery failure does not fail the signup; the code is
// logged so the account can still be verified.
func (s *AuthService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Email: req.Email, Name: req.Name, PasswordHash: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	code, err := s.issueCode(ctx, config.CacheKey.VerifyCodeKey(req.Email), s.cfg.VerifyCodeTTL)
	if err != nil {
		return nil, err
	}
	s.sendCode(req.Email, code, s.mail.SendVerificationCode)
	return user, nil
}

// sendCode delivers a code best-effort. The account flow never fails on a
// mail error; the code is logged so verification stays possible.
func (s *AuthService) sendCode(email, code string, send func(to, code string) error) {
	if err := send(email, code); err != nil {
		log.Warn().Err(err).
			Str("email", email).
			Str("code", code).
			Msg("code mail delivery failed; code logged instead")
	}
}

// VerifyCode checks a pending verification code and marks the account verified.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) error {
	if err := s.consumeCode(ctx, config.CacheKey.VerifyCodeKey(email), code); err != nil {
		return err
	}
	return s.userRepo.MarkVerified(ctx, email)
}

// ResendCode issues and mails a fresh verification code for an unverified
// account.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("lookup email: %w", err)
	}
	if user.Verified {
		return ErrCodeInvalid
	}
	code, err := s.issueCode(ctx, config.CacheKey.VerifyCodeKey(email), s.cfg.VerifyCodeTTL)
	if err != nil {
		return err
	}
	s.sendCode(email, code, s.mail.SendVerificationCode)
	return nil
}

// Login validates credentials and returns a signed JWT. Each login
// registers a new session JTI in Redis, invalidating older tokens.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if err := s.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}

	token, err := s.generateToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: *user}, nil
}

// ForgotPassword issues and mails a password reset code. It reports
// success even for unknown emails so the endpoint does not leak account
// existence.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("lookup email: %w", err)
	}
	code, err := s.issueCode(ctx, config.CacheKey.ResetCodeKey(email), s.cfg.ResetCodeTTL)
	if err != nil {
		return err
	}
	s.sendCode(email, code, s.mail.SendResetCode)
	return nil
}

// ResetPassword checks a reset code and replaces the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	if err := s.consumeCode(ctx, config.CacheKey.ResetCodeKey(req.Email), req.Code); err != nil {
		return err
	}
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, req.Email, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	// Invalidate any live session so old tokens stop working.
	if user, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		_ = s.rdb.Del(ctx, config.CacheKey.UserSessionKey(user.ID)).Err()
	}
	return nil
}

// GetUser loads the account behind a set of claims.
func (s *AuthService) GetUser(ctx context.Context, userID int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// generateToken creates a JWT and registers its JTI as the active session.
func (s *AuthService) generateToken(ctx context.Context, user *model.User) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.rdb.Set(ctx, config.CacheKey.UserSessionKey(user.ID), jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token's JTI matches the active session.
func (s *AuthService) ValidateSession(ctx context.Context, userID int, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.UserSessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionInvalidated
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout removes the user's session from Redis.
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	return s.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID)).Err()
}

// issueCode stores a fresh 6-digit code under the given key with a TTL.
func (s *AuthService) issueCode(ctx context.Context, key string, ttl time.Duration) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, key, code, ttl).Err(); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// consumeCode compares a submitted code and deletes it on success.
func (s *AuthService) consumeCode(ctx context.Context, key, code string) error {
	stored, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeExpired
		}
		return fmt.Errorf("check code: %w", err)
	}
	if stored != code {
		return ErrCodeInvalid
	}
	return s.rdb.Del(ctx, key).Err()
}

// generateCode produces a random 6-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
