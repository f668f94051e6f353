package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/preppair/internal/config"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const maxPINLength = 12

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidPIN     = errors.New("invalid pin")
	ErrPINNotSet      = errors.New("pin not set")
	ErrPINAlreadySet  = errors.New("pin already set")
	ErrPINFormat      = errors.New("pin format")
	ErrUserNotFound   = errors.New("user not found")
	ErrAuthNotEnabled = errors.New("pin auth not enabled")
)

// Service handles the household PIN and session tokens.
type Service struct {
	config  *config.Config
	storage storage.UsersStorage
	now     func() time.Time
}

func NewService(cfg *config.Config, usersStorage storage.UsersStorage) *Service {
	return &Service{
		config:  cfg,
		storage: usersStorage,
		now:     time.Now,
	}
}

// Status reports whether the household PIN has been configured.
func (s *Service) Status(ctx context.Context) (*StatusResponse, error) {
	user, found, err := s.storage.GetUser(ctx, storage.DefaultUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &StatusResponse{
		AuthMode:      s.config.AuthMode,
		PINConfigured: found && user.PinHash != nil,
	}, nil
}

// SetupPIN sets the household PIN once and signs the caller in.
func (s *Service) SetupPIN(ctx context.Context, pin string) (*LoginResponse, error) {
	if s.config.AuthMode != config.AuthModePIN {
		return nil, ErrAuthNotEnabled
	}
	if err := s.validatePIN(pin); err != nil {
		return nil, err
	}

	user, found, err := s.storage.GetUser(ctx, storage.DefaultUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if found && user.PinHash != nil {
		return nil, ErrPINAlreadySet
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash pin: %w", err)
	}
	if err := s.storage.SetPinHash(ctx, storage.DefaultUserID, string(hash)); err != nil {
		return nil, fmt.Errorf("failed to store pin: %w", err)
	}

	return s.issue(storage.DefaultUserID)
}

// Login verifies the PIN and issues a session token.
func (s *Service) Login(ctx context.Context, pin string) (*LoginResponse, error) {
	if s.config.AuthMode != config.AuthModePIN {
		return nil, ErrAuthNotEnabled
	}

	user, found, err := s.storage.GetUser(ctx, storage.DefaultUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found || user.PinHash == nil {
		return nil, ErrPINNotSet
	}

	if bcrypt.CompareHashAndPassword([]byte(*user.PinHash), []byte(pin)) != nil {
		return nil, ErrInvalidPIN
	}

	return s.issue(user.ID)
}

// ChangePIN replaces the PIN after checking the current one.
func (s *Service) ChangePIN(ctx context.Context, userID string, req ChangePINRequest) error {
	if s.config.AuthMode != config.AuthModePIN {
		return ErrAuthNotEnabled
	}
	if err := s.validatePIN(req.NewPIN); err != nil {
		return err
	}

	user, found, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return ErrUserNotFound
	}
	if user.PinHash == nil {
		return ErrPINNotSet
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PinHash), []byte(req.CurrentPIN)) != nil {
		return ErrInvalidPIN
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPIN), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	if err := s.storage.SetPinHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to store pin: %w", err)
	}
	return nil
}

func (s *Service) validatePIN(pin string) error {
	minLen := s.config.PINMinLength
	if minLen <= 0 {
		minLen = 4
	}
	if len(pin) < minLen || len(pin) > maxPINLength {
		return fmt.Errorf("%w: pin must be %d to %d digits", ErrPINFormat, minLen, maxPINLength)
	}
	if strings.Trim(pin, "0123456789") != "" {
		return fmt.Errorf("%w: pin must contain digits only", ErrPINFormat)
	}
	return nil
}

func (s *Service) tokenTTL() time.Duration {
	return time.Duration(s.config.JWTTTLMinutes) * time.Minute
}

func (s *Service) issue(userID string) (*LoginResponse, error) {
	ttl := s.tokenTTL()
	token, err := s.generateJWTWithTTL(userID, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		UserID:      userID,
	}, nil
}

func (s *Service) generateJWTWithTTL(userID string, ttl time.Duration) (string, error) {
	now := s.now()
	exp := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub": userID,
		"iss": s.config.JWTIssuer,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT returns the subject of a valid session token.
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(s.config.JWTIssuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return "", ErrInvalidToken
		}
		return sub, nil
	}

	return "", ErrInvalidToken
}
