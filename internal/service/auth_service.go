package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// AuthConfig defines configuration for access tokens.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService signs teachers in and validates their access tokens.
type AuthService struct {
	store     recordStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(store recordStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{store: store, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login checks the registration code and password and issues an access token.
// Accounts still carrying an unsalted SHA-256 hex digest are accepted once and
// upgraded to bcrypt.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid login payload")
	}

	var (
		teacher models.Teacher
		err     error
	)
	s.store.View(func(v *repository.View) {
		teacher, err = v.TeacherByCode(req.RegistrationCode)
	})
	if err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	legacy := isLegacyDigest(teacher.PasswordHash)
	if legacy {
		if !legacyMatches(teacher.PasswordHash, req.Password) {
			return nil, appErrors.ErrInvalidCredentials
		}
		s.upgradeDigest(ctx, teacher.ID, req.Password)
	} else if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, issuedAt, err := s.generateAccessToken(teacher)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	s.logger.Info("teacher signed in", zap.Int("teacher_id", teacher.ID))

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		Teacher:     teacher.Profile(),
	}, nil
}

// ValidateToken parses an access token and returns its claims. The token is
// rejected once its teacher is deleted or their registration code changes.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.TeacherID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	var teacher models.Teacher
	s.store.View(func(v *repository.View) {
		teacher, err = v.Teacher(claims.TeacherID)
	})
	if err != nil || !strings.EqualFold(teacher.RegistrationCode, claims.RegistrationCode) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(teacher models.Teacher) (string, time.Time, error) {
	issuedAt := s.now().UTC().Truncate(time.Second)
	claims := &models.JWTClaims{
		TeacherID:        teacher.ID,
		RegistrationCode: teacher.RegistrationCode,
		Name:             teacher.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   strconv.Itoa(teacher.ID),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

func (s *AuthService) upgradeDigest(ctx context.Context, teacherID int, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Warn("failed to rehash legacy password", zap.Int("teacher_id", teacherID), zap.Error(err))
		return
	}
	err = s.store.Mutate(ctx, func(tx *repository.Tx) error {
		teacher, err := tx.Teacher(teacherID)
		if err != nil {
			return err
		}
		teacher.PasswordHash = string(hash)
		return tx.UpdateTeacher(teacher)
	})
	if err != nil {
		s.logger.Warn("failed to upgrade legacy password digest", zap.Int("teacher_id", teacherID), zap.Error(err))
	}
}

func isLegacyDigest(hash string) bool {
	if len(hash) != sha256.Size*2 || strings.HasPrefix(hash, "$2") {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func legacyMatches(hash, password string) bool {
	sum := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(hash)), []byte(hex.EncodeToString(sum[:]))) == 1
}
