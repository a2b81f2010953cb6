package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

type calendarRepository interface {
	Create(ctx context.Context, calendar *models.Calendar) error
	GetByID(ctx context.Context, id string) (*models.Calendar, error)
	Rename(ctx context.Context, id, name string) error
}

// AuthConfig defines configuration for calendar sessions.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService creates calendars and issues session tokens scoped to one of them.
type AuthService struct {
	repo      calendarRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo calendarRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// CreateCalendar registers a calendar with a bcrypt-hashed passcode.
func (s *AuthService) CreateCalendar(ctx context.Context, req dto.CreateCalendarRequest) (*models.Calendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Passcode), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash passcode")
	}
	calendar := &models.Calendar{Name: strings.TrimSpace(req.Name), PasscodeHash: string(hash)}
	if err := s.repo.Create(ctx, calendar); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create calendar")
	}
	s.logger.Info("calendar created", zap.String("calendar_id", calendar.ID))
	return calendar, nil
}

// OpenSession exchanges the calendar passcode for a session token.
func (s *AuthService) OpenSession(ctx context.Context, calendarID string, req dto.OpenSessionRequest) (*models.SessionToken, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	calendar, err := s.repo.GetByID(ctx, calendarID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidPasscode, "invalid calendar or passcode")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(calendar.PasscodeHash), []byte(req.Passcode)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidPasscode, "invalid calendar or passcode")
	}
	signed, expiresAt, err := s.generateToken(calendar.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}
	return &models.SessionToken{AccessToken: signed, CalendarID: calendar.ID, ExpiresAt: expiresAt}, nil
}

// RenameCalendar changes the display name of the session's calendar.
func (s *AuthService) RenameCalendar(ctx context.Context, calendarID string, req dto.RenameCalendarRequest) (*models.Calendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar payload")
	}
	if err := s.repo.Rename(ctx, calendarID, strings.TrimSpace(req.Name)); err != nil {
		return nil, appErrors.FromError(err)
	}
	calendar, err := s.repo.GetByID(ctx, calendarID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return calendar, nil
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.CalendarID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateToken(calendarID string) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.SessionClaims{
		CalendarID: calendarID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   calendarID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
