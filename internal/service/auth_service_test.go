package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

type mockCalendarRepo struct {
	calendars map[string]*models.Calendar
	createErr error
	getErr    error
}

func newMockCalendarRepo() *mockCalendarRepo {
	return &mockCalendarRepo{calendars: make(map[string]*models.Calendar)}
}

func (m *mockCalendarRepo) Create(ctx context.Context, calendar *models.Calendar) error {
	if m.createErr != nil {
		return m.createErr
	}
	if calendar.ID == "" {
		calendar.ID = "cal-new"
	}
	copied := *calendar
	m.calendars[calendar.ID] = &copied
	return nil
}

func (m *mockCalendarRepo) GetByID(ctx context.Context, id string) (*models.Calendar, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	calendar, ok := m.calendars[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
	}
	copied := *calendar
	return &copied, nil
}

func (m *mockCalendarRepo) Rename(ctx context.Context, id, name string) error {
	calendar, ok := m.calendars[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
	}
	calendar.Name = name
	return nil
}

func newTestAuthService(repo *mockCalendarRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "planboard"})
}

func TestAuthServiceCreateCalendarHashesPasscode(t *testing.T) {
	repo := newMockCalendarRepo()
	svc := newTestAuthService(repo)

	calendar, err := svc.CreateCalendar(context.Background(), dto.CreateCalendarRequest{Name: "  Family  ", Passcode: "1234"})
	require.NoError(t, err)
	assert.Equal(t, "Family", calendar.Name)
	assert.NotEqual(t, "1234", calendar.PasscodeHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.calendars[calendar.ID].PasscodeHash), []byte("1234")))
}

func TestAuthServiceCreateCalendarValidation(t *testing.T) {
	svc := newTestAuthService(newMockCalendarRepo())
	_, err := svc.CreateCalendar(context.Background(), dto.CreateCalendarRequest{Name: "x", Passcode: "12"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceOpenSessionIssuesScopedToken(t *testing.T) {
	repo := newMockCalendarRepo()
	svc := newTestAuthService(repo)
	calendar, err := svc.CreateCalendar(context.Background(), dto.CreateCalendarRequest{Name: "Family", Passcode: "secret"})
	require.NoError(t, err)

	session, err := svc.OpenSession(context.Background(), calendar.ID, dto.OpenSessionRequest{Passcode: "secret"})
	require.NoError(t, err)
	assert.Equal(t, calendar.ID, session.CalendarID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, calendar.ID, claims.CalendarID)
	assert.Equal(t, "planboard", claims.Issuer)
}

func TestAuthServiceOpenSessionRejectsWrongPasscode(t *testing.T) {
	repo := newMockCalendarRepo()
	svc := newTestAuthService(repo)
	calendar, err := svc.CreateCalendar(context.Background(), dto.CreateCalendarRequest{Name: "Family", Passcode: "secret"})
	require.NoError(t, err)

	_, err = svc.OpenSession(context.Background(), calendar.ID, dto.OpenSessionRequest{Passcode: "nope"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidPasscode))

	_, err = svc.OpenSession(context.Background(), "unknown", dto.OpenSessionRequest{Passcode: "secret"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidPasscode))

	repo.getErr = errors.New("db down")
	_, err = svc.OpenSession(context.Background(), calendar.ID, dto.OpenSessionRequest{Passcode: "secret"})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsForeignTokens(t *testing.T) {
	svc := newTestAuthService(newMockCalendarRepo())

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.SessionClaims{CalendarID: "cal-1"})
	signed, err := foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	unscoped := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.SessionClaims{})
	signed, err = unscoped.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.SessionClaims{
		CalendarID:       "cal-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	signed, err = expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRenameCalendar(t *testing.T) {
	repo := newMockCalendarRepo()
	repo.calendars["cal-1"] = &models.Calendar{ID: "cal-1", Name: "Old"}
	svc := newTestAuthService(repo)

	calendar, err := svc.RenameCalendar(context.Background(), "cal-1", dto.RenameCalendarRequest{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", calendar.Name)

	_, err = svc.RenameCalendar(context.Background(), "missing", dto.RenameCalendarRequest{Name: "New"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
