package service

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learntrack/backend/internal/models"
)

func TestNewTokenGenerator(t *testing.T) {
	tests := []struct {
		name           string
		secret         string
		accessExpiry   time.Duration
		refreshExpiry  time.Duration
		expectedSecret string
	}{
		{
			name:           "standard initialization",
			secret:         "test-secret-key",
			accessExpiry:   1 * time.Hour,
			refreshExpiry:  7 * 24 * time.Hour,
			expectedSecret: "test-secret-key",
		},
		{
			name:           "short expiry times",
			secret:         "short-secret",
			accessExpiry:   1 * time.Minute,
			refreshExpiry:  10 * time.Minute,
			expectedSecret: "short-secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := NewTokenGenerator(tt.secret, tt.accessExpiry, tt.refreshExpiry)

			assert.NotNil(t, tg)
			assert.Equal(t, tt.expectedSecret, tg.secret)
			assert.Equal(t, tt.accessExpiry, tg.accessTokenExpiry)
			assert.Equal(t, tt.refreshExpiry, tg.refreshTokenExpiry)
		})
	}
}

func TestTokenGenerator_GenerateAccessToken(t *testing.T) {
	secret := "b8a3c2267dc85f855dea9b46b452bf20"
	tg := NewTokenGenerator(secret, 1*time.Hour, 7*24*time.Hour)

	t.Run("success with standard userID", func(t *testing.T) {
		token, err := tg.GenerateAccessToken(123, models.RoleStudent)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("userID zero", func(t *testing.T) {
		token, err := tg.GenerateAccessToken(0, models.RoleStudent)
		require.NoError(t, err)

		userID, _, err := tg.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, 0, userID)
	})

	t.Run("max int userID", func(t *testing.T) {
		token, err := tg.GenerateAccessToken(math.MaxInt32, models.RoleAdmin)
		require.NoError(t, err)

		userID, role, err := tg.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt32, userID)
		assert.Equal(t, models.RoleAdmin, role)
	})

	t.Run("token format validation", func(t *testing.T) {
		token, err := tg.GenerateAccessToken(789, models.RoleInstructor)
		require.NoError(t, err)

		// JWT tokens should have 3 parts separated by dots
		parts := strings.Split(token, ".")
		assert.Len(t, parts, 3)
	})
}

func TestTokenGenerator_ValidateAccessToken(t *testing.T) {
	secret := "b8a3c2267dc85f855dea9b46b452bf20"
	tg := NewTokenGenerator(secret, 1*time.Hour, 7*24*time.Hour)

	t.Run("valid token", func(t *testing.T) {
		token, err := tg.GenerateAccessToken(456, models.RoleInstructor)
		require.NoError(t, err)

		userID, role, err := tg.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, 456, userID)
		assert.Equal(t, models.RoleInstructor, role)
	})

	t.Run("empty string token", func(t *testing.T) {
		_, _, err := tg.ValidateAccessToken("")
		assert.Error(t, err)
	})

	t.Run("invalid token format", func(t *testing.T) {
		_, _, err := tg.ValidateAccessToken("invalid-token")
		assert.Error(t, err)
	})

	t.Run("malformed JWT - missing parts", func(t *testing.T) {
		_, _, err := tg.ValidateAccessToken("header.payload")
		assert.Error(t, err)
	})

	t.Run("wrong signature method - non-HMAC", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": 123,
			"role":    models.RoleStudent,
			"exp":     time.Now().Add(1 * time.Hour).Unix(),
			"iat":     time.Now().Unix(),
			"type":    "access",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected signing method")
	})

	t.Run("token without user_id claim", func(t *testing.T) {
		claims := jwt.MapClaims{
			"role": models.RoleStudent,
			"exp":  time.Now().Add(1 * time.Hour).Unix(),
			"iat":  time.Now().Unix(),
			"type": "access",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(secret))
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user_id not found")
	})

	t.Run("token without role claim", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": 123,
			"exp":     time.Now().Add(1 * time.Hour).Unix(),
			"iat":     time.Now().Unix(),
			"type":    "access",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(secret))
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "role not found")
	})

	t.Run("token without type claim", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": 123,
			"role":    models.RoleStudent,
			"exp":     time.Now().Add(1 * time.Hour).Unix(),
			"iat":     time.Now().Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(secret))
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not an access token")
	})

	t.Run("token with wrong type", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": 123,
			"role":    models.RoleStudent,
			"exp":     time.Now().Add(1 * time.Hour).Unix(),
			"iat":     time.Now().Unix(),
			"type":    "refresh",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(secret))
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not an access token")
	})

	t.Run("expired token", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": 123,
			"role":    models.RoleStudent,
			"exp":     time.Now().Add(-1 * time.Hour).Unix(),
			"iat":     time.Now().Add(-2 * time.Hour).Unix(),
			"type":    "access",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(secret))
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := tg.GenerateAccessToken(789, models.RoleStudent)
		require.NoError(t, err)

		wrongTG := NewTokenGenerator("wrong-secret", 1*time.Hour, 7*24*time.Hour)
		_, _, err = wrongTG.ValidateAccessToken(token)
		assert.Error(t, err)
	})
}

func TestTokenGenerator_TokenClaims(t *testing.T) {
	secret := "b8a3c2267dc85f855dea9b46b452bf20"
	accessExpiry := 1 * time.Hour
	tg := NewTokenGenerator(secret, accessExpiry, 7*24*time.Hour)

	userID := 123
	beforeGeneration := time.Now().Unix()
	tokenString, err := tg.GenerateAccessToken(userID, models.RoleInstructor)
	require.NoError(t, err)
	afterGeneration := time.Now().Unix()

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)

	userIDFloat, ok := claims["user_id"].(float64)
	require.True(t, ok)
	assert.Equal(t, userID, int(userIDFloat))

	roleFloat, ok := claims["role"].(float64)
	require.True(t, ok)
	assert.Equal(t, models.RoleInstructor, int(roleFloat))

	tokenType, ok := claims["type"].(string)
	require.True(t, ok)
	assert.Equal(t, "access", tokenType)

	iat, ok := claims["iat"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, int64(iat), beforeGeneration)
	assert.LessOrEqual(t, int64(iat), afterGeneration)

	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	expectedExp := time.Unix(int64(iat), 0).Add(accessExpiry).Unix()
	assert.Equal(t, expectedExp, int64(exp))
}
