package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/config"
	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
)

const (
	retailerContextKey = "retailer"
	adminContextKey    = "admin_user"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RetailerAuth authenticates retailer requests with a bearer API key
func RetailerAuth(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := bearerToken(c)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		retailer, err := repos.Retailer.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(retailerContextKey, retailer)
		c.Next()
	}
}

// GetRetailerFromContext returns the authenticated retailer
func GetRetailerFromContext(c *gin.Context) (*domain.Retailer, bool) {
	value, exists := c.Get(retailerContextKey)
	if !exists {
		return nil, false
	}
	retailer, ok := value.(*domain.Retailer)
	return retailer, ok
}

type adminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueAdminToken creates a signed JWT for an admin user
func IssueAdminToken(cfg config.AuthConfig, username string) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(cfg.JWTExpiryHours) * time.Hour)
	claims := adminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// AdminAuth authenticates back-office requests with a bearer JWT
func AdminAuth(cfg config.AuthConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims := &adminClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(adminContextKey, claims.Username)
		c.Next()
	}
}

// GetAdminFromContext returns the authenticated admin username
func GetAdminFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(adminContextKey)
	if !exists {
		return "", false
	}
	username, ok := value.(string)
	return username, ok
}
