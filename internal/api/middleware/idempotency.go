package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	apperrors "github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

const (
	idempotencyKeyHeader     = "Idempotency-Key"
	idempotencyKeyContextKey = "idempotency_key"
	requestHashContextKey    = "idempotency_request_hash"
	existingOrderContextKey  = "idempotency_existing_order"
)

// Idempotency dedupes order placement on the Idempotency-Key header. A
// replay with the same key and body exposes the original order to the
// handler; the same key with a different body is rejected.
func Idempotency(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyKeyHeader)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		c.Set(idempotencyKeyContextKey, key)
		c.Set(requestHashContextKey, requestHash)

		record, err := repos.IdempotencyKey.Get(c.Request.Context(), key)
		if err != nil {
			if _, ok := err.(*apperrors.ErrNotFound); !ok {
				logger.Error("Failed to look up idempotency key", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			c.Next()
			return
		}

		if record.RequestHash != requestHash {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "idempotency key reused with a different request body",
			})
			return
		}

		c.Set(existingOrderContextKey, record.OrderID.String())
		c.Next()
	}
}

// GetIdempotencyInfo returns the request's idempotency key, its body hash,
// the already-created order ID if this is a replay, and whether the replay
// case applies.
func GetIdempotencyInfo(c *gin.Context) (key, requestHash, existingOrderID string, isExisting bool) {
	key = c.GetString(idempotencyKeyContextKey)
	requestHash = c.GetString(requestHashContextKey)
	existingOrderID = c.GetString(existingOrderContextKey)
	return key, requestHash, existingOrderID, existingOrderID != ""
}
