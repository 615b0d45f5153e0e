package middleware

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nyra.shop/app/internal/modules/users"
)

const ctxKeyUser = "current_user"

// Session is a database-backed session. Login/logout live in the
// storefront proper; this service only validates tokens it is handed.
type Session struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	UserID     string    `gorm:"type:char(36);not null;index:ix_sessions_user_id"`
	TokenHash  []byte    `gorm:"type:binary(32);not null;uniqueIndex:ux_sessions_token_hash"`
	ExpiresAt  time.Time `gorm:"type:datetime;not null"`
	CreatedAt  time.Time `gorm:"type:datetime;not null"`
	LastSeenAt time.Time `gorm:"type:datetime;not null"`
}

func (Session) TableName() string { return "sessions" }

type CurrentUserInfo struct {
	ID    string
	Name  string
	Email string
}

// SessionMiddleware resolves a bearer token (or session cookie) to a user
// and stores it in the request context. Requests without a valid token
// pass through anonymous; RequireAuth decides what that means per route.
func SessionMiddleware(db *gorm.DB, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" && cookieName != "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			c.Next()
			return
		}

		hash := sha256.Sum256([]byte(token))
		var sess Session
		if err := db.WithContext(c.Request.Context()).
			Where("token_hash = ? AND expires_at > ?", hash[:], time.Now()).
			First(&sess).Error; err != nil {
			c.Next()
			return
		}

		var u users.User
		if err := db.WithContext(c.Request.Context()).
			First(&u, "id = ?", sess.UserID).Error; err != nil {
			c.Next()
			return
		}

		c.Set(ctxKeyUser, CurrentUserInfo{ID: u.ID, Name: u.Name, Email: u.Email})
		c.Next()
	}
}

// SetCurrentUser attaches a user to the request context, the same way
// SessionMiddleware does after resolving a token.
func SetCurrentUser(c *gin.Context, u CurrentUserInfo) {
	c.Set(ctxKeyUser, u)
}

func CurrentUser(c *gin.Context) (CurrentUserInfo, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return CurrentUserInfo{}, false
	}
	u, ok := v.(CurrentUserInfo)
	return u, ok
}

// RequireAuth rejects anonymous requests with a 401 JSON envelope.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":      "authentication required",
			"request_id": GetRequestID(c),
		})
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
