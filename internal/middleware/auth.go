package middleware

import (
	"net/http" // HTTP status codes

	"mess_tracker/internal/domain"  // Domain models
	"mess_tracker/internal/session" // Session helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

const userKey = "currentUser"

// LoadUser binds the user named by the session to the request. The user is
// read from the database on every request so deleted accounts and role
// changes take effect immediately.
func LoadUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := session.GetLoginUserID(c) // Session may be anonymous
		if !ok {
			c.Next()
			return
		}
		var user domain.User
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			// Stale session, the account is gone
			logrus.WithField("user_id", userID).Warn("Session refers to a missing user")
			_ = session.ClearSession(c)
			c.Next()
			return
		}
		c.Set(userKey, &user)
		c.Next()
	}
}

// CurrentUser returns the user bound by LoadUser, or nil
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

// Identity returns the request principal, Anonymous when nobody is logged in
func Identity(c *gin.Context) domain.Identity {
	if user := CurrentUser(c); user != nil {
		return user
	}
	return domain.Anonymous{}
}

// RequireLogin sends anonymous requests to the login page
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Identity(c).IsAuthenticated() {
			c.Redirect(http.StatusFound, "/login") // Redirect to login
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole sends a user of another role to their own dashboard
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity(c)
		if !id.IsAuthenticated() {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if id.GetRole() != role {
			c.Redirect(http.StatusFound, domain.HomePath(id.GetRole())) // Wrong area
			c.Abort()
			return
		}
		c.Next()
	}
}
