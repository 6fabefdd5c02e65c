package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"mess_tracker/internal/apperror"   // Error taxonomy
	"mess_tracker/internal/domain"     // Domain models
	"mess_tracker/internal/middleware" // Current user
	"mess_tracker/internal/session"    // Session binding
	"mess_tracker/internal/store"      // User persistence
	"mess_tracker/internal/utils"      // Cache keys

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// LoginRequest is the login form
type LoginRequest struct {
	Username string `form:"username" binding:"required"` // Username must be provided
	Password string `form:"password" binding:"required"` // Password must be provided
}

// RegisterRequest is the self-registration form
type RegisterRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Name     string `form:"name"`
	RollNo   string `form:"roll_no"`
	RoomNo   string `form:"room_no"`
	Contact  string `form:"contact"`
}

func (r RegisterRequest) input() store.StudentInput {
	return store.StudentInput{
		Username: r.Username,
		Password: r.Password,
		Name:     r.Name,
		RollNo:   r.RollNo,
		RoomNo:   r.RoomNo,
		Contact:  r.Contact,
	}
}

// IndexHandler sends visitors to their dashboard or the login page
func IndexHandler() gin.HandlerFunc {
	return homeRedirect
}

// LoginPageHandler shows the login form
func LoginPageHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.Identity(c).IsAuthenticated() {
			homeRedirect(c) // Already logged in
			return
		}
		app.render(c, http.StatusOK, "login.html", "Login", nil)
	}
}

// LoginHandler authenticates the user and binds the session
func LoginHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind form to struct
		if err := c.ShouldBind(&req); err != nil {
			flashRedirect(c, session.Danger, "Username and password are required", "/login")
			return
		}
		user, err := store.Authenticate(c.Request.Context(), app.DB, req.Username, req.Password)
		if err != nil {
			if !errors.Is(err, store.ErrInvalidCredentials) {
				logrus.WithError(err).Error("Login lookup failed")
			}
			flashRedirect(c, session.Danger, "Invalid username or password", "/login")
			return
		}
		if err := session.SetLoginUser(c, user); err != nil {
			logrus.WithError(err).Error("Failed to save session")
			flashRedirect(c, session.Danger, "Could not start a session, please retry", "/login")
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User logged in")
		c.Redirect(http.StatusFound, domain.HomePath(user.Role))
	}
}

// RegisterPageHandler shows the registration form
func RegisterPageHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.Identity(c).IsAuthenticated() {
			homeRedirect(c)
			return
		}
		app.render(c, http.StatusOK, "register.html", "Register", nil)
	}
}

// RegisterHandler creates a student account
func RegisterHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBind(&req); err != nil {
			flashRedirect(c, session.Danger, "Invalid registration form", "/register")
			return
		}
		ctx := c.Request.Context()
		if _, err := store.CreateStudent(ctx, app.DB, req.input(), app.BcryptCost); err != nil {
			flashRedirect(c, session.Danger, apperror.Message(err), "/register")
			return
		}
		if err := app.Cache.Delete(ctx, utils.DashboardKey); err != nil {
			logrus.WithError(err).Warn("Cache invalidation failed")
		}
		flashRedirect(c, session.Success, "Registration successful. Please login.", "/login")
	}
}

// LogoutHandler ends the session
func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := session.ClearSession(c); err != nil {
			logrus.WithError(err).Warn("Failed to clear session")
		}
		c.Redirect(http.StatusFound, "/login")
	}
}
