// Package session binds a browser session to a logged-in user and carries
// one-shot flash messages between a POST and the page it redirects to.
package session

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	gorillasessions "github.com/gorilla/sessions"

	"mess_tracker/internal/domain"
)

// Name is the cookie name of the session
const Name = "mess_session"

const (
	loginUserID = "LOGIN_USER_ID"
	loginRole   = "LOGIN_ROLE"
)

// Flash categories
const (
	Success = "success"
	Danger  = "danger"
	Info    = "info"
)

// Flash is a message shown once on the next rendered page
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// SetLoginUser binds user to a fresh session. Values from before login are
// dropped and a server side store issues a new id.
func SetLoginUser(c *gin.Context, user *domain.User) error {
	s := sessions.Default(c)
	s.Clear()
	if g, ok := s.(interface{ Session() *gorillasessions.Session }); ok {
		g.Session().ID = ""
	}
	s.Set(loginUserID, user.ID)
	s.Set(loginRole, user.Role)
	return s.Save()
}

// GetLoginUserID returns the id bound to the session, if any
func GetLoginUserID(c *gin.Context) (uint, bool) {
	s := sessions.Default(c)
	if obj := s.Get(loginUserID); obj != nil {
		if id, ok := obj.(uint); ok && id != 0 {
			return id, true
		}
	}
	return 0, false
}

// IsLogin reports whether a user is bound to the session
func IsLogin(c *gin.Context) bool {
	_, ok := GetLoginUserID(c)
	return ok
}

// ClearSession drops every value and expires the cookie
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	return s.Save()
}

// AddFlash queues a message for the next page
func AddFlash(c *gin.Context, category, message string) {
	s := sessions.Default(c)
	s.AddFlash(Flash{Category: category, Message: message})
	_ = s.Save()
}

// Flashes pops every queued message
func Flashes(c *gin.Context) []Flash {
	s := sessions.Default(c)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save()
	out := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			out = append(out, flash)
		}
	}
	return out
}
