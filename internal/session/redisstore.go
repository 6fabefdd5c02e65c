package session

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	gorillasessions "github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAge = 86400 // 1 day
	keyPrefix     = "session:"
)

var errSessionMissing = errors.New("session not found")

// RedisStore keeps session values in Redis and only a signed session id in
// the cookie, so logout and expiry are enforced server side. Clearing the
// id of a session before saving it rotates the id and drops the old record.
type RedisStore struct {
	client  *redis.Client
	codecs  []securecookie.Codec
	options sessions.Options
}

var _ sessions.Store = (*RedisStore)(nil)

// NewRedisStore creates a store signing session ids with keyPairs
func NewRedisStore(client *redis.Client, keyPairs ...[]byte) *RedisStore {
	return &RedisStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: sessions.Options{
			Path:     "/",
			MaxAge:   defaultMaxAge,
			HttpOnly: true,
		},
	}
}

// Options sets the cookie options of new sessions
func (s *RedisStore) Options(opts sessions.Options) {
	s.options = opts
}

// Get returns the session cached for this request, creating it on first use
func (s *RedisStore) Get(r *http.Request, name string) (*gorillasessions.Session, error) {
	return gorillasessions.GetRegistry(r).Get(s, name)
}

// New builds the session named by the request cookie. An unknown, forged or
// expired id yields an empty session flagged IsNew.
func (s *RedisStore) New(r *http.Request, name string) (*gorillasessions.Session, error) {
	session := gorillasessions.NewSession(s, name)
	session.Options = s.options.ToGorillaOptions()
	session.IsNew = true

	id, ok := s.cookieID(r, name)
	if !ok {
		return session, nil
	}
	values, err := s.load(r.Context(), id)
	if err != nil {
		return session, nil
	}
	session.ID = id
	session.Values = values
	session.IsNew = false
	return session, nil
}

// Save writes the session to Redis and refreshes the cookie. A negative
// MaxAge deletes the record instead.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gorillasessions.Session) error {
	ctx := r.Context()
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(ctx, sessionKey(session.ID)).Err(); err != nil {
				return err
			}
		}
		http.SetCookie(w, gorillasessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	var stale string
	if session.ID == "" {
		// The request may still carry the id being replaced
		stale, _ = s.cookieID(r, session.Name())
		session.ID = newSessionID()
	}

	data, err := encodeValues(session.Values)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionKey(session.ID), data, s.ttl(session))
		if stale != "" && stale != session.ID {
			p.Del(ctx, sessionKey(stale))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	signed, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, gorillasessions.NewCookie(session.Name(), signed, session.Options))
	return nil
}

func (s *RedisStore) cookieID(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil || id == "" {
		return "", false
	}
	return id, true
}

func (s *RedisStore) ttl(session *gorillasessions.Session) time.Duration {
	maxAge := session.Options.MaxAge
	if maxAge == 0 {
		maxAge = s.options.MaxAge
	}
	return time.Duration(maxAge) * time.Second
}

func (s *RedisStore) load(ctx context.Context, id string) (map[interface{}]interface{}, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errSessionMissing
	}
	if err != nil {
		return nil, err
	}
	values := make(map[interface{}]interface{})
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&values); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return values, nil
}

func encodeValues(values map[interface{}]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(values); err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return buf.Bytes(), nil
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func newSessionID() string {
	raw := securecookie.GenerateRandomKey(32)
	return strings.TrimRight(base32.StdEncoding.EncodeToString(raw), "=")
}
