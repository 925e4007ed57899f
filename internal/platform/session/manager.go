package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "als_session"

	// ctxKey caches the loaded session on the echo context.
	ctxKey = "session"
)

// Manager ties the cookie to the store. The cookie value is an HS256 JWT
// whose jti is the session id and whose exp matches the stored expiry, so a
// forged or stale cookie is rejected before the store is consulted.
type Manager struct {
	store  Store
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, key []byte, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:  store,
		key:    key,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Load returns the session named by the request cookie, or nil when there is
// none or it is invalid. The result is cached for the rest of the request.
func (m *Manager) Load(c echo.Context) (*Session, error) {
	if s, ok := c.Get(ctxKey).(*Session); ok {
		return s, nil
	}

	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	id, err := m.parseToken(cookie.Value)
	if err != nil {
		m.clearCookie(c)
		return nil, nil
	}

	s, err := m.store.Get(c.Request().Context(), id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		m.clearCookie(c)
		return nil, nil
	}

	c.Set(ctxKey, s)
	return s, nil
}

// Start logs userID in on a fresh session id. Any prior session is deleted
// and its pending flashes move to the new one.
func (m *Manager) Start(c echo.Context, userID uuid.UUID) (*Session, error) {
	prev, err := m.Load(c)
	if err != nil {
		return nil, err
	}

	s := m.newSession()
	s.UserID = &userID
	if prev != nil {
		for k, v := range prev.Flashes {
			s.Flashes[k] = v
		}
		if err := m.store.Delete(c.Request().Context(), prev.ID); err != nil {
			return nil, fmt.Errorf("rotate session: %w", err)
		}
	}

	if err := m.save(c, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Destroy deletes the current session and expires the cookie.
func (m *Manager) Destroy(c echo.Context) error {
	s, err := m.Load(c)
	if err != nil {
		return err
	}
	if s != nil {
		if err := m.store.Delete(c.Request().Context(), s.ID); err != nil {
			return fmt.Errorf("destroy session: %w", err)
		}
	}
	c.Set(ctxKey, (*Session)(nil))
	m.clearCookie(c)
	return nil
}

// EndAll deletes every session belonging to userID.
func (m *Manager) EndAll(c echo.Context, userID uuid.UUID) error {
	if err := m.store.DeleteByUser(c.Request().Context(), userID); err != nil {
		return fmt.Errorf("end sessions: %w", err)
	}
	return nil
}

// AddFlash queues msg under key for the next page that pops it. An anonymous
// session is created when the visitor has none.
func (m *Manager) AddFlash(c echo.Context, key, msg string) error {
	s, err := m.Load(c)
	if err != nil {
		return err
	}
	if s == nil {
		s = m.newSession()
	}
	s.Flashes[key] = append(s.Flashes[key], msg)
	return m.save(c, s)
}

// PopFlash returns and removes the messages queued under key.
func (m *Manager) PopFlash(c echo.Context, key string) ([]string, error) {
	s, err := m.Load(c)
	if err != nil || s == nil {
		return nil, err
	}
	msgs, ok := s.Flashes[key]
	if !ok {
		return nil, nil
	}
	delete(s.Flashes, key)
	if err := m.store.Save(c.Request().Context(), s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return msgs, nil
}

func (m *Manager) newSession() *Session {
	now := m.now()
	return &Session{
		ID:        uuid.New(),
		Flashes:   map[string][]string{},
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
}

func (m *Manager) save(c echo.Context, s *Session) error {
	if err := m.store.Save(c.Request().Context(), s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	token, err := m.signToken(s)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(ctxKey, s)
	return nil
}

func (m *Manager) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) signToken(s *Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID.String(),
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

var errBadToken = errors.New("invalid session token")

func (m *Manager) parseToken(raw string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, errBadToken
	}
	return id, nil
}
