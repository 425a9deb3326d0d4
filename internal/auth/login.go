package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/session"
)

// Service handles login and logout against /auth/.
type Service struct {
	base string
	sess *session.Manager
	hc   *http.Client
	log  *zap.Logger
}

func NewService(baseURL string, sess *session.Manager, hc *http.Client, log *zap.Logger) *Service {
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{base: strings.TrimRight(baseURL, "/"), sess: sess, hc: hc, log: log}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginResult struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// Login stores the full session on success.
func (s *Service) Login(ctx context.Context, username, password string, role models.Role) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apierr.NewValidationError(apierr.FieldError{Field: "username", Error: "username and password are required"})
	}
	status, body, err := postJSON(ctx, s.hc, s.base+"/auth/login/", "", loginRequest{
		Username: username, Password: password, Role: string(role),
	})
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, apierr.FromResponse(status, body)
	}
	var out LoginResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("login: decode: %w", err)
	}
	if out.Access == "" || out.Refresh == "" {
		return nil, &apierr.ServerError{Status: status, Message: "login response without tokens"}
	}
	r, okRole := models.ParseRole(out.Role)
	if !okRole {
		r = role
	}
	if err := s.sess.Save(ctx, models.Session{AccessToken: out.Access, RefreshToken: out.Refresh, Role: r}); err != nil {
		return nil, err
	}
	s.log.Info("logged in", zap.String("username", out.Username), zap.String("role", string(r)))
	return &out, nil
}

// Logout tells the backend to blacklist the refresh token (best effort)
// and always clears the local session.
func (s *Service) Logout(ctx context.Context) error {
	sess, err := s.sess.Load(ctx)
	if err == nil && sess.RefreshToken != "" {
		status, _, perr := postJSON(ctx, s.hc, s.base+"/auth/logout/", sess.AccessToken,
			map[string]string{"refresh": sess.RefreshToken})
		switch {
		case perr != nil:
			s.log.Warn("logout request failed", zap.Error(perr))
		case !ok(status):
			s.log.Warn("logout rejected", zap.Int("status", status))
		}
	}
	return s.sess.Clear(ctx)
}

// TokenExpiry reads the exp claim without verifying the signature.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return exp.Time, nil
}
