// Package admin exposes the operator surface over HTTP: login, runtime
// settings inspection and updates, bot status and the messaging session
// handoff. Settings changes propagate to the running bot immediately and
// are persisted to the config file.
package admin

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/touraibot/tourai/internal/config"
)

const sessionCookie = "tourai_session"

// sessionTTL bounds how long a login stays valid.
const sessionTTL = 12 * time.Hour

// SettingsSink is the running component that consumes settings updates.
type SettingsSink interface {
	UpdateSettings(settings config.Settings)
	Settings() config.Settings
}

// Server carries the admin route handlers and their state.
type Server struct {
	sink       SettingsSink
	configPath string
	logger     *slog.Logger
	startedAt  time.Time

	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewServer builds an admin Server persisting settings to configPath.
func NewServer(sink SettingsSink, configPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sink:       sink,
		configPath: configPath,
		logger:     logger,
		startedAt:  time.Now(),
		tokens:     make(map[string]time.Time),
	}
}

// Register mounts the admin routes on the given echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/api/login", s.login)
	e.POST("/api/logout", s.logout)
	e.GET("/api/settings", s.getSettings)
	e.POST("/api/settings", s.updateSettings)
	e.GET("/api/status", s.status)
	e.POST("/api/session", s.updateGatewaySession)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c *echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed login request")
	}

	settings := s.sink.Settings()
	if settings.AdminUser == "" || req.Username != settings.AdminUser || req.Password != settings.AdminPassword {
		s.logger.Warn("admin login rejected", "username", req.Username)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = time.Now().Add(sessionTTL)
	s.mu.Unlock()

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(sessionTTL),
	})
	s.logger.Info("admin logged in", "username", req.Username)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logout(c *echo.Context) error {
	if cookie, err := c.Request().Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.tokens, cookie.Value)
		s.mu.Unlock()
	}
	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) authenticate(c *echo.Context) error {
	cookie, err := c.Request().Cookie(sessionCookie)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}

	s.mu.Lock()
	expires, ok := s.tokens[cookie.Value]
	if ok && time.Now().After(expires) {
		delete(s.tokens, cookie.Value)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	return nil
}

// settingsView is what the API returns: credentials are masked, only
// their presence is reported.
type settingsView struct {
	OpenAIModel        string `json:"openaiModel"`
	OpenAIKeySet       bool   `json:"openaiKeySet"`
	TourvisorLogin     string `json:"tourvisorLogin"`
	TourvisorConfigSet bool   `json:"tourvisorConfigSet"`
	SystemPrompt       string `json:"systemPrompt"`
	TriggerKeyword     string `json:"triggerKeyword"`
	GatewayURL         string `json:"gatewayUrl"`
	GatewaySessionSet  bool   `json:"gatewaySessionSet"`
	ListenAddr         string `json:"listenAddr"`
}

func (s *Server) getSettings(c *echo.Context) error {
	if err := s.authenticate(c); err != nil {
		return err
	}

	settings := s.sink.Settings()
	return c.JSON(http.StatusOK, settingsView{
		OpenAIModel:        settings.OpenAIModel,
		OpenAIKeySet:       settings.OpenAIKey != "",
		TourvisorLogin:     settings.TourvisorLogin,
		TourvisorConfigSet: settings.TourvisorLogin != "" && settings.TourvisorPassword != "",
		SystemPrompt:       settings.SystemPrompt,
		TriggerKeyword:     settings.TriggerKeyword,
		GatewayURL:         settings.GatewayURL,
		GatewaySessionSet:  settings.GatewaySession != "",
		ListenAddr:         settings.ListenAddr,
	})
}

// settingsUpdate carries the writable fields. Empty credential fields
// keep their current values so the form never has to echo secrets back.
type settingsUpdate struct {
	OpenAIKey         *string `json:"openaiApiKey"`
	OpenAIModel       *string `json:"openaiModel"`
	TourvisorLogin    *string `json:"tourvisorLogin"`
	TourvisorPassword *string `json:"tourvisorPassword"`
	SystemPrompt      *string `json:"systemPrompt"`
	TriggerKeyword    *string `json:"triggerKeyword"`
	GatewayURL        *string `json:"gatewayUrl"`
	GatewayToken      *string `json:"gatewayToken"`
}

func (s *Server) updateSettings(c *echo.Context) error {
	if err := s.authenticate(c); err != nil {
		return err
	}

	var upd settingsUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed settings")
	}

	settings := s.sink.Settings()
	assign(&settings.OpenAIKey, upd.OpenAIKey)
	assign(&settings.OpenAIModel, upd.OpenAIModel)
	assign(&settings.TourvisorLogin, upd.TourvisorLogin)
	assign(&settings.TourvisorPassword, upd.TourvisorPassword)
	assign(&settings.SystemPrompt, upd.SystemPrompt)
	assign(&settings.TriggerKeyword, upd.TriggerKeyword)
	assign(&settings.GatewayURL, upd.GatewayURL)
	assign(&settings.GatewayToken, upd.GatewayToken)

	if err := settings.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return s.commit(c, settings)
}

type gatewaySessionRequest struct {
	Session string `json:"session"`
}

// updateGatewaySession stores the messaging session credential the
// gateway produced, so it survives restarts.
func (s *Server) updateGatewaySession(c *echo.Context) error {
	if err := s.authenticate(c); err != nil {
		return err
	}

	var req gatewaySessionRequest
	if err := c.Bind(&req); err != nil || req.Session == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session data")
	}

	settings := s.sink.Settings()
	settings.GatewaySession = req.Session
	return s.commit(c, settings)
}

func (s *Server) commit(c *echo.Context, settings config.Settings) error {
	s.sink.UpdateSettings(settings)

	if err := config.Save(s.configPath, settings); err != nil {
		s.logger.Error("persisting settings failed", "path", s.configPath, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "settings applied but not persisted")
	}

	s.logger.Info("settings updated", "path", s.configPath)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(c *echo.Context) error {
	if err := s.authenticate(c); err != nil {
		return err
	}

	settings := s.sink.Settings()
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "running",
		"uptimeSeconds":  int(time.Since(s.startedAt).Seconds()),
		"openaiReady":    settings.OpenAIKey != "",
		"tourvisorReady": settings.TourvisorLogin != "" && settings.TourvisorPassword != "",
		"gatewayReady":   settings.GatewayURL != "",
		"triggerKeyword": settings.TriggerKeyword,
	})
}

func assign(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}
