// Package admin exposes the health endpoint and a small administrative HTTP
// API. Admin calls authenticate with Telegram WebApp init data; only
// configured admin ids pass.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sarhadsec/scanbot/internal/bot/repositories/scans"
	userrepo "github.com/sarhadsec/scanbot/internal/bot/repositories/users"
	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/logging"
)

// UserDirectory is the slice of the user registry the admin API needs.
type UserDirectory interface {
	SetBanned(ctx context.Context, telegramID int64, banned bool) error
	SetPremium(ctx context.Context, telegramID int64, premium bool) error
	Counts(ctx context.Context) (*userrepo.Counts, error)
}

// ScanStats supplies scan counters for the stats endpoint.
type ScanStats interface {
	Counts(ctx context.Context) (scans.StatusCounts, error)
}

type Server struct {
	users    UserDirectory
	scans    ScanStats
	botToken string
	adminIDs map[int64]struct{}
	logger   logging.Logger

	httpServer *http.Server
}

func NewServer(addr, botToken string, adminIDs []int64, users UserDirectory, stats ScanStats, logger logging.Logger) *Server {
	ids := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}

	s := &Server{
		users:    users,
		scans:    stats,
		botToken: botToken,
		adminIDs: ids,
		logger:   logger.With("module", "admin"),
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s.router()}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.health)

	adm := r.Group("/admin", s.requireAdmin)
	adm.GET("/stats", s.stats)
	adm.POST("/users/:id/ban", s.setBanned)
	adm.POST("/users/:id/premium", s.setPremium)

	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireAdmin authenticates the request via Telegram WebApp init data and
// rejects callers outside the configured admin list.
func (s *Server) requireAdmin(c *gin.Context) {
	raw := c.GetHeader(common.InitDataHeaderName)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing init data"})
		return
	}

	callerID, err := verifyInitData(raw, s.botToken, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
		return
	}

	if _, ok := s.adminIDs[callerID]; !ok {
		s.logger.Warn(c.Request.Context(), "non-admin call rejected", "telegram_id", callerID)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not an admin"})
		return
	}
	c.Next()
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()

	userCounts, err := s.users.Counts(ctx)
	if err != nil {
		s.logger.Error(ctx, "collecting user stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}

	scanCounts, err := s.scans.Counts(ctx)
	if err != nil {
		s.logger.Error(ctx, "collecting scan stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": gin.H{
			"total":     userCounts.Total,
			"onboarded": userCounts.Onboarded,
			"premium":   userCounts.Premium,
			"banned":    userCounts.Banned,
		},
		"scans": scanCounts,
	})
}

type flagRequest struct {
	Value *bool `json:"value"`
}

// flagValue reads the request body; an empty body means enable.
func flagValue(c *gin.Context) bool {
	var req flagRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		return true
	}
	return *req.Value
}

func (s *Server) setBanned(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad user id"})
		return
	}

	if err := s.users.SetBanned(c.Request.Context(), id, flagValue(c)); err != nil {
		s.respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) setPremium(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad user id"})
		return
	}

	if err := s.users.SetPremium(c.Request.Context(), id, flagValue(c)); err != nil {
		s.respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) respondMutationError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	s.logger.Error(c.Request.Context(), "admin mutation failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
