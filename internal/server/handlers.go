// internal/server/handlers.go
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/models"
)

type pushSignalRequest struct {
	Signal string `json:"signal"`
}

// handlePushSignal persists a caller-supplied signal and fans it out to
// every registered device. Fan-out failures are logged but do not fail the
// request once the signal is durably stored.
func (s *Server) handlePushSignal(c *gin.Context) {
	var req pushSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Signal == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signal not provided"})
		return
	}

	signal, err := s.signals.Push(c.Request.Context(), req.Signal)
	if err != nil {
		s.logger.WithError(err).Error("push-signal persist failed", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to push signal"})
		return
	}

	s.fanout(c, signal)
	c.JSON(http.StatusOK, gin.H{"status": "pushed", "signal": req.Signal})
}

// fanout sends the signal to all registered devices. Failures here are
// swallowed: the signal is already persisted.
func (s *Server) fanout(c *gin.Context, signal models.Signal) {
	if !s.cfg.Notifications.Push.Enabled {
		return
	}
	devices, err := s.devices.Devices(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Warn("device listing failed, skipping fan-out", nil)
		return
	}
	s.notifier.Fanout(c.Request.Context(), signal, devices)
}

func (s *Server) handleListFlows(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog)
}

func (s *Server) handleInvokeFlow(c *gin.Context) {
	name := c.Param("name")

	contract, ok := s.flows.Get(name)
	if !ok || !s.cfg.FlowEnabled(name) {
		err := apperrors.NewFlowNotFoundError(name)
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Message, "code": err.Code})
		return
	}

	var input map[string]interface{}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}

	ctx := c.Request.Context()
	if timeoutMs := s.cfg.FlowTimeout(name); timeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()
	}

	artifact, err := s.runner.Invoke(ctx, contract, input)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, artifact)
}

func (s *Server) handleRecentSignals(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))

	signals, err := s.signals.Recent(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals})
}

func (s *Server) handleSearchSignals(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	signals, err := s.signals.Search(c.Request.Context(), query, parseLimit(c.Query("limit")))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals})
}

type registerDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

func (s *Server) handleRegisterDevice(c *gin.Context) {
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	if req.Platform == "" {
		req.Platform = "web"
	}

	device, err := s.devices.Register(c.Request.Context(), req.Token, req.Platform)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, device)
}

func (s *Server) handleUnregisterDevice(c *gin.Context) {
	if err := s.devices.Unregister(c.Request.Context(), c.Param("token")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if se, ok := err.(*apperrors.StandardError); ok {
		body := gin.H{"error": se.Message, "code": se.Code}
		if se.Field != "" {
			body["field"] = se.Field
		}
		c.JSON(status, body)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
