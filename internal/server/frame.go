package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohsinsiddi/monsend/internal/frame"
)

func (s *Server) homePage(c *gin.Context) {
	page, err := frame.RenderPage(s.Frame)
	if err != nil {
		s.Logger.Error("rendering page", "err", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) manifest(c *gin.Context) {
	c.JSON(http.StatusOK, frame.BuildManifest(s.Frame))
}

func (s *Server) webhook(c *gin.Context) {
	if s.Webhook == nil {
		fail(c, http.StatusServiceUnavailable, "webhook is not configured")
		return
	}
	var env frame.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	ev, err := s.Webhook.Handle(c.Request.Context(), env)
	if errors.Is(err, frame.ErrMalformedEnvelope) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.Logger.Error("webhook", "event", ev.Name, "fid", ev.FID, "err", err)
		fail(c, http.StatusInternalServerError, "failed to process event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type sendNotificationRequest struct {
	FID                 int64                      `json:"fid" binding:"required"`
	NotificationDetails *frame.NotificationDetails `json:"notificationDetails"`
	Title               string                     `json:"title"`
	Body                string                     `json:"body"`
}

// sendNotification replies 200 on delivery, 429 when the host rate limits
// the token and 500 otherwise.
func (s *Server) sendNotification(c *gin.Context) {
	if s.Notifier == nil {
		fail(c, http.StatusServiceUnavailable, "notifications are not configured")
		return
	}
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "fid is required")
		return
	}
	msg := frame.Notification{
		Title:     firstNonEmpty(req.Title, "Test Notification"),
		Body:      firstNonEmpty(req.Body, "This is a test notification from "+s.Frame.Name),
		TargetURL: s.Frame.AppURL,
	}

	var err error
	if req.NotificationDetails != nil && req.NotificationDetails.Token != "" {
		err = s.Notifier.Send(c.Request.Context(), req.FID, *req.NotificationDetails, msg)
	} else {
		err = s.Notifier.SendToUser(c.Request.Context(), req.FID, msg)
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, frame.ErrRateLimited):
		fail(c, http.StatusTooManyRequests, "Rate limited")
	default:
		s.Logger.Warn("notification failed", "fid", req.FID, "err", err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
