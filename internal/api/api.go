// Package api exposes the Slack Events API request URL and a small read-only
// status API over gin.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/celerix-dev/alphabot/internal/bot"
	"github.com/celerix-dev/alphabot/internal/engine"
	"github.com/celerix-dev/alphabot/internal/slack"
	"github.com/celerix-dev/alphabot/internal/vault"
	"github.com/celerix-dev/alphabot/internal/worker"
	"github.com/celerix-dev/alphabot/pkg/schema"
	"github.com/gin-gonic/gin"
)

const defaultUsageLimit = 20

// RetryHeader carries Slack's redelivery attempt number.
const RetryHeader = "X-Slack-Retry-Num"

// MessageQueue accepts chat messages for handling after the request is acked.
type MessageQueue interface {
	Submit(job worker.Job) error
}

// StatusReader reports the checkout record.
type StatusReader interface {
	Status() (engine.LockState, time.Duration, error)
}

// UsageReader reads the usage log.
type UsageReader interface {
	Tail(n int) ([]engine.UsageEntry, error)
}

type Handler struct {
	Queue         MessageQueue
	Ledger        StatusReader
	Usage         UsageReader
	SigningSecret string
	ResourceName  string
}

// Events is the Slack Events API request URL. Messages are queued and
// acknowledged at once; the reply is posted by the worker.
func (h *Handler) Events(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.SigningSecret != "" {
		if err := vault.VerifyRequest(c.Request.Header, body, h.SigningSecret); err != nil {
			slog.Warn("Rejected Slack request",
				"error", err,
				"correlation_id", CorrelationID(c),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	ev, err := slack.DecodeEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch ev.Kind {
	case slack.EventURLVerification:
		c.JSON(http.StatusOK, gin.H{"challenge": ev.Challenge})
		return
	case slack.EventMessage:
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	err = h.Queue.Submit(worker.Job{
		EventID:       ev.ID,
		CorrelationID: CorrelationID(c),
		Message:       bot.Message{Channel: ev.Channel, User: ev.User, Text: ev.Text},
	})
	switch {
	case errors.Is(err, worker.ErrDuplicateEvent):
		slog.Info("Dropped redelivered Slack event",
			"event_id", ev.ID,
			"retry_num", c.GetHeader(RetryHeader),
			"retry_reason", c.GetHeader("X-Slack-Retry-Reason"),
			"correlation_id", CorrelationID(c),
		)
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
	case err != nil:
		// Not accepted: let Slack redeliver
		slog.Error("Failed to queue message",
			"error", err,
			"event_id", ev.ID,
			"correlation_id", CorrelationID(c),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (h *Handler) GetStatus(c *gin.Context) {
	state, elapsed, err := h.Ledger.Status()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	report := schema.StatusReport{
		Resource:  h.ResourceName,
		Available: state.Free(),
	}
	if !state.Free() {
		since := state.Since
		report.Holder = state.Holder
		report.Since = &since
		minutes := engine.Minutes(elapsed)
		report.ElapsedMin = &minutes
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetUsage(c *gin.Context) {
	limit := defaultUsageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	entries, err := h.Usage.Tail(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	records := make([]schema.UsageRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, schema.UsageRecord{Timestamp: e.At, Actor: e.Actor, Text: e.Text})
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
