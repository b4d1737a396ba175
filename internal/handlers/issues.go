package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/issuecal/internal/github"
	"github.com/charlesng35/issuecal/internal/services"
	apperrors "github.com/charlesng35/issuecal/pkg/errors"
	"github.com/charlesng35/issuecal/pkg/logger"
	"github.com/charlesng35/issuecal/pkg/response"
)

// HeaderCache tells clients whether /api/issues was answered from the cache.
const HeaderCache = "X-Cache"

// EventLister is the part of services.IssueService the HTTP layer depends on.
type EventLister interface {
	Events(ctx context.Context) (services.EventsResult, error)
}

type IssueHandler struct {
	svc EventLister
	log *zap.Logger
}

func NewIssueHandler(svc EventLister) *IssueHandler {
	return &IssueHandler{
		svc: svc,
		log: logger.WithModule("handlers"),
	}
}

// List handles GET /api/issues. The body is always the complete event array or an
// error envelope, never a partial list.
func (h *IssueHandler) List(c *gin.Context) {
	result, err := h.svc.Events(c.Request.Context())
	if err != nil {
		h.log.Warn("list issues failed", zap.Error(err))
		response.Error(c, mapIssueError(err))
		return
	}

	if result.Source == services.SourceCache {
		c.Header(HeaderCache, "HIT")
	} else {
		c.Header(HeaderCache, "MISS")
	}
	response.Collection(c, result.Events)
}

func mapIssueError(err error) error {
	var upstream *github.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Timeout {
			return apperrors.ErrUpstreamTimeout.WithInternal(err)
		}
		return apperrors.ErrUpstream.WithInternal(err)
	}
	return apperrors.ErrInternalServer.WithInternal(err)
}
