package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/claude/trainplan/internal/engine"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

var errNoUser = errors.New("no user configured for this session")

func (h *handlers) exerciseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.ds.Exercises(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, exercises)
}

func (h *handlers) activePlan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	if uid == uuid.Nil {
		return nil, errNoUser
	}

	plan, err := h.ds.ActivePlan(ctx, uid)
	if errors.Is(err, engine.ErrNotFound) {
		return jsonContents(req.Params.URI, nil)
	}
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, plan)
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	if uid == uuid.Nil {
		return nil, errNoUser
	}

	history, err := h.ds.WorkoutHistory(ctx, uid, engine.DefaultHistoryLimit)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, history)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
