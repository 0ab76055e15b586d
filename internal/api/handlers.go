package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wellnest/internal/actors"
	"github.com/wellnest/internal/affinity"
	"github.com/wellnest/internal/api/auth"
	"github.com/wellnest/internal/chat"
	"github.com/wellnest/internal/chatreq"
	"github.com/wellnest/internal/profile"
)

// ErrorResponse is the error payload for all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ActorRefRequest is one participant reference on the wire.
type ActorRefRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// CreateChatRequestRequest is the payload for creating a chat request.
type CreateChatRequestRequest struct {
	Mode         string            `json:"mode"`
	Participants []ActorRefRequest `json:"participants"`
	GroupLabel   string            `json:"group_label"`
	Reason       struct {
		AffinityRequested bool   `json:"affinity_requested"`
		FreeText          string `json:"free_text"`
	} `json:"reason"`
}

// RespondChatRequestRequest is the payload for answering a chat request.
type RespondChatRequestRequest struct {
	Decision string `json:"decision"`
}

// AffinityResponse is the affinity preview payload.
type AffinityResponse struct {
	Actor  actors.Ref `json:"actor"`
	Target actors.Ref `json:"target"`
	Score  float64    `json:"score"`
}

func (s *Server) createChatRequest(c echo.Context) error {
	owner, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing authentication")
	}

	var req CreateChatRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}

	mode, err := chatreq.ParseMode(req.Mode)
	if err != nil {
		return errorJSON(c, err)
	}

	invitees := make([]actors.Ref, 0, len(req.Participants))
	for _, p := range req.Participants {
		kind, err := actors.ParseKind(p.Kind)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		invitees = append(invitees, actors.Ref{Kind: kind, ID: p.ID})
	}

	created, err := s.manager.Create(c.Request().Context(), owner, chatreq.CreateInput{
		Mode:       mode,
		Invitees:   invitees,
		GroupLabel: req.GroupLabel,
		Reason: chatreq.Reason{
			AffinityRequested: req.Reason.AffinityRequested,
			FreeText:          req.Reason.FreeText,
		},
	})
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

func (s *Server) respondChatRequest(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing authentication")
	}

	var req RespondChatRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}

	decision, err := chatreq.ParseDecision(req.Decision)
	if err != nil {
		return errorJSON(c, err)
	}

	result, err := s.manager.Respond(c.Request().Context(), c.Param("id"), actor, decision)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) getChatRequest(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing authentication")
	}

	req, err := s.manager.GetForActor(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, req)
}

func (s *Server) listChatRequests(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing authentication")
	}

	var (
		requests []*chatreq.ChatRequest
		err      error
	)
	switch box := c.QueryParam("box"); box {
	case "", "received":
		requests, err = s.manager.ListReceived(c.Request().Context(), actor)
	case "sent":
		requests, err = s.manager.ListSent(c.Request().Context(), actor)
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "box must be sent or received"})
	}
	if err != nil {
		return errorJSON(c, err)
	}

	if requests == nil {
		requests = []*chatreq.ChatRequest{}
	}
	return c.JSON(http.StatusOK, requests)
}

func (s *Server) getChat(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing authentication")
	}

	found, err := s.chats.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	// Non-participants get the same answer as a missing chat.
	if !found.HasParticipant(actor) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "chat not found"})
	}

	return c.JSON(http.StatusOK, found)
}

func (s *Server) listChats(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing authentication")
	}

	chats, err := s.chats.ListForActor(c.Request().Context(), actor)
	if err != nil {
		return errorJSON(c, err)
	}

	if chats == nil {
		chats = []*chat.Chat{}
	}
	return c.JSON(http.StatusOK, chats)
}

func (s *Server) getAffinity(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing authentication")
	}

	kind, err := actors.ParseKind(c.Param("kind"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	target := actors.Ref{Kind: kind, ID: c.Param("id")}

	ctx := c.Request().Context()
	if _, err := s.directory.Resolve(ctx, target); err != nil {
		return errorJSON(c, err)
	}

	actorProfile, err := s.profiles.Get(ctx, actor)
	if err != nil {
		return errorJSON(c, err)
	}
	targetProfile, err := s.profiles.Get(ctx, target)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, AffinityResponse{
		Actor:  actor,
		Target: target,
		Score:  affinity.Score(actorProfile, targetProfile, profile.ComparableAttributes),
	})
}

// errorJSON maps domain errors onto HTTP statuses.
func errorJSON(c echo.Context, err error) error {
	switch {
	case errors.Is(err, chatreq.ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, chatreq.ErrNotFound),
		errors.Is(err, actors.ErrNotFound),
		errors.Is(err, chat.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, chatreq.ErrInvalidState):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, actors.ErrUnknownKind):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
