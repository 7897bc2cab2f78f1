package matching

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/connectjson"
	"github.com/mcdev12/fantasymatch/go/internal/models"
)

const (
	// MatchServiceName is the fully-qualified name of the match service.
	MatchServiceName = "fantasymatch.match.v1.MatchService"

	SelectMatchProcedure = "/" + MatchServiceName + "/SelectMatch"
)

// MatchingApp defines what the service layer needs from the matching application
type MatchingApp interface {
	SelectMatch(ctx context.Context, candidateID uuid.UUID) (*models.Match, bool, error)
}

// Service exposes matching over Connect
type Service struct {
	app MatchingApp
}

// NewService creates a new matching Connect service
func NewService(app MatchingApp) *Service {
	return &Service{app: app}
}

// Handler returns the mount path and handler for the match service.
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connectjson.WithCodec()}, opts...)
	return SelectMatchProcedure, connect.NewUnaryHandler(SelectMatchProcedure, s.SelectMatch, opts...)
}

// SelectMatch pairs the caller with an available counterpart
func (s *Service) SelectMatch(ctx context.Context, req *connect.Request[SelectMatchRequest]) (*connect.Response[SelectMatchResponse], error) {
	userID, err := uuid.Parse(req.Msg.UserID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	match, created, err := s.app.SelectMatch(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SelectMatchResponse{Match: *match, Created: created}), nil
}

func toConnectError(err error) *connect.Error {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, models.ErrIntakeIncomplete):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, models.ErrNoCounterpart):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		return connect.NewError(connect.CodeUnavailable, err)
	}
}
