package unlock

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
	// UnlockServiceName is the fully-qualified name of the unlock service.
	UnlockServiceName = "fantasymatch.unlock.v1.UnlockService"

	CheckUnlockProcedure     = "/" + UnlockServiceName + "/CheckUnlock"
	ListDisclosuresProcedure = "/" + UnlockServiceName + "/ListDisclosures"
)

// UnlockApp defines what the service layer needs from the unlock application
type UnlockApp interface {
	CheckUnlock(ctx context.Context, matchID uuid.UUID, cumulativeSeconds int) (*CheckUnlockResponse, error)
	ListDisclosures(ctx context.Context, matchID uuid.UUID, sinceStep int) ([]models.Disclosure, error)
}

// Service exposes the unlock app over Connect
type Service struct {
	app UnlockApp
}

// NewService creates a new unlock Connect service
func NewService(app UnlockApp) *Service {
	return &Service{
		app: app,
	}
}

// Handler returns the mount path and handler for every unlock procedure.
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connectjson.WithCodec()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CheckUnlockProcedure, connect.NewUnaryHandler(CheckUnlockProcedure, s.CheckUnlock, opts...))
	mux.Handle(ListDisclosuresProcedure, connect.NewUnaryHandler(ListDisclosuresProcedure, s.ListDisclosures, opts...))
	return "/" + UnlockServiceName + "/", mux
}

// CheckUnlock evaluates a match against the reported chat duration
func (s *Service) CheckUnlock(ctx context.Context, req *connect.Request[CheckUnlockRequest]) (*connect.Response[CheckUnlockResponse], error) {
	matchID, err := uuid.Parse(req.Msg.MatchID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	res, err := s.app.CheckUnlock(ctx, matchID, req.Msg.CumulativeSeconds)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(res), nil
}

// ListDisclosures returns the disclosures of a match above a known step
func (s *Service) ListDisclosures(ctx context.Context, req *connect.Request[ListDisclosuresRequest]) (*connect.Response[ListDisclosuresResponse], error) {
	matchID, err := uuid.Parse(req.Msg.MatchID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	disclosures, err := s.app.ListDisclosures(ctx, matchID, req.Msg.SinceStep)
	if err != nil {
		return nil, toConnectError(err)
	}
	if disclosures == nil {
		disclosures = []models.Disclosure{}
	}
	return connect.NewResponse(&ListDisclosuresResponse{
		MatchID:     matchID.String(),
		Disclosures: disclosures,
	}), nil
}

func toConnectError(err error) *connect.Error {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, models.ErrMatchNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, models.ErrStepConflict):
		return connect.NewError(connect.CodeAborted, err)
	default:
		return connect.NewError(connect.CodeUnavailable, err)
	}
}
