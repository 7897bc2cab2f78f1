package clients

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/chatlog"
	"github.com/mcdev12/fantasymatch/go/internal/connectjson"
	"github.com/mcdev12/fantasymatch/go/internal/matching"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
)

// FantasyMatchClient talks to a running fantasymatch server. It satisfies the
// chat session's Checker and Recorder, so a remote session behaves like a local one.
type FantasyMatchClient struct {
	*BaseClient

	checkUnlock     *connect.Client[unlock.CheckUnlockRequest, unlock.CheckUnlockResponse]
	listDisclosures *connect.Client[unlock.ListDisclosuresRequest, unlock.ListDisclosuresResponse]
	selectMatch     *connect.Client[matching.SelectMatchRequest, matching.SelectMatchResponse]
}

func NewFantasyMatchClient(baseURL string) *FantasyMatchClient {
	base := NewBaseClient(baseURL)
	httpClient := base.HTTPClient()
	opts := []connect.ClientOption{connectjson.WithCodec()}

	return &FantasyMatchClient{
		BaseClient:      base,
		checkUnlock:     connect.NewClient[unlock.CheckUnlockRequest, unlock.CheckUnlockResponse](httpClient, baseURL+unlock.CheckUnlockProcedure, opts...),
		listDisclosures: connect.NewClient[unlock.ListDisclosuresRequest, unlock.ListDisclosuresResponse](httpClient, baseURL+unlock.ListDisclosuresProcedure, opts...),
		selectMatch:     connect.NewClient[matching.SelectMatchRequest, matching.SelectMatchResponse](httpClient, baseURL+matching.SelectMatchProcedure, opts...),
	}
}

func (c *FantasyMatchClient) CheckUnlock(ctx context.Context, matchID uuid.UUID, cumulativeSeconds int) (*unlock.CheckUnlockResponse, error) {
	res, err := c.checkUnlock.CallUnary(ctx, connect.NewRequest(&unlock.CheckUnlockRequest{
		MatchID:           matchID.String(),
		CumulativeSeconds: cumulativeSeconds,
	}))
	if err != nil {
		return nil, fmt.Errorf("check unlock: %w", err)
	}
	return res.Msg, nil
}

func (c *FantasyMatchClient) ListDisclosures(ctx context.Context, matchID uuid.UUID, sinceStep int) ([]models.Disclosure, error) {
	res, err := c.listDisclosures.CallUnary(ctx, connect.NewRequest(&unlock.ListDisclosuresRequest{
		MatchID:   matchID.String(),
		SinceStep: sinceStep,
	}))
	if err != nil {
		return nil, fmt.Errorf("list disclosures: %w", err)
	}
	return res.Msg.Disclosures, nil
}

// SelectMatch pairs the user with a counterpart, or returns the match they already have.
func (c *FantasyMatchClient) SelectMatch(ctx context.Context, userID uuid.UUID) (*matching.SelectMatchResponse, error) {
	res, err := c.selectMatch.CallUnary(ctx, connect.NewRequest(&matching.SelectMatchRequest{
		UserID: userID.String(),
	}))
	if err != nil {
		return nil, fmt.Errorf("select match: %w", err)
	}
	return res.Msg, nil
}

func (c *FantasyMatchClient) RecordMessage(ctx context.Context, matchID, senderID uuid.UUID, text string, cumulativeSeconds int) error {
	endpoint := fmt.Sprintf("/api/matches/%s/messages", matchID)
	err := c.PostJSON(ctx, endpoint, chatlog.RecordMessageRequest{
		SenderID:          senderID.String(),
		Message:           text,
		CumulativeSeconds: cumulativeSeconds,
	}, nil)
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}
