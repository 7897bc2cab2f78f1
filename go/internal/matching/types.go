package matching

import (
	"errors"

	"github.com/mcdev12/fantasymatch/go/internal/models"
)

// ErrInvalidRequest is returned for malformed match requests.
var ErrInvalidRequest = errors.New("invalid match request")

// SelectMatchRequest asks to pair userId with an available counterpart.
type SelectMatchRequest struct {
	UserID string `json:"userId"`
}

// SelectMatchResponse carries the pairing; Created is false when the user was already matched.
type SelectMatchResponse struct {
	Match   models.Match `json:"match"`
	Created bool         `json:"created"`
}
