package heroku

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/olusolaa/heroku-tools/internal/errors"
)

// apiError is the error body returned by the Platform API.
type apiError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// handleTransportError maps failures that happened before a response was read.
func handleTransportError(ctx context.Context, what string, err error) error {
	if ctx.Err() != nil || stderrs.Is(err, context.DeadlineExceeded) || stderrs.Is(err, context.Canceled) {
		return errors.WrapUserFacing(err, errors.CodeTimeout,
			fmt.Sprintf("Heroku API call for %s did not complete", what),
			"Check your connection or raise heroku.timeout.")
	}
	return errors.Wrap(err, errors.CodeReleaseLookup, fmt.Sprintf("Error calling Heroku API: %s", what))
}

// handleStatus maps any status above 299 to an application error carrying
// the response body.
func handleStatus(what string, status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	var payload apiError
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		text = payload.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewUserFacing(errors.CodePlatformAuthError,
			fmt.Sprintf("Heroku API rejected the credentials for %s: %s", what, text),
			"Set heroku.api_token (or HEROKU_API_TOKEN) or log in with 'heroku login'.")
	case http.StatusNotFound:
		return errors.NewUserFacing(errors.CodeReleaseLookup,
			fmt.Sprintf("Heroku API could not find %s: %s", what, text),
			"Check the application name in the app configuration file.")
	default:
		return errors.New(errors.CodeReleaseLookup,
			fmt.Sprintf("Heroku API returned %d for %s: %s", status, what, text))
	}
}
