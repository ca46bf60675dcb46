package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrNoCredentials is returned when neither an API key nor an OAuth client
// secret is configured.
var ErrNoCredentials = errors.New("google: no api_key or credentials_file configured")

// Auth describes how to authenticate against the Calendar API.
type Auth struct {
	// APIKey grants read access to public calendars only.
	APIKey string
	// CredentialsFile is the installed-app client secret JSON.
	CredentialsFile string
	// TokenFile holds a previously authorized oauth2.Token as JSON.
	TokenFile string
}

// ClientOptions returns the options to build a read-only Calendar service.
// An API key takes precedence over OAuth credentials.
func ClientOptions(ctx context.Context, auth Auth) ([]option.ClientOption, error) {
	if auth.APIKey != "" {
		return []option.ClientOption{option.WithAPIKey(auth.APIKey)}, nil
	}
	if auth.CredentialsFile == "" {
		return nil, ErrNoCredentials
	}

	conf, err := LoadOAuthConfig(auth.CredentialsFile)
	if err != nil {
		return nil, err
	}

	tok, err := LoadToken(auth.TokenFile)
	if err != nil {
		return nil, err
	}

	return []option.ClientOption{option.WithTokenSource(conf.TokenSource(ctx, tok))}, nil
}

// LoadOAuthConfig reads a client secret file and scopes it to read-only
// calendar access.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("google: read credentials file: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("google: parse credentials file: %w", err)
	}
	return conf, nil
}

// LoadToken reads a JSON-encoded oauth2.Token.
func LoadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, errors.New("google: token_file is not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("google: no OAuth token at %s; authorize the client once and store the token JSON there", path)
		}
		return nil, fmt.Errorf("google: read token file: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("google: parse token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("google: token file %s holds neither an access nor a refresh token", path)
	}
	return tok, nil
}
