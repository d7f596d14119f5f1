// Copyright (c) 2025 Justin Cranford

// Package email implements the IMAP ImportSource (spec §4.9/§4.6):
// connecting to a mailbox, tracking an incremental UID cursor,
// extracting attachments, and handing them to the pipeline as Jobs.
package email

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

// providerEndpoints mirrors OAuth2Provider::device_auth_url/token_url:
// known device-flow endpoints for the two built-in providers. Custom
// providers must supply their own URLs in EmailOAuthSpec.
var providerEndpoints = map[string]oauth2.Endpoint{
	"google": {
		DeviceAuthURL: "https://oauth2.googleapis.com/device/code",
		TokenURL:      "https://oauth2.googleapis.com/token",
	},
	"microsoft": {
		DeviceAuthURL: "https://login.microsoftonline.com/common/oauth2/v2.0/devicecode",
		TokenURL:      "https://login.microsoftonline.com/common/oauth2/v2.0/token",
	},
}

// providerDefaultScopes mirrors OAuth2Provider::default_scopes: Gmail
// needs the full mail scope for IMAP access, Outlook needs
// offline_access to receive a refresh token.
var providerDefaultScopes = map[string][]string{
	"google":    {"https://mail.google.com/"},
	"microsoft": {"https://outlook.office.com/IMAP.AccessAsUser.All", "offline_access"},
}

// providerEnvPrefix maps a provider name to the prefix used for its
// fallback credential environment variables (spec §4.9's "a dedicated
// provider-named access token env var").
func providerEnvPrefix(provider string) string {
	switch provider {
	case "google":
		return "GMAIL"
	case "microsoft":
		return "OUTLOOK"
	default:
		return "OAUTH2"
	}
}

// NewDeviceFlowConfig builds an oauth2.Config for spec's provider,
// resolving known-provider endpoints/scopes or falling back to the
// explicit deviceAuthUrl/tokenUrl/scopes of a "custom" provider (the
// config validator enforces tokenUrl for it; this function also
// rejects an unknown provider without one).
func NewDeviceFlowConfig(spec paporgConfig.EmailOAuthSpec) (*oauth2.Config, error) {
	endpoint, known := providerEndpoints[spec.Provider]
	if !known {
		if spec.TokenURL == "" {
			return nil, fmt.Errorf("email: provider %q requires an explicit tokenUrl", spec.Provider)
		}
		endpoint = oauth2.Endpoint{DeviceAuthURL: spec.DeviceAuthURL, TokenURL: spec.TokenURL}
	}

	scopes := spec.Scopes
	if len(scopes) == 0 {
		scopes = providerDefaultScopes[spec.Provider]
	}

	return &oauth2.Config{
		ClientID:     spec.ClientID,
		ClientSecret: spec.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}, nil
}

// RequestDeviceCode is step 1 of RFC 8628: asking the authorization
// server for a device/user code pair the operator approves out of
// band.
func RequestDeviceCode(ctx context.Context, cfg *oauth2.Config) (*oauth2.DeviceAuthResponse, error) {
	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("email: requesting device code: %w", err)
	}
	return resp, nil
}

// PollForToken is step 2: blocks, polling the token endpoint at the
// server-dictated interval (honoring slow_down/authorization_pending)
// until the operator approves, the code expires, or access is denied.
func PollForToken(ctx context.Context, cfg *oauth2.Config, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	token, err := cfg.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("email: polling for token: %w", sanitizeOAuthError(err))
	}
	return token, nil
}

// RefreshAccessToken exchanges a stored refresh token for a fresh
// access token, the path Scanner takes on every scan once a source
// has been through the device flow once.
func RefreshAccessToken(ctx context.Context, cfg *oauth2.Config, refreshToken string) (*oauth2.Token, error) {
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("email: refreshing access token: %w", sanitizeOAuthError(err))
	}
	return token, nil
}

// maxOAuthErrorBodyLength bounds how much of a token-endpoint error
// body reaches logs, preventing noisy or sensitive server responses
// from flooding them (mirrors MAX_ERROR_BODY_LENGTH in device_auth.rs).
const maxOAuthErrorBodyLength = 200

// sanitizeOAuthError truncates an *oauth2.RetrieveError's response
// body so token-endpoint failures stay log-safe.
func sanitizeOAuthError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return err
	}
	body := string(retrieveErr.Body)
	if len(body) <= maxOAuthErrorBodyLength {
		return err
	}
	return fmt.Errorf("%s %s... (truncated)", retrieveErr.ErrorCode, body[:maxOAuthErrorBodyLength])
}
