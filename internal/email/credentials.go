// Copyright (c) 2025 Justin Cranford

package email

import (
	"context"
	"fmt"
	"os"
	"strings"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

// resolvePassword returns the mailbox password, the only supported
// direct-auth source (spec §4.9; the config validator already
// requires Auth.Password or Auth.OAuth2 to be set).
func resolvePassword(auth paporgConfig.EmailAuthSpec) (string, error) {
	if auth.Password == nil {
		return "", fmt.Errorf("email: no password configured")
	}
	return *auth.Password, nil
}

// resolveAccessToken obtains a bearer access token for XOAUTH2,
// mirroring client.rs's get_oauth2_access_token fallback chain minus
// the file-based credential sources our simpler YAML schema doesn't
// carry:
//  1. {PROVIDER}_REFRESH_TOKEN env var -> exchange via the device-flow
//     token endpoint for a fresh access token.
//  2. {PROVIDER}_ACCESS_TOKEN env var -> used directly.
//
// Neither being set produces an error pointing at device-flow
// authorization, matching the original's operator-facing hint.
func resolveAccessToken(ctx context.Context, spec paporgConfig.EmailOAuthSpec) (string, error) {
	prefix := providerEnvPrefix(spec.Provider)

	if refreshToken := strings.TrimSpace(os.Getenv(prefix + "_REFRESH_TOKEN")); refreshToken != "" {
		cfg, err := NewDeviceFlowConfig(spec)
		if err != nil {
			return "", err
		}
		token, err := RefreshAccessToken(ctx, cfg, refreshToken)
		if err != nil {
			return "", err
		}
		return token.AccessToken, nil
	}

	if accessToken := strings.TrimSpace(os.Getenv(prefix + "_ACCESS_TOKEN")); accessToken != "" {
		return accessToken, nil
	}

	return "", fmt.Errorf(
		"email: OAuth2 access token not found; set %s_ACCESS_TOKEN, set %s_REFRESH_TOKEN, "+
			"or authorize via the OAuth2 device flow to obtain one",
		prefix, prefix,
	)
}
