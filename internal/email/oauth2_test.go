// Copyright (c) 2025 Justin Cranford

package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

func TestNewDeviceFlowConfig_KnownProviderUsesPresetEndpoint(t *testing.T) {
	t.Parallel()
	cfg, err := NewDeviceFlowConfig(paporgConfig.EmailOAuthSpec{Provider: "google", ClientID: "client-1"})
	require.NoError(t, err)
	require.Equal(t, "https://oauth2.googleapis.com/device/code", cfg.Endpoint.DeviceAuthURL)
	require.Equal(t, "https://oauth2.googleapis.com/token", cfg.Endpoint.TokenURL)
	require.Equal(t, []string{"https://mail.google.com/"}, cfg.Scopes)
}

func TestNewDeviceFlowConfig_OutlookHasOfflineAccessScope(t *testing.T) {
	t.Parallel()
	cfg, err := NewDeviceFlowConfig(paporgConfig.EmailOAuthSpec{Provider: "microsoft", ClientID: "client-1"})
	require.NoError(t, err)
	require.Contains(t, cfg.Scopes, "offline_access")
}

func TestNewDeviceFlowConfig_CustomRequiresTokenURL(t *testing.T) {
	t.Parallel()
	_, err := NewDeviceFlowConfig(paporgConfig.EmailOAuthSpec{Provider: "custom", ClientID: "client-1"})
	require.Error(t, err)

	cfg, err := NewDeviceFlowConfig(paporgConfig.EmailOAuthSpec{
		Provider: "custom", ClientID: "client-1",
		DeviceAuthURL: "https://example.com/device", TokenURL: "https://example.com/token",
	})
	require.NoError(t, err)
	require.Equal(t, "https://example.com/token", cfg.Endpoint.TokenURL)
}

func TestNewDeviceFlowConfig_ExplicitScopesOverridePreset(t *testing.T) {
	t.Parallel()
	cfg, err := NewDeviceFlowConfig(paporgConfig.EmailOAuthSpec{Provider: "google", Scopes: []string{"custom-scope"}})
	require.NoError(t, err)
	require.Equal(t, []string{"custom-scope"}, cfg.Scopes)
}

func TestProviderEnvPrefix(t *testing.T) {
	t.Parallel()
	require.Equal(t, "GMAIL", providerEnvPrefix("google"))
	require.Equal(t, "OUTLOOK", providerEnvPrefix("microsoft"))
	require.Equal(t, "OAUTH2", providerEnvPrefix("custom"))
	require.Equal(t, "OAUTH2", providerEnvPrefix("unknown"))
}

func TestResolvePassword(t *testing.T) {
	t.Parallel()
	pw := "hunter2"
	got, err := resolvePassword(paporgConfig.EmailAuthSpec{Password: &pw})
	require.NoError(t, err)
	require.Equal(t, "hunter2", got)

	_, err = resolvePassword(paporgConfig.EmailAuthSpec{})
	require.Error(t, err)
}

func TestResolveAccessToken_NoEnvVarsConfigured_ReturnsHelpfulError(t *testing.T) {
	t.Setenv("OAUTH2_ACCESS_TOKEN", "")
	t.Setenv("OAUTH2_REFRESH_TOKEN", "")

	_, err := resolveAccessToken(context.Background(), paporgConfig.EmailOAuthSpec{Provider: "custom"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "authorize")
}

func TestResolveAccessToken_DedicatedAccessTokenEnvVar(t *testing.T) {
	t.Setenv("GMAIL_ACCESS_TOKEN", "token-value\n")
	t.Setenv("GMAIL_REFRESH_TOKEN", "")

	token, err := resolveAccessToken(context.Background(), paporgConfig.EmailOAuthSpec{Provider: "google"})
	require.NoError(t, err)
	require.Equal(t, "token-value", token)
}
