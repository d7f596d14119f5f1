// Copyright (c) 2025 Justin Cranford

package email

import (
	"testing"

	"github.com/stretchr/testify/require"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

func TestNewClient_StartsDisconnected(t *testing.T) {
	t.Parallel()
	c := NewClient(paporgConfig.EmailSourceSpec{Host: "imap.example.com", Port: 993, Username: "test@example.com"})
	require.False(t, c.IsConnected())
	require.Zero(t, c.UIDValidity())
}

func TestClient_ExamineFolder_RequiresConnection(t *testing.T) {
	t.Parallel()
	c := NewClient(paporgConfig.EmailSourceSpec{Folder: "INBOX"})
	_, err := c.ExamineFolder()
	require.Error(t, err)
}

func TestClient_SearchSinceUID_RequiresConnection(t *testing.T) {
	t.Parallel()
	c := NewClient(paporgConfig.EmailSourceSpec{})
	_, err := c.SearchSinceUID(0)
	require.Error(t, err)
}

func TestClient_Disconnect_WithoutConnectingIsANoop(t *testing.T) {
	t.Parallel()
	c := NewClient(paporgConfig.EmailSourceSpec{})
	require.NoError(t, c.Disconnect())
}
