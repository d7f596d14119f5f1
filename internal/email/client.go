// Copyright (c) 2025 Justin Cranford

package email

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"

	paporgConfig "github.com/iperka/paporg-sub000/internal/config"
)

// Client wraps an IMAP connection for one EmailSourceSpec (spec §4.9).
// TLS is always used: the schema has no plaintext toggle, so
// connecting always goes through client.DialTLS.
type Client struct {
	spec   paporgConfig.EmailSourceSpec
	conn   *client.Client
	uidVal uint32
	folder string
}

// NewClient builds a Client for spec; it does not connect yet.
func NewClient(spec paporgConfig.EmailSourceSpec) *Client {
	return &Client{spec: spec}
}

// Connect dials the IMAP server over TLS and authenticates, by
// password or XOAUTH2 depending on spec.Auth (spec §4.9).
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", c.spec.Host, c.spec.Port)
	conn, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("email: connecting to %s: %w", addr, err)
	}

	if c.spec.Auth.OAuth2 != nil {
		token, err := resolveAccessToken(ctx, *c.spec.Auth.OAuth2)
		if err != nil {
			_ = conn.Logout()
			return err
		}
		auth := sasl.NewXoauth2Client(c.spec.Username, token)
		if err := conn.Authenticate(auth); err != nil {
			_ = conn.Logout()
			return fmt.Errorf("email: XOAUTH2 authentication failed: %w", err)
		}
	} else {
		password, err := resolvePassword(c.spec.Auth)
		if err != nil {
			_ = conn.Logout()
			return err
		}
		if err := conn.Login(c.spec.Username, password); err != nil {
			_ = conn.Logout()
			return fmt.Errorf("email: login failed: %w", err)
		}
	}

	c.conn = conn
	return nil
}

// ExamineFolder opens spec.Folder read-only (EXAMINE, not SELECT) so
// scanning never marks messages read or changes mailbox state, and
// captures the folder's UIDVALIDITY (spec §4.6/§4.9).
func (c *Client) ExamineFolder() (uint32, error) {
	if c.conn == nil {
		return 0, fmt.Errorf("email: not connected")
	}
	mbox, err := c.conn.Select(c.spec.Folder, true)
	if err != nil {
		return 0, fmt.Errorf("email: examining folder %q: %w", c.spec.Folder, err)
	}
	if mbox.UidValidity == 0 {
		return 0, fmt.Errorf("email: server did not provide UIDVALIDITY for folder %q", c.spec.Folder)
	}
	c.folder = c.spec.Folder
	c.uidVal = mbox.UidValidity
	return mbox.UidValidity, nil
}

// UIDValidity returns the UIDVALIDITY captured by the last
// ExamineFolder call.
func (c *Client) UIDValidity() uint32 {
	return c.uidVal
}

// SearchSinceUID returns every UID greater than lastUID in the
// examined folder ("UID {lastUID+1}:*"), the incremental-scan query
// (spec §4.6).
func (c *Client) SearchSinceUID(lastUID uint32) ([]uint32, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("email: not connected")
	}
	seqSet, err := imap.ParseSeqSet(fmt.Sprintf("%d:*", lastUID+1))
	if err != nil {
		return nil, fmt.Errorf("email: building UID search set: %w", err)
	}
	criteria := imap.NewSearchCriteria()
	criteria.Uid = seqSet
	uids, err := c.conn.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("email: UID search: %w", err)
	}
	// "N:*" also matches the highest existing UID when none exceeds
	// lastUID, so drop anything not strictly newer.
	newer := uids[:0]
	for _, uid := range uids {
		if uid > lastUID {
			newer = append(newer, uid)
		}
	}
	return newer, nil
}

// SearchSinceDate returns every UID received on or after since, the
// first-scan query when no UID cursor is yet persisted (spec §4.6).
func (c *Client) SearchSinceDate(since time.Time) ([]uint32, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("email: not connected")
	}
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	uids, err := c.conn.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("email: date search: %w", err)
	}
	return uids, nil
}

// FetchEmailPeek fetches the full raw message for uid using
// BODY.PEEK[], which never marks the message as seen (spec §4.9).
func (c *Client) FetchEmailPeek(uid uint32) ([]byte, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("email: not connected")
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.conn.UidFetch(seqSet, items, messages)
	}()

	msg, ok := <-messages
	if err := <-done; err != nil {
		return nil, fmt.Errorf("email: fetching UID %d: %w", uid, err)
	}
	if !ok || msg == nil {
		return nil, fmt.Errorf("email: message with UID %d not found", uid)
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("email: message with UID %d has no body", uid)
	}
	raw := make([]byte, 0, 8192)
	buf := make([]byte, 8192)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			raw = append(raw, buf[:n]...)
		}
		if err != nil {
			break
		}
	}
	return raw, nil
}

// Disconnect logs out and releases the connection; Connect may be
// called again afterward.
func (c *Client) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Logout()
	c.conn = nil
	c.folder = ""
	c.uidVal = 0
	if err != nil {
		return fmt.Errorf("email: logout: %w", err)
	}
	return nil
}

// IsConnected reports whether Connect has succeeded and Disconnect
// hasn't been called since.
func (c *Client) IsConnected() bool {
	return c.conn != nil
}
