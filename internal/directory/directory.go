// Package directory fetches the user list from the account service and
// caches it as local contacts.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/matheus3301/hrchat/internal/config"
	"github.com/matheus3301/hrchat/internal/store"
	"go.uber.org/zap"
)

// Contacts is where fetched users are cached.
type Contacts interface {
	UpsertContacts(owner string, contacts []store.Contact) error
	ListContacts(owner string) ([]store.Contact, error)
}

// Self identifies the caller so it can be left out of the list.
type Self struct {
	ID    string
	Email string
}

type user struct {
	ID       string `json:"_id"`
	Email    string `json:"email"`
	Fullname struct {
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
	} `json:"fullname"`
}

// Client talks to GET {base}/users/all.
type Client struct {
	base   string
	http   *http.Client
	cache  Contacts
	logger *zap.Logger
	now    func() time.Time
}

// New creates a directory client. cache may be nil.
func New(base string, cache Contacts, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 10 * time.Second},
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// All returns every directory user except self, and caches them under self.ID.
func (c *Client) All(ctx context.Context, self Self) ([]store.Contact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/users/all", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch users: unexpected status %s", resp.Status)
	}

	var users []user
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	now := c.now()
	contacts := make([]store.Contact, 0, len(users))
	for _, u := range users {
		if isSelf(u, self) {
			continue
		}
		contacts = append(contacts, store.Contact{
			ID:    config.Identity(u.ID, u.Email, now),
			Email: u.Email,
			Name:  config.DisplayName(u.Fullname.Firstname, u.Fullname.Lastname, u.Email),
		})
	}

	if c.cache != nil && self.ID != "" {
		if err := c.cache.UpsertContacts(self.ID, contacts); err != nil {
			c.logger.Warn("cache contacts", zap.Error(err))
		}
	}
	c.logger.Debug("directory fetched", zap.Int("users", len(contacts)))
	return contacts, nil
}

// Cached returns the contacts stored by the last successful All.
func (c *Client) Cached(owner string) ([]store.Contact, error) {
	if c.cache == nil {
		return nil, nil
	}
	return c.cache.ListContacts(owner)
}

func isSelf(u user, self Self) bool {
	if self.ID != "" && u.ID == self.ID {
		return true
	}
	return self.Email != "" && u.Email == self.Email
}
