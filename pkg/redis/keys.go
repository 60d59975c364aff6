package redis

import "strings"

// StateStorageName is the storage name the storefront state lives under.
const StateStorageName = "sweet-delights-storage"

// Keyspace prefixes every key the storefront writes. The zero value is "sd".
type Keyspace string

const defaultKeyspace Keyspace = "sd"

// Key joins the non-blank parts under the keyspace with ":".
func (k Keyspace) Key(parts ...string) string {
	if k == "" {
		k = defaultKeyspace
	}
	var b strings.Builder
	b.WriteString(string(k))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

// StateKey is where the persisted storefront state for a browser session lives.
func (c *Client) StateKey(sessionID string) string {
	return c.keys.Key(StateStorageName, sessionID)
}

// CheckoutKey holds the in-progress checkout flow for a browser session.
func (c *Client) CheckoutKey(sessionID string) string {
	return c.keys.Key("checkout", sessionID)
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return c.keys.Key("idempotency", scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return c.keys.Key("rate_limit", scope)
}

// AccessSessionKey maps a JWT id to its refresh token.
func (c *Client) AccessSessionKey(accessID string) string {
	return c.keys.Key("session", "access", accessID)
}
