package appwrite

import (
	"context"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

type accountResponse struct {
	ID    string `json:"$id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sessionResponse struct {
	ID     string `json:"$id"`
	Secret string `json:"secret"`
}

// CreateAccount implements store.IdentityStore
func (c *Client) CreateAccount(ctx context.Context, reg store.Registration) (core.SessionUser, error) {
	const op = "account.create"
	payload := struct {
		UserID   string `json:"userId"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name,omitempty"`
	}{
		UserID:   newID(),
		Email:    reg.Email,
		Password: reg.Password,
		Name:     reg.Name,
	}
	var acc accountResponse
	if err := c.doJSON(ctx, op, "POST", "/account", payload, &acc); err != nil {
		return core.SessionUser{}, err
	}
	return core.SessionUser{ID: acc.ID, Name: acc.Name, Email: acc.Email}, nil
}

// CreateSession implements store.IdentityStore
func (c *Client) CreateSession(ctx context.Context, creds store.Credentials) error {
	const op = "session.create"
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: creds.Email, Password: creds.Password}

	var sess sessionResponse
	if err := c.doJSON(ctx, op, "POST", "/account/sessions/email", payload, &sess); err != nil {
		return err
	}
	c.setSessionSecret(sess.Secret)
	return nil
}

// CurrentUser implements store.IdentityStore
func (c *Client) CurrentUser(ctx context.Context) (core.SessionUser, error) {
	const op = "session.get"
	if c.sessionSecret() == "" {
		return core.SessionUser{}, store.Errorf(store.KindUnauthorized, op, "no live session")
	}
	var acc accountResponse
	if err := c.do(ctx, op, "GET", "/account", nil, "", &acc); err != nil {
		return core.SessionUser{}, err
	}
	return core.SessionUser{ID: acc.ID, Name: acc.Name, Email: acc.Email}, nil
}

// DeleteSession implements store.IdentityStore. The local secret is
// dropped even when the remote delete fails.
func (c *Client) DeleteSession(ctx context.Context) error {
	err := c.do(ctx, "session.delete", "DELETE", "/account/sessions/current", nil, "", nil)
	c.setSessionSecret("")
	return err
}
