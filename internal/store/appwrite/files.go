package appwrite

import (
	"context"
	"fmt"
	"io"

	"expensetracker/internal/store"
)

type fileResponse struct {
	ID string `json:"$id"`
}

func (c *Client) filesPath() string {
	return fmt.Sprintf("/storage/buckets/%s/files", pathEscape(c.cfg.BucketID))
}

// The remote bucket scopes files through the live session's
// permissions, so the owner ID stays client-side: requests for another
// user's files come back 401 or 404 from the service itself.

// UploadFile implements store.FileStore
func (c *Client) UploadFile(ctx context.Context, _ string, name string, data io.Reader) (string, error) {
	const op = "files.upload"
	body, contentType, err := multipartFile(name, data, newID())
	if err != nil {
		return "", store.NewError(store.KindInvalid, op, err)
	}
	var created fileResponse
	if err := c.do(ctx, op, "POST", c.filesPath(), body, contentType, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// FileURL implements store.FileStore. The view URL is served by the
// remote deployment itself, so building it needs no round trip, but a
// missing file is still reported.
func (c *Client) FileURL(ctx context.Context, _ string, fileID string) (string, error) {
	const op = "files.url"
	if err := c.do(ctx, op, "GET", c.filesPath()+"/"+pathEscape(fileID), nil, "", nil); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s/%s/view?project=%s",
		c.cfg.Endpoint, c.filesPath(), pathEscape(fileID), pathEscape(c.cfg.ProjectID)), nil
}

// DeleteFile implements store.FileStore
func (c *Client) DeleteFile(ctx context.Context, _ string, fileID string) error {
	return c.do(ctx, "files.delete", "DELETE", c.filesPath()+"/"+pathEscape(fileID), nil, "", nil)
}
