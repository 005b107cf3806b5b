package client

import (
	"context"
	"net/http"
)

// FileSummary is one uploaded file as reported by the listing endpoint.
type FileSummary struct {
	ID         int64   `json:"id"`
	Filename   string  `json:"filename"`
	Size       float64 `json:"size"`
	UploadedAt string  `json:"uploaded_at"`
}

// ListFiles fetches every uploaded file from the listing endpoint.
func (c *Client) ListFiles(ctx context.Context) ([]FileSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.listPath, nil)
	if err != nil {
		return nil, err
	}

	var files []FileSummary
	if err := c.do(req, &files); err != nil {
		return nil, err
	}
	return files, nil
}
