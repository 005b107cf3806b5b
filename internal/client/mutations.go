package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// RenameColumnRequest is the body of PUT /csv/column/{column_id}.
type RenameColumnRequest struct {
	NewColumnName string `json:"new_column_name"`
}

// RenameColumn renames the column identified by columnID.
// An empty newName is sent as-is.
func (c *Client) RenameColumn(ctx context.Context, columnID, newName string) error {
	body, err := json.Marshal(RenameColumnRequest{NewColumnName: newName})
	if err != nil {
		return fmt.Errorf("encode rename body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/csv/column/"+url.PathEscape(columnID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

// DeleteRow deletes the row identified by rowID. No body is sent.
func (c *Client) DeleteRow(ctx context.Context, rowID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/csv/row/"+url.PathEscape(rowID), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
