package nessie

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
)

type LogResponse struct {
	HasMore    bool               `json:"hasMore"`
	Token      string             `json:"token,omitempty"`
	LogEntries []content.LogEntry `json:"logEntries"`
}

// Commit applies ops atomically onto the branch. refSpec must be hash
// qualified: the store rejects the commit with ErrConflict if the branch moved.
func (c *Client) Commit(ctx context.Context, refSpec string, ops content.Operations) (content.CommitResponse, error) {
	name, hash, err := content.ParseReferenceSpec(refSpec)
	if err != nil {
		return content.CommitResponse{}, err
	}
	if hash == "" {
		return content.CommitResponse{}, catalogerr.NewValidationError("reference", "commit requires an expected hash, got %q", refSpec)
	}
	if len(ops.Operations) == 0 {
		return content.CommitResponse{}, catalogerr.NewValidationError("operations", "must not be empty")
	}
	var resp content.CommitResponse
	if err := c.do(ctx, "commit", http.MethodPost, "trees/"+refPath(content.RefSpec(name, hash))+"/history/commit", nil, ops, &resp); err != nil {
		return content.CommitResponse{}, err
	}
	return resp, nil
}

// CommitLog returns up to maxRecords commits reachable from refSpec, newest first.
// A maxRecords below one returns the complete history.
func (c *Client) CommitLog(ctx context.Context, refSpec string, maxRecords int) ([]content.LogEntry, error) {
	if refSpec == "" {
		return nil, catalogerr.NewValidationError("reference", "must not be empty")
	}
	var ret []content.LogEntry
	token := ""
	for {
		query := url.Values{}
		if maxRecords > 0 {
			query.Set("max-records", strconv.Itoa(maxRecords-len(ret)))
		}
		if token != "" {
			query.Set("page-token", token)
		}
		var resp LogResponse
		if err := c.do(ctx, "commit_log", http.MethodGet, "trees/"+refPath(refSpec)+"/history", query, nil, &resp); err != nil {
			return nil, err
		}
		ret = append(ret, resp.LogEntries...)
		if maxRecords > 0 && len(ret) >= maxRecords {
			return ret[:maxRecords], nil
		}
		if !resp.HasMore || resp.Token == "" {
			break
		}
		token = resp.Token
	}
	return ret, nil
}
