package nessie

import (
	"context"
	"net/http"
	"net/url"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/pkg/errors"
)

type (
	EntriesResponse struct {
		HasMore            bool               `json:"hasMore"`
		Token              string             `json:"token,omitempty"`
		Entries            []content.Entry    `json:"entries"`
		EffectiveReference *content.Reference `json:"effectiveReference,omitempty"`
	}
	ContentResponse struct {
		Content            content.Wire       `json:"content"`
		EffectiveReference *content.Reference `json:"effectiveReference,omitempty"`
	}
)

// ListEntries returns every key visible at refSpec, following all pages
func (c *Client) ListEntries(ctx context.Context, refSpec string) ([]content.Entry, error) {
	if refSpec == "" {
		return nil, catalogerr.NewValidationError("reference", "must not be empty")
	}
	var ret []content.Entry
	token := ""
	for {
		query := url.Values{}
		if token != "" {
			query.Set("page-token", token)
		}
		var resp EntriesResponse
		if err := c.do(ctx, "list_entries", http.MethodGet, "trees/"+refPath(refSpec)+"/entries", query, nil, &resp); err != nil {
			return nil, err
		}
		ret = append(ret, resp.Entries...)
		if !resp.HasMore || resp.Token == "" {
			break
		}
		token = resp.Token
	}
	return ret, nil
}

// GetContent returns the content stored at key
func (c *Client) GetContent(ctx context.Context, refSpec string, key content.Key) (content.Content, error) {
	if refSpec == "" {
		return nil, catalogerr.NewValidationError("reference", "must not be empty")
	}
	if key.IsEmpty() {
		return nil, catalogerr.NewValidationError("key", "must not be empty")
	}
	var resp ContentResponse
	if err := c.do(ctx, "get_content", http.MethodGet, "trees/"+refPath(refSpec)+"/contents/"+key.PathEscaped(), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Content.Content == nil {
		return nil, errors.Wrapf(catalogerr.ErrDecode, "content of %s without payload", key)
	}
	return resp.Content.Content, nil
}
