package nessie

import (
	"context"
	"net/http"
	"net/url"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/metrics"
)

type (
	ReferencesResponse struct {
		HasMore    bool                `json:"hasMore"`
		Token      string              `json:"token,omitempty"`
		References []content.Reference `json:"references"`
	}
	SingleReferenceResponse struct {
		Reference content.Reference `json:"reference"`
	}
)

// ListReferences returns all branches and tags
func (c *Client) ListReferences(ctx context.Context) ([]content.Reference, error) {
	var ret []content.Reference
	token := ""
	for {
		query := url.Values{}
		if token != "" {
			query.Set("page-token", token)
		}
		var resp ReferencesResponse
		if err := c.do(ctx, "list_references", http.MethodGet, "trees", query, nil, &resp); err != nil {
			return nil, err
		}
		ret = append(ret, resp.References...)
		if !resp.HasMore || resp.Token == "" {
			break
		}
		token = resp.Token
	}
	metrics.ReferencesGauge.WithLabelValues().Set(float64(len(ret)))
	return ret, nil
}

// GetReference resolves a reference to its current hash
func (c *Client) GetReference(ctx context.Context, name string) (content.Reference, error) {
	if name == "" {
		return content.Reference{}, catalogerr.NewValidationError("reference", "name must not be empty")
	}
	var resp SingleReferenceResponse
	if err := c.do(ctx, "get_reference", http.MethodGet, "trees/"+refPath(name), nil, nil, &resp); err != nil {
		return content.Reference{}, err
	}
	return resp.Reference, nil
}

// CreateReference creates name pointing at the hash of source
func (c *Client) CreateReference(ctx context.Context, name string, typ content.ReferenceType, source content.Reference) (content.Reference, error) {
	if name == "" {
		return content.Reference{}, catalogerr.NewValidationError("reference", "name must not be empty")
	}
	if _, err := content.ParseReferenceType(string(typ)); err != nil {
		return content.Reference{}, err
	}
	query := url.Values{}
	query.Set("name", name)
	query.Set("type", string(typ))
	var resp SingleReferenceResponse
	if err := c.do(ctx, "create_reference", http.MethodPost, "trees", query, source, &resp); err != nil {
		return content.Reference{}, err
	}
	return resp.Reference, nil
}

// DeleteReference deletes ref, which must carry the expected hash
func (c *Client) DeleteReference(ctx context.Context, ref content.Reference) (content.Reference, error) {
	if ref.Name == "" || ref.Hash == "" {
		return content.Reference{}, catalogerr.NewValidationError("reference", "name and hash are required to delete %q", ref.Spec())
	}
	query := url.Values{}
	if ref.Type != "" {
		query.Set("type", string(ref.Type))
	}
	var resp SingleReferenceResponse
	if err := c.do(ctx, "delete_reference", http.MethodDelete, "trees/"+refPath(ref.Spec()), query, nil, &resp); err != nil {
		return content.Reference{}, err
	}
	return resp.Reference, nil
}
