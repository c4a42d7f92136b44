package noteforest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/emrgen/noteforest/internal/graph"
	"github.com/emrgen/noteforest/internal/model"
	"github.com/emrgen/noteforest/internal/service"
	"github.com/emrgen/noteforest/internal/tree"
)

// APIError is a non 2xx answer of the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("noteforest: %d: %s", e.Status, e.Message)
}

// Client talks to the noteforest http api on behalf of one user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ io.Closer = (*Client)(nil)

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{},
	}
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&payload)
		return &APIError{Status: res.StatusCode, Message: payload.Error}
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(out)
}

type documentList struct {
	Documents []*model.Document `json:"documents"`
}

func (c *Client) CreateDocument(ctx context.Context, request *service.CreateDocumentRequest) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, http.MethodPost, "/v1/documents", request, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, http.MethodGet, "/v1/documents/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) UpdateDocument(ctx context.Context, id string, request *service.UpdateDocumentRequest) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, http.MethodPatch, "/v1/documents/"+url.PathEscape(id), request, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments lists every active document in tree order.
func (c *Client) ListDocuments(ctx context.Context) ([]*model.Document, error) {
	return c.list(ctx, "/v1/documents")
}

// ListRoots lists the top level documents.
func (c *Client) ListRoots(ctx context.Context) ([]*model.Document, error) {
	return c.list(ctx, "/v1/documents?roots=true")
}

func (c *Client) ListChildren(ctx context.Context, parentID string) ([]*model.Document, error) {
	return c.list(ctx, "/v1/documents/"+url.PathEscape(parentID)+"/children")
}

func (c *Client) ListTrash(ctx context.Context) ([]*model.Document, error) {
	return c.list(ctx, "/v1/trash")
}

func (c *Client) list(ctx context.Context, path string) ([]*model.Document, error) {
	var res documentList
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Documents, nil
}

func (c *Client) ArchiveDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/v1/documents/"+url.PathEscape(id)+"/archive", nil, nil)
}

func (c *Client) RestoreDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/v1/documents/"+url.PathEscape(id)+"/restore", nil, nil)
}

// DeleteDocument deletes a document with its subtree and returns the deleted ids.
func (c *Client) DeleteDocument(ctx context.Context, id string) ([]string, error) {
	var res struct {
		Deleted []string `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/v1/documents/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}
	return res.Deleted, nil
}

func (c *Client) Graph(ctx context.Context, focalID string) (*graph.View, error) {
	var view graph.View
	if err := c.do(ctx, http.MethodGet, "/v1/documents/"+url.PathEscape(focalID)+"/graph", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Drop commits a drag and drop. A rejected drop is not an error.
func (c *Client) Drop(ctx context.Context, sourceID, targetID string, offset float64, side tree.Side) (*service.DropResult, error) {
	request := &service.DropRequest{SourceID: sourceID, TargetID: targetID, Offset: offset, Side: side}

	var res service.DropResult
	if err := c.do(ctx, http.MethodPost, "/v1/tree/drop", request, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) RepairOrder(ctx context.Context) (int, error) {
	var res struct {
		Updated int `json:"updated"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/tree/repair", nil, &res); err != nil {
		return 0, err
	}
	return res.Updated, nil
}

func (c *Client) CreateTag(ctx context.Context, name, color string) (*model.Tag, error) {
	var tag model.Tag
	body := map[string]string{"name": name, "color": color}
	if err := c.do(ctx, http.MethodPost, "/v1/tags", body, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *Client) ListTags(ctx context.Context) ([]*model.Tag, error) {
	var res struct {
		Tags []*model.Tag `json:"tags"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/tags", nil, &res); err != nil {
		return nil, err
	}
	return res.Tags, nil
}

func (c *Client) DeleteTag(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/tags/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SetDocumentTags(ctx context.Context, id string, tagIDs []string) (*model.Document, error) {
	var doc model.Document
	body := map[string][]string{"tags": tagIDs}
	if err := c.do(ctx, http.MethodPut, "/v1/documents/"+url.PathEscape(id)+"/tags", body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
