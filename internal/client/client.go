// Package client talks to the annotation service over HTTP. One Client serves one
// owner family, so a story client and a derivation client together back an
// owner.Router.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/story-annotations/internal/annotation"
	"github.com/jonathan/story-annotations/internal/owner"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// Error is a failed call to the annotation service.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Message, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is the HTTP implementation of owner.Operations for one family.
type Client struct {
	base      *url.URL
	ownerType annotation.OwnerType
	http      *http.Client
	logger    *zap.Logger
}

var _ owner.Operations = (*Client)(nil)

// New creates a client for the family of ownerType on the service at baseURL.
func New(baseURL string, ownerType annotation.OwnerType, opts Options) (*Client, error) {
	if !ownerType.Valid() {
		return nil, fmt.Errorf("unknown owner type %q", ownerType)
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:      base,
		ownerType: ownerType,
		http:      hc,
		logger:    logger.Named("client").With(zap.String("owner_type", string(ownerType))),
	}, nil
}

// NewRouter builds a router whose story and derivation families both talk to baseURL.
func NewRouter(baseURL string, opts Options, cfg owner.Config) (*owner.Router, error) {
	story, err := New(baseURL, annotation.OwnerStory, opts)
	if err != nil {
		return nil, err
	}
	derivation, err := New(baseURL, annotation.OwnerDerivation, opts)
	if err != nil {
		return nil, err
	}
	return owner.NewRouter(story, derivation, cfg), nil
}

// OwnerType returns the family the client serves.
func (c *Client) OwnerType() annotation.OwnerType {
	return c.ownerType
}

func (c *Client) collectionURL(ownerID uuid.UUID) string {
	return c.base.String() + "/" + c.ownerType.Collection() + "/" + ownerID.String() + "/annotations"
}

func (c *Client) itemURL(ownerID, annotationID uuid.UUID) string {
	return c.collectionURL(ownerID) + "/" + annotationID.String()
}

// ListAnnotations fetches every annotation of an owner.
func (c *Client) ListAnnotations(ctx context.Context, ownerID uuid.UUID) ([]annotation.Annotation, error) {
	var resp struct {
		Annotations []annotation.Annotation `json:"annotations"`
	}
	if err := c.do(ctx, http.MethodGet, c.collectionURL(ownerID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Annotations == nil {
		resp.Annotations = []annotation.Annotation{}
	}
	return resp.Annotations, nil
}

// CreateAnnotation persists a new annotation and returns the stored record.
func (c *Client) CreateAnnotation(ctx context.Context, ownerID uuid.UUID, input *annotation.CreateInput) (*annotation.Annotation, error) {
	var created annotation.Annotation
	if err := c.do(ctx, http.MethodPost, c.collectionURL(ownerID), input, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateAnnotation changes an annotation and returns the stored record.
func (c *Client) UpdateAnnotation(ctx context.Context, ownerID, annotationID uuid.UUID, input *annotation.UpdateInput) (*annotation.Annotation, error) {
	var updated annotation.Annotation
	if err := c.do(ctx, http.MethodPatch, c.itemURL(ownerID, annotationID), input, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAnnotation removes an annotation. A missing annotation is already deleted.
func (c *Client) DeleteAnnotation(ctx context.Context, ownerID, annotationID uuid.UUID) error {
	err := c.do(ctx, http.MethodDelete, c.itemURL(ownerID, annotationID), nil, nil)
	if apiErr, ok := err.(*Error); ok && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Method: method, URL: target, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Method: method, URL: target, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Method: method, URL: target, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("annotation request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
		msg := payload.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Method: method, URL: target, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Method: method, URL: target, StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	return nil
}
