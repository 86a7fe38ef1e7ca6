// Package firestore implements service.Store using the Cloud Firestore REST API.
//
// Each user's tasks live in a top-level collection named after the user id;
// a task is one document with string fields task, priority and status.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"golang.org/x/oauth2"
	firestorev1 "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"tasktracker/internal/config"
	"tasktracker/internal/service"
)

const (
	// PageSize is the number of documents fetched per list page.
	PageSize = 300

	fieldTask     = "task"
	fieldPriority = "priority"
	fieldStatus   = "status"
)

// Client implements service.Store using Firestore.
type Client struct {
	svc     *firestorev1.Service
	root    string // projects/{project}/databases/{database}/documents
	timeout time.Duration
	log     *slog.Logger
}

// New creates a Firestore client authenticated by ts.
// ts yields the signed-in user's ID token.
func New(ctx context.Context, cfg *config.Config, settings config.Settings, ts oauth2.TokenSource) (*Client, error) {
	httpClient := oauth2.NewClient(ctx, ts)
	return NewWithHTTPClient(ctx, settings, httpClient, cfg.Log())
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, settings config.Settings, httpClient *http.Client, log *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := firestorev1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore service: %w", err)
	}

	database := settings.Database
	if database == "" {
		database = config.DefaultDatabase
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Client{
		svc:     svc,
		root:    fmt.Sprintf("projects/%s/databases/%s/documents", settings.ProjectID, database),
		timeout: timeout,
		log:     log.With("backend", "firestore"),
	}, nil
}

// List returns every task in the collection in store order.
func (c *Client) List(ctx context.Context, collection string) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := []service.Task{}
	err := c.svc.Projects.Databases.Documents.List(c.root, collection).
		PageSize(PageSize).
		Pages(ctx, func(resp *firestorev1.ListDocumentsResponse) error {
			for _, doc := range resp.Documents {
				result = append(result, decode(doc))
			}
			return nil
		})
	if err != nil {
		return nil, c.wrapError("list", err)
	}
	return result, nil
}

// Get returns a single task.
func (c *Client) Get(ctx context.Context, collection, taskID string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	doc, err := c.svc.Projects.Databases.Documents.Get(c.docName(collection, taskID)).Context(ctx).Do()
	if err != nil {
		return service.Task{}, c.wrapError("get", err)
	}
	return decode(doc), nil
}

// Insert creates a task document with a Firestore-assigned id.
func (c *Client) Insert(ctx context.Context, collection string, fields service.Fields) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	doc, _ := encode(fields)
	created, err := c.svc.Projects.Databases.Documents.CreateDocument(c.root, collection, doc).Context(ctx).Do()
	if err != nil {
		return "", c.wrapError("insert", err)
	}
	return path.Base(created.Name), nil
}

// Patch writes the set fields of an existing document.
func (c *Client) Patch(ctx context.Context, collection, taskID string, fields service.Fields) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	doc, mask := encode(fields)
	_, err := c.svc.Projects.Databases.Documents.Patch(c.docName(collection, taskID), doc).
		UpdateMaskFieldPaths(mask...).
		CurrentDocumentExists(true).
		Context(ctx).
		Do()
	if err != nil {
		return c.wrapError("patch", err)
	}
	return nil
}

// Remove deletes a task document.
func (c *Client) Remove(ctx context.Context, collection, taskID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.svc.Projects.Databases.Documents.Delete(c.docName(collection, taskID)).
		CurrentDocumentExists(true).
		Context(ctx).
		Do()
	if err != nil {
		return c.wrapError("remove", err)
	}
	return nil
}

func (c *Client) docName(collection, taskID string) string {
	return c.root + "/" + collection + "/" + taskID
}

// decode maps a document to a task. A missing status reads as pending.
func decode(doc *firestorev1.Document) service.Task {
	t := service.Task{
		ID:       path.Base(doc.Name),
		Task:     stringField(doc, fieldTask),
		Priority: service.Priority(stringField(doc, fieldPriority)),
		Status:   service.Status(stringField(doc, fieldStatus)),
	}
	if t.Status == "" {
		t.Status = service.StatusPending
	}
	return t
}

func stringField(doc *firestorev1.Document, key string) string {
	v, ok := doc.Fields[key]
	if !ok {
		return ""
	}
	return v.StringValue
}

// encode builds a document holding the set fields, and their mask paths.
func encode(f service.Fields) (*firestorev1.Document, []string) {
	doc := &firestorev1.Document{Fields: make(map[string]firestorev1.Value)}
	var mask []string
	put := func(key, value string) {
		doc.Fields[key] = firestorev1.Value{StringValue: value}
		mask = append(mask, key)
	}
	if f.Task != nil {
		put(fieldTask, *f.Task)
	}
	if f.Priority != nil {
		put(fieldPriority, string(*f.Priority))
	}
	if f.Status != nil {
		put(fieldStatus, string(*f.Status))
	}
	return doc, mask
}

// wrapError classifies API errors into the service error taxonomy.
func (c *Client) wrapError(op string, err error) error {
	c.log.Debug("request failed", "op", op, "err", err)

	var ae *service.AuthError
	if errors.As(err, &ae) {
		return &service.StoreError{Op: op, Err: ae}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return &service.StoreError{Op: op, Err: service.ErrNotFound}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &service.StoreError{Op: op, Err: &service.AuthError{
				Reason: "token expired or revoked (run: tasktracker login)",
				Err:    err,
			}}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &service.StoreError{Op: op, Err: errors.New("request timed out")}
	}
	return &service.StoreError{Op: op, Err: err}
}
