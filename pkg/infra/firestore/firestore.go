package firestore

import (
	"context"
	"net/url"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection holds parameter documents unless overridden
const DefaultCollection = "parameters"

// document is the stored form of a parameter
type document struct {
	Name      string    `firestore:"name"`
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// Client is a parameter store on Firestore
type Client struct {
	client     *firestore.Client
	collection string
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithCollection sets the collection holding parameter documents
func WithCollection(name string) Option {
	return func(c *Client) {
		c.collection = name
	}
}

// New creates a Firestore parameter store
func New(ctx context.Context, projectID, databaseID string, opts []Option, clientOpts ...option.ClientOption) (*Client, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID),
		)
	}

	c := &Client{client: client, collection: DefaultCollection}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DocumentID maps a parameter name such as /prod/app/release to a
// Firestore document ID, which may not contain slashes
func DocumentID(name string) string {
	return url.PathEscape(name)
}

// Put stores value under name, replacing any previous value
func (c *Client) Put(ctx context.Context, name, value string) error {
	doc := &document{
		Name:      name,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	if _, err := c.client.Collection(c.collection).Doc(DocumentID(name)).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put parameter",
			goerr.V("name", name),
			goerr.V("collection", c.collection),
		)
	}

	logging.From(ctx).Debug("Put parameter", "name", name, "value", value)
	return nil
}

// Get returns the stored parameter, or nil if it does not exist
func (c *Client) Get(ctx context.Context, name string) (*model.Parameter, error) {
	snap, err := c.client.Collection(c.collection).Doc(DocumentID(name)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get parameter", goerr.V("name", name))
	}

	var doc document
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode parameter", goerr.V("name", name))
	}
	return &model.Parameter{Name: doc.Name, Value: doc.Value, UpdatedAt: doc.UpdatedAt}, nil
}

// Close closes the underlying client
func (c *Client) Close() error {
	return c.client.Close()
}
