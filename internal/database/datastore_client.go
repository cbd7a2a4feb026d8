package database

import (
	"context"

	"cloud.google.com/go/datastore"
	"github.com/pkg/errors"
)

const datastoreKind = "KeyValue"

// kvEntity is the Datastore shape of one key. The value is excluded from
// indexes because a whole collection can exceed the indexed property limit.
type kvEntity struct {
	Value string `datastore:"Value,noindex"`
}

// DatastoreStore keeps every key as a KeyValue entity in Cloud Datastore.
type DatastoreStore struct {
	client *datastore.Client
}

// NewDatastoreStore creates a client for projectID using the ambient
// Google credentials (or DATASTORE_EMULATOR_HOST).
func NewDatastoreStore(ctx context.Context, projectID string) (*DatastoreStore, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "create datastore client")
	}
	return WrapDatastoreClient(client), nil
}

// WrapDatastoreClient wraps an existing datastore client.
func WrapDatastoreClient(client *datastore.Client) *DatastoreStore {
	if client == nil {
		return nil
	}
	return &DatastoreStore{client: client}
}

func (dc *DatastoreStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e kvEntity
	err := dc.client.Get(ctx, datastore.NameKey(datastoreKind, key, nil), &e)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "datastore get %s", key)
	}
	return e.Value, true, nil
}

func (dc *DatastoreStore) Set(ctx context.Context, key, value string) error {
	_, err := dc.client.Put(ctx, datastore.NameKey(datastoreKind, key, nil), &kvEntity{Value: value})
	if err != nil {
		return errors.Wrapf(err, "datastore put %s", key)
	}
	return nil
}

func (dc *DatastoreStore) Close() error {
	return dc.client.Close()
}
