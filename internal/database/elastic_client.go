package database

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
)

// kvDoc is the document stored for one key.
type kvDoc struct {
	Value string `json:"value"`
}

// ElasticStore keeps every key as a document of an Elasticsearch 7 index,
// using the key as document id.
type ElasticStore struct {
	client *elastic.Client
	index  string
}

// NewElasticStore connects to url and creates index when missing. opts are
// applied after the defaults.
func NewElasticStore(ctx context.Context, url, index string, opts ...elastic.ClientOptionFunc) (*ElasticStore, error) {
	if url == "" {
		url = "http://localhost:9200"
	}
	if index == "" {
		index = "employee_directory"
	}
	options := append([]elastic.ClientOptionFunc{
		elastic.SetURL(url),
		elastic.SetSniff(false), // Essential when using Docker or cloud
	}, opts...)
	client, err := elastic.NewClient(options...)
	if err != nil {
		return nil, errors.Wrap(err, "create elasticsearch client")
	}

	if err := ensureIndex(ctx, client, index); err != nil {
		client.Stop()
		return nil, err
	}
	return &ElasticStore{client: client, index: index}, nil
}

func ensureIndex(ctx context.Context, client *elastic.Client, index string) error {
	exists, err := client.IndexExists(index).Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "check index %s", index)
	}
	if exists {
		return nil
	}
	// The value is opaque to search, keep it out of the mapping.
	mapping := `{"mappings":{"properties":{"value":{"type":"text","index":false}}}}`
	if _, err := client.CreateIndex(index).BodyString(mapping).Do(ctx); err != nil {
		return errors.Wrapf(err, "create index %s", index)
	}
	return nil
}

func (es *ElasticStore) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := es.client.Get().
		Index(es.index).
		Id(key).
		Do(ctx)
	if elastic.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "elasticsearch get %s", key)
	}
	if !result.Found {
		return "", false, nil
	}

	var doc kvDoc
	if err := json.Unmarshal(result.Source, &doc); err != nil {
		return "", false, errors.Wrapf(err, "decode document %s", key)
	}
	return doc.Value, true, nil
}

func (es *ElasticStore) Set(ctx context.Context, key, value string) error {
	res, err := es.client.Index().
		Index(es.index).
		Id(key).
		BodyJson(kvDoc{Value: value}).
		Refresh("true"). // Make the write visible to the next Get
		Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "elasticsearch index %s", key)
	}
	if res.Status >= http.StatusBadRequest {
		return errors.Errorf("elasticsearch index %s: status %d", key, res.Status)
	}
	return nil
}

func (es *ElasticStore) Close() error {
	es.client.Stop()
	return nil
}
