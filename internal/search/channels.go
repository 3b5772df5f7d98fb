// Package search keeps a full-text index of public channel fields in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"
)

// Channel is the indexed document. It only carries public fields.
type Channel struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

type Index struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: info: %s", res.Status())
	}
	return client, nil
}

func NewIndex(es *elasticsearch.Client, index string) *Index {
	return &Index{es: es, index: index}
}

func (i *Index) IndexChannel(ctx context.Context, ch Channel) error {
	body, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("elasticsearch: encode channel: %w", err)
	}

	res, err := i.es.Index(
		i.index,
		bytes.NewReader(body),
		i.es.Index.WithContext(ctx),
		i.es.Index.WithDocumentID(ch.ID),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index channel: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index channel", res.Status(), res.Body)
	}
	return nil
}

func (i *Index) SearchChannels(ctx context.Context, query string, from, size int) (int64, []Channel, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"username^2", "fullName"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Channel `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: decode response: %w", err)
	}

	channels := make([]Channel, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		channels[n] = hit.Source
	}
	return r.Hits.Total.Value, channels, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("elasticsearch: %s: %s: %s", op, status, bytes.TrimSpace(b))
}
