// internal/signals/index.go
package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/tidwall/gjson"

	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/models"
)

// Indexer mirrors persisted signals into Elasticsearch for full-text
// search. Indexing is best-effort: a failure here never fails the write
// path, since Postgres remains the source of truth.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{client: client, index: index, logger: log}
}

func (ix *Indexer) Index(ctx context.Context, signal models.Signal) {
	body, err := json.Marshal(signal)
	if err != nil {
		ix.logger.WithError(err).Warn("failed to marshal signal for indexing", nil)
		return
	}

	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: signal.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		ix.logger.WithError(err).Warn("signal indexing failed", map[string]interface{}{
			"signal_id": signal.ID,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		ix.logger.Warn("signal indexing rejected", map[string]interface{}{
			"signal_id": signal.ID,
			"status":    res.Status(),
		})
	}
}

// Search runs a full-text match over stored strategy text.
func (ix *Indexer) Search(ctx context.Context, query string, limit int) ([]models.Signal, error) {
	if limit <= 0 {
		limit = 20
	}

	var buf bytes.Buffer
	searchBody := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"strategy": query,
			},
		},
		"sort": []map[string]interface{}{
			{"createdAt": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
	}
	if err := json.NewEncoder(&buf).Encode(searchBody); err != nil {
		return nil, apperrors.NewSignalQueryFailedError(err)
	}

	res, err := ix.client.Search(
		ix.client.Search.WithContext(ctx),
		ix.client.Search.WithIndex(ix.index),
		ix.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, apperrors.NewSignalQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSignalQueryFailedError(fmt.Errorf("elasticsearch search error: %s", res.Status()))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apperrors.NewSignalQueryFailedError(err)
	}

	signals := make([]models.Signal, 0, limit)
	for _, hit := range gjson.GetBytes(raw, "hits.hits.#._source").Array() {
		signals = append(signals, models.Signal{
			ID:        hit.Get("id").String(),
			Strategy:  hit.Get("strategy").String(),
			CreatedAt: hit.Get("createdAt").String(),
		})
	}
	return signals, nil
}
