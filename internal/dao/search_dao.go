package dao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"comments-service/internal/model"
)

// searchDAO 基于Elasticsearch的搜索数据访问实现
type searchDAO struct {
	client *elasticsearch.Client
}

// NewSearchDAO 创建搜索DAO
func NewSearchDAO(client *elasticsearch.Client) SearchDAO {
	return &searchDAO{client: client}
}

func (d *searchDAO) IndexExists(ctx context.Context, indexName string) (bool, error) {
	req := esapi.IndicesExistsRequest{Index: []string{indexName}}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return false, fmt.Errorf("check index exists: %w", err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

func (d *searchDAO) CreateIndex(ctx context.Context, indexName string, mapping map[string]interface{}) error {
	body, err := json.Marshal(map[string]interface{}{"mappings": mapping})
	if err != nil {
		return fmt.Errorf("marshal index mapping: %w", err)
	}

	req := esapi.IndicesCreateRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s failed: %s", indexName, res.String())
	}
	return nil
}

func (d *searchDAO) DeleteIndex(ctx context.Context, indexName string) error {
	req := esapi.IndicesDeleteRequest{
		Index:             []string{indexName},
		IgnoreUnavailable: esapi.BoolPtr(true),
	}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("delete index %s failed: %s", indexName, res.String())
	}
	return nil
}

// IndexDocument 写入单个文档，文档已存在时覆盖
//
// 文档ID取评论ID，同一条评论重复写入只会覆盖自身，
// 消息重复投递不会产生重复文档。
func (d *searchDAO) IndexDocument(ctx context.Context, indexName string, doc *model.CommentDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: strconv.FormatInt(doc.ID, 10),
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index document %d failed: %s", doc.ID, res.String())
	}
	return nil
}

// BulkIndexDocuments 批量写入文档
func (d *searchDAO) BulkIndexDocuments(ctx context.Context, indexName string, docs []*model.CommentDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		meta := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": indexName,
				"_id":    strconv.FormatInt(doc.ID, 10),
			},
		}
		metaLine, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal bulk meta: %w", err)
		}
		docLine, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal bulk document: %w", err)
		}
		buf.Write(metaLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	req := esapi.BulkRequest{Body: &buf}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk index failed: %s", res.String())
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if bulkRes.Errors {
		return fmt.Errorf("bulk index reported item errors")
	}
	return nil
}

// SearchComments 全文检索，返回命中的评论ID和总数
func (d *searchDAO) SearchComments(ctx context.Context, indexName, query string, page, pageSize int) ([]int64, int64, error) {
	searchBody := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"user_name", "email", "text"},
				"fuzziness": "AUTO",
			},
		},
		"from": (page - 1) * pageSize,
		"size": pageSize,
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return nil, 0, fmt.Errorf("search comments: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("search failed: %s", res.String())
	}

	var searchRes struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source model.CommentDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchRes); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]int64, 0, len(searchRes.Hits.Hits))
	for _, hit := range searchRes.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, searchRes.Hits.Total.Value, nil
}
