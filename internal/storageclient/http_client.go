package storageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dreamware/vecdb/internal/vdberrors"
	"github.com/dreamware/vecdb/internal/vectortypes"
	"github.com/dreamware/vecdb/internal/wire"
)

// defaultHTTPClient is shared by every HTTPClient instance, the same
// pooled-connection pattern used for health probes.
var defaultHTTPClient = &http.Client{Timeout: 5 * time.Second}

// HTTPClient is the production StorageClient: HTTP+JSON for vector and
// database operations, the binary wire codec for search responses.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a client targeting baseURL (the shard's address,
// e.g. "http://shard-1:9090"). A nil httpClient uses the shared pooled
// default.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: httpClient}
}

func (c *HTTPClient) url(format string, args ...any) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, url string, body, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// PutVector implements StorageClient.
func (c *HTTPClient) PutVector(ctx context.Context, databaseID string, entry vectortypes.VectorEntry) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	resp, err := c.doJSON(ctx, http.MethodPut, c.url("/api/v1/storage/vectors/%s", databaseID), entry, &out)
	if err != nil {
		return 0, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusCreated {
		return 0, vdberrors.UpstreamFailureError{Err: fmt.Errorf("put vector: status %d", resp.StatusCode)}
	}
	return out.ID, nil
}

// GetVector implements StorageClient.
func (c *HTTPClient) GetVector(ctx context.Context, databaseID string, id int64) (vectortypes.VectorEntry, bool, error) {
	var entry vectortypes.VectorEntry
	resp, err := c.doJSON(ctx, http.MethodGet, c.url("/api/v1/storage/vectors/%s/%d", databaseID, id), nil, &entry)
	if err != nil {
		return vectortypes.VectorEntry{}, false, err
	}
	defer drain(resp)
	if resp.StatusCode == http.StatusNotFound {
		return vectortypes.VectorEntry{}, false, nil
	}
	if resp.StatusCode >= 300 {
		return vectortypes.VectorEntry{}, false, vdberrors.UpstreamFailureError{Err: fmt.Errorf("get vector: status %d", resp.StatusCode)}
	}
	return entry, true, nil
}

// DeleteVector implements StorageClient.
func (c *HTTPClient) DeleteVector(ctx context.Context, databaseID string, id int64) (bool, error) {
	resp, err := c.doJSON(ctx, http.MethodDelete, c.url("/api/v1/storage/vectors/%s/%d", databaseID, id), nil, nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)
	switch resp.StatusCode {
	case http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, vdberrors.UpstreamFailureError{Err: fmt.Errorf("delete vector: status %d", resp.StatusCode)}
	}
}

// Search implements StorageClient. The response body is the binary wire
// format, not JSON.
func (c *HTTPClient) Search(ctx context.Context, query SearchQuery) ([]vectortypes.SearchResult, error) {
	data, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/v1/storage/search"), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, vdberrors.UpstreamFailureError{Err: fmt.Errorf("search: status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return wire.DecodeSearchResults(body)
}

// CreateDatabase implements StorageClient.
func (c *HTTPClient) CreateDatabase(ctx context.Context, id, name string, dimension int) (vectortypes.DatabaseInfo, error) {
	req := struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Dimension int    `json:"dimension"`
	}{ID: id, Name: name, Dimension: dimension}

	var info vectortypes.DatabaseInfo
	resp, err := c.doJSON(ctx, http.MethodPost, c.url("/api/v1/storage/databases"), req, &info)
	if err != nil {
		return vectortypes.DatabaseInfo{}, err
	}
	defer drain(resp)
	if resp.StatusCode >= 300 {
		return vectortypes.DatabaseInfo{}, vdberrors.UpstreamFailureError{Err: fmt.Errorf("create database: status %d", resp.StatusCode)}
	}
	return info, nil
}

// DeleteDatabase implements StorageClient.
func (c *HTTPClient) DeleteDatabase(ctx context.Context, databaseID string) (bool, error) {
	resp, err := c.doJSON(ctx, http.MethodDelete, c.url("/api/v1/storage/databases/%s", databaseID), nil, nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)
	switch resp.StatusCode {
	case http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, vdberrors.UpstreamFailureError{Err: fmt.Errorf("delete database: status %d", resp.StatusCode)}
	}
}

// RebuildDatabase implements StorageClient.
func (c *HTTPClient) RebuildDatabase(ctx context.Context, databaseID string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, c.url("/api/v1/storage/databases/%s/rebuild", databaseID), nil, nil)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode >= 300 {
		return vdberrors.UpstreamFailureError{Err: fmt.Errorf("rebuild database: status %d", resp.StatusCode)}
	}
	return nil
}

// Health implements StorageClient.
func (c *HTTPClient) Health(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodGet, c.url("/api/v1/storage/health"), nil, nil)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return vdberrors.ShardUnavailableError{}
	}
	return nil
}

// ScanRange implements StorageClient.
func (c *HTTPClient) ScanRange(ctx context.Context, databaseID string, fromID, toID int64, limit int) ([]vectortypes.VectorEntry, error) {
	q := url.Values{}
	q.Set("db", databaseID)
	q.Set("from", strconv.FormatInt(fromID, 10))
	q.Set("to", strconv.FormatInt(toID, 10))
	q.Set("limit", strconv.Itoa(limit))

	var entries []vectortypes.VectorEntry
	resp, err := c.doJSON(ctx, http.MethodGet, c.url("/api/v1/storage/scanRange?%s", q.Encode()), nil, &entries)
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if resp.StatusCode >= 300 {
		return nil, vdberrors.UpstreamFailureError{Err: fmt.Errorf("scanRange: status %d", resp.StatusCode)}
	}
	return entries, nil
}

// PutVectorReplica implements StorageClient.
func (c *HTTPClient) PutVectorReplica(ctx context.Context, databaseID string, entry vectortypes.VectorEntry, sourceShardID string) error {
	req := struct {
		Entry         vectortypes.VectorEntry `json:"entry"`
		SourceShardID string                  `json:"sourceShardId"`
	}{Entry: entry, SourceShardID: sourceShardID}

	resp, err := c.doJSON(ctx, http.MethodPut, c.url("/api/v1/storage/vectors/%s/replicas", databaseID), req, nil)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusCreated {
		return vdberrors.UpstreamFailureError{Err: fmt.Errorf("put replica: status %d", resp.StatusCode)}
	}
	return nil
}

// GetVectorReplica implements StorageClient.
func (c *HTTPClient) GetVectorReplica(ctx context.Context, databaseID string, id int64, sourceShardID string) (vectortypes.VectorEntry, bool, error) {
	q := url.Values{}
	q.Set("sourceShardId", sourceShardID)

	var entry vectortypes.VectorEntry
	resp, err := c.doJSON(ctx, http.MethodGet, c.url("/api/v1/storage/vectors/%s/replicas/%d?%s", databaseID, id, q.Encode()), nil, &entry)
	if err != nil {
		return vectortypes.VectorEntry{}, false, err
	}
	defer drain(resp)
	if resp.StatusCode == http.StatusNotFound {
		return vectortypes.VectorEntry{}, false, nil
	}
	if resp.StatusCode >= 300 {
		return vectortypes.VectorEntry{}, false, vdberrors.UpstreamFailureError{Err: fmt.Errorf("get replica: status %d", resp.StatusCode)}
	}
	return entry, true, nil
}

// DeleteVectorReplica implements StorageClient.
func (c *HTTPClient) DeleteVectorReplica(ctx context.Context, databaseID string, id int64, sourceShardID string) error {
	q := url.Values{}
	q.Set("sourceShardId", sourceShardID)

	resp, err := c.doJSON(ctx, http.MethodDelete, c.url("/api/v1/storage/vectors/%s/replicas/%d?%s", databaseID, id, q.Encode()), nil, nil)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return vdberrors.UpstreamFailureError{Err: fmt.Errorf("delete replica: status %d", resp.StatusCode)}
	}
	return nil
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
