package openbis

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// apiPath is the application-server RPC endpoint.
	apiPath = "/openbis/openbis/rmi-application-server-v3.json"
	// storePath is the data-store server prefix for byte transfer.
	storePath = "/datastore_server"
)

// RPC error codes returned by the application server.
const (
	rpcCodeAuth     = -32001
	rpcCodeNotFound = -32002
)

type rpcRequest struct {
	ID      string `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Kind string `json:"kind,omitempty"`
		ID   string `json:"id,omitempty"`
	} `json:"data,omitempty"`
}

// Client talks to the catalog over HTTP. It is safe for concurrent use; the
// session token is the only mutable state.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *zap.Logger

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each HTTP request. The zero default is 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpc.Timeout = d
		}
	}
}

// WithToken seeds the client with a previously saved session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger routes debug logging for every RPC and transfer call.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithInsecureTLS disables certificate verification, matching catalog
// installations that run on self-signed certificates.
func WithInsecureTLS() Option {
	return func(c *Client) {
		c.httpc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// NewClient creates a catalog client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: trimSlash(baseURL),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// Token returns the current session token, or "" before login.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// call performs one RPC round trip and decodes the result into out when out
// is non-nil.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{ID: "1", JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPath, bytes.NewReader(body))
	if err != nil {
		return &ConnectionError{Op: method, URL: c.baseURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &ConnectionError{Op: method, URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("rpc call",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{Op: method}
	case resp.StatusCode != http.StatusOK:
		return &ConnectionError{Op: method, URL: c.baseURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return &ConnectionError{Op: method, URL: c.baseURL, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if rr.Error != nil {
		return c.mapRPCError(method, rr.Error)
	}
	if out != nil && len(rr.Result) > 0 {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return &ConnectionError{Op: method, URL: c.baseURL, Err: fmt.Errorf("decoding result: %w", err)}
		}
	}
	return nil
}

func (c *Client) mapRPCError(method string, re *rpcError) error {
	switch re.Code {
	case rpcCodeAuth:
		return &AuthError{Op: method}
	case rpcCodeNotFound:
		kind := re.Data.Kind
		if kind == "" {
			kind = "object"
		}
		return &NotFoundError{Kind: kind, ID: re.Data.ID}
	default:
		return &ConnectionError{Op: method, URL: c.baseURL, Err: fmt.Errorf("server error %d: %s", re.Code, re.Message)}
	}
}

// Login authenticates and stores the returned session token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var token string
	if err := c.call(ctx, "login", []any{username, password}, &token); err != nil {
		return "", err
	}
	if token == "" {
		return "", &AuthError{Op: "login"}
	}
	c.setToken(token)
	return token, nil
}

// SessionActive reports whether the stored session token is still accepted
// by the server. Transport failures count as inactive.
func (c *Client) SessionActive(ctx context.Context) bool {
	token := c.Token()
	if token == "" {
		return false
	}
	var active bool
	if err := c.call(ctx, "isSessionActive", []any{token}, &active); err != nil {
		return false
	}
	return active
}

// ListSpaces returns the catalog's top-level spaces.
func (c *Client) ListSpaces(ctx context.Context) ([]Space, error) {
	var spaces []Space
	if err := c.call(ctx, "listSpaces", []any{c.Token()}, &spaces); err != nil {
		return nil, err
	}
	return spaces, nil
}

type searchQuery struct {
	Type       EntryType `json:"type"`
	Property   string    `json:"property,omitempty"`
	Value      string    `json:"value,omitempty"`
	Collection string    `json:"collection,omitempty"`
	Limit      int       `json:"limit,omitempty"`
	Offset     int       `json:"offset,omitempty"`
}

// SearchByProperty implements Gateway.
func (c *Client) SearchByProperty(ctx context.Context, typ EntryType, property, value string, f Filters) ([]CatalogEntry, error) {
	q := searchQuery{
		Type:       typ,
		Property:   property,
		Value:      value,
		Collection: f.Collection,
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
	var entries []CatalogEntry
	if err := c.call(ctx, "searchEntries", []any{c.Token(), q}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetEntry fetches one catalog object with its full property set.
func (c *Client) GetEntry(ctx context.Context, typ EntryType, id string) (CatalogEntry, error) {
	var entry CatalogEntry
	if err := c.call(ctx, "getEntry", []any{c.Token(), string(typ), id}, &entry); err != nil {
		return CatalogEntry{}, err
	}
	return entry, nil
}

// GetChildren implements Gateway.
func (c *Client) GetChildren(ctx context.Context, datasetID string) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := c.call(ctx, "getChildren", []any{c.Token(), datasetID}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetParents implements Gateway.
func (c *Client) GetParents(ctx context.Context, datasetID string) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := c.call(ctx, "getParents", []any{c.Token(), datasetID}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LinkParents implements Gateway. Each parent is written with its own RPC so
// a failure is attributable to one id; the remaining parents are not
// attempted.
func (c *Client) LinkParents(ctx context.Context, datasetID string, parentIDs []string) error {
	for _, pid := range parentIDs {
		if err := c.call(ctx, "linkParent", []any{c.Token(), datasetID, pid}, nil); err != nil {
			return &LinkError{DatasetID: datasetID, ParentID: pid, Err: err}
		}
	}
	return nil
}

// ListFiles returns the file inventory of a dataset.
func (c *Client) ListFiles(ctx context.Context, datasetID string) ([]DataSetFile, error) {
	var files []DataSetFile
	if err := c.call(ctx, "listFiles", []any{c.Token(), datasetID}, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// DownloadFile streams one dataset file into w and returns the byte count.
func (c *Client) DownloadFile(ctx context.Context, datasetID, path string, w io.Writer) (int64, error) {
	q := url.Values{}
	q.Set("dataset", datasetID)
	q.Set("path", path)
	q.Set("sessionID", c.Token())
	endpoint := c.baseURL + storePath + "/download?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, &ConnectionError{Op: "download", URL: c.baseURL, Err: err}
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, &ConnectionError{Op: "download", URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return 0, &AuthError{Op: "download"}
	case http.StatusNotFound:
		return 0, &NotFoundError{Kind: "file", ID: datasetID + ":" + path}
	default:
		return 0, &ConnectionError{Op: "download", URL: c.baseURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	n, err := io.Copy(w, resp.Body)
	c.log.Debug("file download",
		zap.String("dataset", datasetID),
		zap.String("path", path),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		return n, &ConnectionError{Op: "download", URL: c.baseURL, Err: err}
	}
	return n, nil
}

// UploadDataSet transfers the request's files to the data store under one
// upload session and then registers the dataset, returning the new dataset
// id. The registration is a single write; a transfer failure leaves no
// dataset behind.
func (c *Client) UploadDataSet(ctx context.Context, req UploadRequest) (string, error) {
	uploadID := uuid.NewString()
	for _, path := range req.Files {
		if err := c.uploadFile(ctx, uploadID, path); err != nil {
			return "", err
		}
	}

	registration := map[string]any{
		"type":       req.Type,
		"collection": req.Collection,
		"properties": req.Properties,
		"uploadID":   uploadID,
	}
	var datasetID string
	if err := c.call(ctx, "createDataSet", []any{c.Token(), registration}, &datasetID); err != nil {
		return "", err
	}
	return datasetID, nil
}

func (c *Client) uploadFile(ctx context.Context, uploadID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s for upload: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	q := url.Values{}
	q.Set("uploadID", uploadID)
	q.Set("filename", filepath.Base(path))
	q.Set("sessionID", c.Token())
	endpoint := c.baseURL + storePath + "/store_share_file_upload?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, f)
	if err != nil {
		return &ConnectionError{Op: "upload", URL: c.baseURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	req.ContentLength = info.Size()

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &ConnectionError{Op: "upload", URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	c.log.Debug("file upload",
		zap.String("file", filepath.Base(path)),
		zap.Int64("bytes", info.Size()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return &AuthError{Op: "upload"}
	default:
		return &ConnectionError{Op: "upload", URL: c.baseURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
}
