/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const (
	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB
)

// TransportError reports a network failure or non-2xx response from the
// document store. The operation is aborted; retries are a caller policy.
type TransportError struct {
	Op         string
	Handle     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("document store %s %s: status %d", e.Op, e.Handle, e.StatusCode)
	}
	return fmt.Sprintf("document store %s %s: %v", e.Op, e.Handle, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Document is one whole-document read result. Version is the store's
// monotonically increasing revision stamp for the document.
type Document struct {
	Record  json.RawMessage
	Version int64
}

// envelope is the wire shape of every store response: the payload plus the
// revision metadata.
type envelope struct {
	Record   json.RawMessage `json:"record"`
	Metadata struct {
		Version int64 `json:"version"`
	} `json:"metadata"`
}

// Client issues GET/PUT against the hosted JSON document store. It performs
// no schema validation; callers are responsible for shape. The interface
// deliberately hides the transport so a different document database can be
// swapped in behind the repository layer.
type Client struct {
	baseURL    string
	masterKey  string
	accessKey  string
	httpClient http.Client
}

// NewClient validates the configuration and builds the HTTP client.
func NewClient(cfg models.DocStoreConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("document store base URL cannot be empty")
	}
	if cfg.MasterKey == "" {
		return nil, fmt.Errorf("document store master key cannot be empty")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %v", cfg.RequestTimeout)
	}

	httpClient, err := createCustomHTTPClient(cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		masterKey:  cfg.MasterKey,
		accessKey:  cfg.AccessKey,
		httpClient: httpClient,
	}, nil
}

func createCustomHTTPClient(timeout time.Duration) (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// Get fetches the latest revision of the document behind handle.
func (c *Client) Get(ctx context.Context, handle string) (*Document, error) {
	body, err := c.request(ctx, http.MethodGet, handle, "/latest", nil)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &store.SchemaError{Handle: handle, Err: err}
	}

	return &Document{Record: env.Record, Version: env.Metadata.Version}, nil
}

// Put replaces the whole document behind handle. When expectedVersion is
// non-negative the latest revision is re-read first and a mismatch surfaces
// store.ErrConflict instead of silently overwriting a concurrent write. The
// check is best effort: the store offers no conditional PUT, so a writer
// racing between the check and the write can still win.
func (c *Client) Put(ctx context.Context, handle string, record interface{}, expectedVersion int64) (*Document, error) {
	if expectedVersion >= 0 {
		latest, err := c.Get(ctx, handle)
		if err != nil {
			return nil, err
		}
		if latest.Version != expectedVersion {
			zap.L().Warn("Stale document write rejected",
				zap.String("handle", handle),
				zap.Int64("expected_version", expectedVersion),
				zap.Int64("latest_version", latest.Version))
			return nil, fmt.Errorf("document %s moved from version %d to %d: %w",
				handle, expectedVersion, latest.Version, store.ErrConflict)
		}
	}

	body, err := c.request(ctx, http.MethodPut, handle, "", record)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &store.SchemaError{Handle: handle, Err: err}
	}

	return &Document{Record: env.Record, Version: env.Metadata.Version}, nil
}

// request makes one HTTP round trip to the store.
func (c *Client) request(ctx context.Context, method, handle, suffix string, body interface{}) ([]byte, error) {
	url := fmt.Sprintf("%s/b/%s%s", c.baseURL, handle, suffix)

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", c.masterKey)
	if c.accessKey != "" {
		req.Header.Set("X-Access-Key", c.accessKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method, Handle: handle, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &TransportError{
			Op:         method,
			Handle:     handle,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(errBody))),
		}
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: method, Handle: handle, Err: fmt.Errorf("read response: %w", err)}
	}

	return respBody, nil
}
