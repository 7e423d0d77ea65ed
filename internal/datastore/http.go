/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datastore

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClientConfig holds the connection configuration for one datastore
// cluster.
type HTTPClientConfig struct {
	ClusterName string
	BaseURL     string
	Username    string
	Password    string
	CACert      []byte
	Insecure    bool
	Timeout     time.Duration
}

// HTTPClient implements Client over the datastore's HTTP API.
type HTTPClient struct {
	clusterName string
	baseURL     string
	username    string
	password    string
	httpClient  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a datastore client for one cluster.
func NewHTTPClient(config HTTPClientConfig) (*HTTPClient, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: config.Insecure,
	}

	if len(config.CACert) > 0 {
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(config.CACert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		clusterName: config.ClusterName,
		baseURL:     strings.TrimSuffix(config.BaseURL, "/"),
		username:    config.Username,
		password:    config.Password,
		httpClient: &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
			Timeout:   timeout,
		},
	}, nil
}

// ClusterName returns the configured cluster name.
func (c *HTTPClient) ClusterName() string {
	return c.clusterName
}

func (c *HTTPClient) request(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

// checkResponse drains and classifies a non-2xx response. 4xx responses
// become BadRequestError so callers can distinguish datastore rejections
// (static setting change, bad mapping) from transport failures.
func checkResponse(resp *http.Response, operation string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &BadRequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return fmt.Errorf("%s failed with status %d: %s", operation, resp.StatusCode, string(body))
}

// GetIndex returns the mappings and settings of a concrete index, or nil
// if it does not exist.
func (c *HTTPClient) GetIndex(ctx context.Context, name string) (*IndexState, error) {
	resp, err := c.request(ctx, http.MethodGet, "/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	if err := checkResponse(resp, "get index"); err != nil {
		return nil, err
	}

	// The datastore wraps the payload in the index name.
	var result map[string]struct {
		Mappings map[string]interface{} `json:"mappings"`
		Settings map[string]interface{} `json:"settings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode index response: %w", err)
	}

	for _, entry := range result {
		return &IndexState{Mappings: entry.Mappings, Settings: entry.Settings}, nil
	}
	return nil, nil
}

// GetIndexTemplate returns the mappings and settings of an index
// template, or nil if it does not exist.
func (c *HTTPClient) GetIndexTemplate(ctx context.Context, name string) (*IndexState, error) {
	resp, err := c.request(ctx, http.MethodGet, "/_index_template/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get index template: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	if err := checkResponse(resp, "get index template"); err != nil {
		return nil, err
	}

	var result struct {
		IndexTemplates []struct {
			Name          string `json:"name"`
			IndexTemplate struct {
				Template struct {
					Mappings map[string]interface{} `json:"mappings"`
					Settings map[string]interface{} `json:"settings"`
				} `json:"template"`
			} `json:"index_template"`
		} `json:"index_templates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode index template response: %w", err)
	}

	if len(result.IndexTemplates) == 0 {
		return nil, nil
	}
	tmpl := result.IndexTemplates[0].IndexTemplate.Template
	return &IndexState{Mappings: tmpl.Mappings, Settings: tmpl.Settings}, nil
}

// CreateIndex creates a concrete index with full mappings and settings.
func (c *HTTPClient) CreateIndex(ctx context.Context, index string, body map[string]interface{}) error {
	resp, err := c.request(ctx, http.MethodPut, "/"+url.PathEscape(index), body)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer resp.Body.Close()

	return checkResponse(resp, "create index")
}

// PutIndexTemplate creates or replaces an index template.
func (c *HTTPClient) PutIndexTemplate(ctx context.Context, name string, body map[string]interface{}) error {
	resp, err := c.request(ctx, http.MethodPut, "/_index_template/"+url.PathEscape(name), body)
	if err != nil {
		return fmt.Errorf("failed to put index template: %w", err)
	}
	defer resp.Body.Close()

	return checkResponse(resp, "put index template")
}

// PutIndexMapping updates the mapping of an index.
func (c *HTTPClient) PutIndexMapping(ctx context.Context, index string, mapping map[string]interface{}) error {
	resp, err := c.request(ctx, http.MethodPut, "/"+url.PathEscape(index)+"/_mapping", mapping)
	if err != nil {
		return fmt.Errorf("failed to put index mapping: %w", err)
	}
	defer resp.Body.Close()

	return checkResponse(resp, "put index mapping")
}

// PutIndexSettings updates dynamic settings of an index.
func (c *HTTPClient) PutIndexSettings(ctx context.Context, index string, settings map[string]interface{}) error {
	resp, err := c.request(ctx, http.MethodPut, "/"+url.PathEscape(index)+"/_settings", settings)
	if err != nil {
		return fmt.Errorf("failed to put index settings: %w", err)
	}
	defer resp.Body.Close()

	return checkResponse(resp, "put index settings")
}

// DeleteIndices deletes the named indices, ignoring ones that are
// already gone.
func (c *HTTPClient) DeleteIndices(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	resp, err := c.request(ctx, http.MethodDelete, "/"+url.PathEscape(strings.Join(names, ","))+"?ignore_unavailable=true", nil)
	if err != nil {
		return fmt.Errorf("failed to delete indices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return checkResponse(resp, "delete indices")
}

// DeleteIndexTemplate deletes an index template, ignoring a missing one.
func (c *HTTPClient) DeleteIndexTemplate(ctx context.Context, name string) error {
	resp, err := c.request(ctx, http.MethodDelete, "/_index_template/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("failed to delete index template: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return checkResponse(resp, "delete index template")
}

// ListIndicesMatching returns concrete index names matching a wildcard
// expression. A pattern with no matches returns an empty list.
func (c *HTTPClient) ListIndicesMatching(ctx context.Context, expression string) ([]string, error) {
	path := "/_cat/indices/" + url.PathEscape(expression) + "?format=json&h=index"
	resp, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list indices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	if err := checkResponse(resp, "list indices"); err != nil {
		return nil, err
	}

	var rows []struct {
		Index string `json:"index"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode indices response: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Index)
	}
	return names, nil
}

// GetFlatClusterSettings returns the cluster settings with flat keys.
func (c *HTTPClient) GetFlatClusterSettings(ctx context.Context) (*ClusterSettings, error) {
	resp, err := c.request(ctx, http.MethodGet, "/_cluster/settings?flat_settings=true", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster settings: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, "get cluster settings"); err != nil {
		return nil, err
	}

	var settings ClusterSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode cluster settings response: %w", err)
	}
	return &settings, nil
}

// PutPersistentClusterSettings writes persistent cluster settings.
func (c *HTTPClient) PutPersistentClusterSettings(ctx context.Context, settings map[string]interface{}) error {
	body := map[string]interface{}{"persistent": settings}
	resp, err := c.request(ctx, http.MethodPut, "/_cluster/settings", body)
	if err != nil {
		return fmt.Errorf("failed to put cluster settings: %w", err)
	}
	defer resp.Body.Close()

	return checkResponse(resp, "put cluster settings")
}
