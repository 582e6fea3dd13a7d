// Package multibaas is a small REST client for the MultiBaas deployment API:
// contract uploads, address labels, and the label→contract links the
// frontend resolves addresses through.
package multibaas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// APIPrefix is the versioned API root under a deployment URL.
	APIPrefix = "/api/v0"
	// AddressesPath is the address-label collection for the Ethereum chain.
	AddressesPath = APIPrefix + "/chains/ethereum/addresses"
	// DefaultAddressesURL is the base URL the frontend's HTTP client uses
	// against a local MultiBaas.
	DefaultAddressesURL = "http://localhost:8080" + AddressesPath
	// PlaceholderAPIKey ships in config templates and is never a real key.
	PlaceholderAPIKey = "REPLACE_WITH_MULTIBAAS_API_KEY"
)

// APIError is a non-2xx response from MultiBaas.
type APIError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("multibaas %s: %d %s", e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a MultiBaas 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// envelope wraps every MultiBaas response body.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Client talks to one MultiBaas deployment. Every request carries the API
// key as a bearer token.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient returns a client for the deployment at baseURL (scheme and host,
// e.g. https://abc.multibaas.com). The API key is attached by an oauth2
// transport; any *http.Client stored in ctx under oauth2.HTTPClient is used
// as the underlying transport.
func NewClient(ctx context.Context, baseURL, apiKey string, logger *zap.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    oauth2.NewClient(ctx, src),
		log:     logger,
	}
}

// AddressInfo is an address label record.
type AddressInfo struct {
	Label     string         `json:"label"`
	Address   string         `json:"address"`
	Contracts []ContractInfo `json:"contracts,omitempty"`
}

// ContractInfo identifies an uploaded contract.
type ContractInfo struct {
	Label        string `json:"label"`
	ContractName string `json:"contractName,omitempty"`
	Version      string `json:"version"`
}

// ContractUpload is the body for uploading a compiled contract.
type ContractUpload struct {
	Label        string          `json:"label"`
	ContractName string          `json:"contractName"`
	Version      string          `json:"version"`
	Bin          string          `json:"bin"`
	RawABI       json.RawMessage `json:"rawAbi"`
}

// GetAddress looks up an address label.
func (c *Client) GetAddress(ctx context.Context, label string) (AddressInfo, error) {
	var out AddressInfo
	err := c.do(ctx, http.MethodGet, AddressesPath+"/"+url.PathEscape(label), nil, &out)
	return out, err
}

// CreateAddress points a new label at address.
func (c *Client) CreateAddress(ctx context.Context, label, address string) error {
	body := AddressInfo{Label: label, Address: address}
	return c.do(ctx, http.MethodPost, AddressesPath, body, nil)
}

// DeleteAddress removes a label. The on-chain contract is untouched.
func (c *Client) DeleteAddress(ctx context.Context, label string) error {
	return c.do(ctx, http.MethodDelete, AddressesPath+"/"+url.PathEscape(label), nil, nil)
}

// GetContract looks up an uploaded contract by label and version.
func (c *Client) GetContract(ctx context.Context, label, version string) (ContractInfo, error) {
	var out ContractInfo
	path := APIPrefix + "/contracts/" + url.PathEscape(label) + "/" + url.PathEscape(version)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// UploadContract stores a compiled contract under its label and version.
func (c *Client) UploadContract(ctx context.Context, up ContractUpload) error {
	return c.do(ctx, http.MethodPost, APIPrefix+"/contracts/"+url.PathEscape(up.Label), up, nil)
}

// LinkContract associates an address label with an uploaded contract so
// MultiBaas can decode calls and events at that address.
func (c *Client) LinkContract(ctx context.Context, addressLabel, contractLabel, version string) error {
	body := ContractInfo{Label: contractLabel, Version: version}
	path := AddressesPath + "/" + url.PathEscape(addressLabel) + "/contracts"
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("multibaas %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError(resp, path)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		return fmt.Errorf("multibaas %s %s: decode response: %w", method, path, err)
	}

	c.log.Debug("multibaas request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("multibaas %s %s: decode result: %w", method, path, err)
		}
	}
	return nil
}

// apiError builds an APIError from a non-2xx response. The body may be a
// MultiBaas envelope or whatever a proxy in front of it returned.
func apiError(resp *http.Response, path string) *APIError {
	msg := http.StatusText(resp.StatusCode)
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var env envelope
	if json.Unmarshal(data, &env) == nil && env.Message != "" {
		msg = env.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg, Path: path}
}
