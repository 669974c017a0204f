// internal/clients/membership_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clubverse/internal/httpx"
	"clubverse/internal/membership"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api error %d (%s, field %s): %s", e.Status, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// MembershipClient talks to the /api/memberships endpoints.
type MembershipClient struct {
	baseURL string
	http    *http.Client
}

func NewMembershipClient(baseURL string, timeout time.Duration) *MembershipClient {
	return &MembershipClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		http:    &http.Client{Timeout: timeout},
	}
}

// PurchaseParams is the body of a membership purchase. StartDate is
// YYYY-MM-DD or RFC 3339; empty means now.
type PurchaseParams struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Type      string `json:"membershipType"`
	Period    string `json:"membershipPeriod"`
	StartDate string `json:"startDate,omitempty"`
}

func (c *MembershipClient) Quote(ctx context.Context, membershipType, period, start string) (*membership.Quote, error) {
	q := url.Values{}
	q.Set("type", membershipType)
	q.Set("period", period)
	if start != "" {
		q.Set("start", start)
	}

	var quote membership.Quote
	if err := c.do(ctx, http.MethodGet, "/memberships/quote?"+q.Encode(), nil, http.StatusOK, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (c *MembershipClient) Purchase(ctx context.Context, p PurchaseParams) (*membership.Record, error) {
	var rec membership.Record
	if err := c.do(ctx, http.MethodPost, "/memberships", p, http.StatusCreated, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *MembershipClient) Get(ctx context.Context, id string) (*membership.Record, error) {
	var rec membership.Record
	if err := c.do(ctx, http.MethodGet, "/memberships/"+url.PathEscape(id), nil, http.StatusOK, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *MembershipClient) History(ctx context.Context, id string) ([]membership.HistoryEntry, error) {
	var entries []membership.HistoryEntry
	if err := c.do(ctx, http.MethodGet, "/memberships/"+url.PathEscape(id)+"/history", nil, http.StatusOK, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *MembershipClient) do(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var eb httpx.ErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &APIError{Status: resp.StatusCode, Code: eb.Code, Message: eb.Error, Field: eb.Field}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
