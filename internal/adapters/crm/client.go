// Package crm talks to the external case-management system.
//
// The upstream API returns the pending reservations for one situation
// (category) at a time. Payloads are loosely shaped: depending on the
// endpoint version the body is either a JSON array or a JSON object keyed
// by row index, and the reservation id may live in "idreserva" or "id".
// Everything is parsed defensively at this boundary; records failing
// shape validation are dropped, never fatal.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/fila/internal/domain/category"
)

// Default client configuration constants.
const (
	defaultTimeout = 15 * time.Second
)

// PendingCase is one reservation waiting for distribution.
type PendingCase struct {
	ID      string
	Client  string
	Project string
	Unit    string
}

// Source lists the pending work upstream. The dispatcher and the
// refresher depend on this interface rather than the concrete client.
type Source interface {
	// ListPending returns the pending cases for one category.
	ListPending(ctx context.Context, cat category.ID) ([]PendingCase, error)

	// PendingTotal returns the best-effort count of pending cases across
	// all categories. Failing categories contribute zero.
	PendingTotal(ctx context.Context) int
}

// Client implements Source against the HTTP API.
type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
}

// New creates a CRM client for the given base URL and credentials.
func New(baseURL, email, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		email:   email,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPending returns the pending cases for one category.
func (c *Client) ListPending(ctx context.Context, cat category.ID) ([]PendingCase, error) {
	url := fmt.Sprintf("%s/api/v1/comercial/reservas?situacao=%d", c.baseURL, int(cat))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("email", c.email)
	req.Header.Set("token", c.token)
	req.Header.Set("accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parsePending(body)
}

// PendingTotal returns the best-effort pending count across all categories.
func (c *Client) PendingTotal(ctx context.Context) int {
	total := 0
	for _, cat := range category.IDs() {
		cases, err := c.ListPending(ctx, cat)
		if err != nil {
			continue
		}
		total += len(cases)
	}
	return total
}

// rawCase mirrors the fields we read off a reservation record.
type rawCase struct {
	IDReserva json.Number `json:"idreserva"`
	ID        json.Number `json:"id"`
	Titular   struct {
		Nome string `json:"nome"`
	} `json:"titular"`
	Unidade struct {
		Empreendimento string `json:"empreendimento"`
		Unidade        string `json:"unidade"`
	} `json:"unidade"`
}

// parsePending accepts both payload shapes: a JSON array of records or a
// JSON object keyed by row index.
func parsePending(body []byte) ([]PendingCase, error) {
	var arr []rawCase
	if err := json.Unmarshal(body, &arr); err == nil {
		return convertPending(arr, nil), nil
	}

	var obj map[string]rawCase
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	keys := make([]string, 0, len(obj))
	vals := make([]rawCase, 0, len(obj))
	for k, v := range obj {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	return convertPending(vals, keys), nil
}

// convertPending validates raw records into PendingCases. A record with
// no usable id is dropped; when the payload was object-shaped the map key
// serves as the id of last resort.
func convertPending(raws []rawCase, keys []string) []PendingCase {
	var out []PendingCase
	for i, raw := range raws {
		id := raw.IDReserva.String()
		if id == "" || id == "0" {
			id = raw.ID.String()
		}
		if (id == "" || id == "0") && keys != nil {
			id = keys[i]
		}
		if id == "" || id == "0" {
			continue
		}

		pc := PendingCase{
			ID:      id,
			Client:  raw.Titular.Nome,
			Project: raw.Unidade.Empreendimento,
			Unit:    raw.Unidade.Unidade,
		}
		if pc.Client == "" {
			pc.Client = "Desconhecido"
		}
		if pc.Project == "" {
			pc.Project = "N/A"
		}
		if pc.Unit == "" {
			pc.Unit = "N/A"
		}
		out = append(out, pc)
	}
	return out
}
