// Package ledgerhttp talks to a ledger gateway over JSON/HTTP. The gateway
// owns transaction signing and transport to the underlying chain; this
// client only submits records and waits for confirmation.
package ledgerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"notary/internal/domain"
)

type Client struct {
	baseURL      string
	pollInterval time.Duration
	httpDo       func(*http.Request) (*http.Response, error)
}

func NewClient(baseURL string, pollInterval time.Duration, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("ledger base url is required")
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	doer := http.DefaultClient.Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		pollInterval: pollInterval,
		httpDo:       doer,
	}, nil
}

type submitRequest struct {
	Fingerprint string          `json:"fingerprint"`
	Publisher   string          `json:"publisher"`
	Creator     string          `json:"creator"`
	Description string          `json:"description"`
	Location    domain.Location `json:"location"`
	Timestamp   time.Time       `json:"timestamp"`
}

type submitResponse struct {
	TxID string `json:"tx_id"`
}

type transactionStatus struct {
	Status          string `json:"status"`
	AssetID         string `json:"asset_id,omitempty"`
	LedgerReference string `json:"ledger_reference,omitempty"`
	Message         string `json:"message,omitempty"`
}

type recordResponse struct {
	AssetID         string          `json:"asset_id"`
	LedgerReference string          `json:"ledger_reference"`
	Fingerprint     string          `json:"fingerprint"`
	Publisher       string          `json:"publisher"`
	Creator         string          `json:"creator"`
	Description     string          `json:"description"`
	Location        domain.Location `json:"location"`
	Timestamp       time.Time       `json:"timestamp"`
}

const (
	statusPending   = "pending"
	statusConfirmed = "confirmed"
	statusRejected  = "rejected"
)

// Submit posts the record and polls the resulting transaction until the
// gateway reports it confirmed, rejected, or ctx expires.
func (c *Client) Submit(ctx context.Context, record domain.LedgerRecord) (domain.LedgerConfirmation, error) {
	body, err := json.Marshal(submitRequest{
		Fingerprint: record.Fingerprint,
		Publisher:   record.Publisher,
		Creator:     record.Creator,
		Description: record.Description,
		Location:    record.Location,
		Timestamp:   record.Timestamp,
	})
	if err != nil {
		return domain.LedgerConfirmation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/records", bytes.NewReader(body))
	if err != nil {
		return domain.LedgerConfirmation{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpDo(req)
	if err != nil {
		return domain.LedgerConfirmation{}, c.transportError(ctx, err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return domain.LedgerConfirmation{}, c.transportError(ctx, err)
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return domain.LedgerConfirmation{}, fmt.Errorf("%w: %s", domain.ErrLedgerRejected, strings.TrimSpace(string(respBody)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.LedgerConfirmation{}, fmt.Errorf("ledger submit: unexpected status %d", resp.StatusCode)
	}

	var submitted submitResponse
	if err := json.Unmarshal(respBody, &submitted); err != nil || submitted.TxID == "" {
		return domain.LedgerConfirmation{}, errors.New("ledger submit: missing tx_id")
	}

	return c.waitForConfirmation(ctx, submitted.TxID)
}

func (c *Client) waitForConfirmation(ctx context.Context, txID string) (domain.LedgerConfirmation, error) {
	for {
		status, err := c.transactionStatus(ctx, txID)
		if err != nil {
			return domain.LedgerConfirmation{}, err
		}
		switch status.Status {
		case statusConfirmed:
			reference := status.LedgerReference
			if reference == "" {
				reference = txID
			}
			if status.AssetID == "" {
				return domain.LedgerConfirmation{}, errors.New("ledger confirmation missing asset id")
			}
			return domain.LedgerConfirmation{AssetID: status.AssetID, LedgerReference: reference}, nil
		case statusRejected:
			return domain.LedgerConfirmation{}, fmt.Errorf("%w: %s", domain.ErrLedgerRejected, status.Message)
		}

		select {
		case <-ctx.Done():
			return domain.LedgerConfirmation{}, fmt.Errorf("%w: %v", domain.ErrLedgerTimeout, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) transactionStatus(ctx context.Context, txID string) (transactionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/transactions/"+txID, nil)
	if err != nil {
		return transactionStatus{}, err
	}
	resp, err := c.httpDo(req)
	if err != nil {
		return transactionStatus{}, c.transportError(ctx, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transactionStatus{}, c.transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return transactionStatus{}, fmt.Errorf("ledger status: unexpected status %d", resp.StatusCode)
	}
	var status transactionStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return transactionStatus{}, fmt.Errorf("ledger status: %w", err)
	}
	return status, nil
}

func (c *Client) Query(ctx context.Context, fingerprint string) (*domain.LedgerEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/records/"+fingerprint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpDo(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ledger query: unexpected status %d", resp.StatusCode)
	}
	var record recordResponse
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("ledger query: %w", err)
	}
	if record.Fingerprint != fingerprint {
		return nil, fmt.Errorf("%w: queried %s, ledger returned %s", domain.ErrLookupInconsistency, fingerprint, record.Fingerprint)
	}
	return &domain.LedgerEntry{
		AssetID:         record.AssetID,
		LedgerReference: record.LedgerReference,
		Record: domain.LedgerRecord{
			Fingerprint: record.Fingerprint,
			Publisher:   record.Publisher,
			Creator:     record.Creator,
			Description: record.Description,
			Location:    record.Location,
			Timestamp:   record.Timestamp,
		},
	}, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", domain.ErrLedgerTimeout, ctx.Err())
	}
	return fmt.Errorf("ledger transport: %w", err)
}

var _ domain.LedgerClient = (*Client)(nil)
