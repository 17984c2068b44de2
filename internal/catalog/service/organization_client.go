package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	"github.com/prasetyow/product-catalog-service/internal/platform/logger"
)

// OrganizationClient is the narrow lookup contract against the organization
// registry. "Organization not found" is a business outcome
// (domain.ErrOrganizationNotFound); every other failure is an infrastructure
// fault and is returned as a wrapped error, never as a business sentinel.
type OrganizationClient interface {
	GetOrganization(ctx context.Context, id int64) (*domain.Organization, error)
}

type httpOrganizationClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewHTTPOrganizationClient(baseURL string) OrganizationClient {
	return &httpOrganizationClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *httpOrganizationClient) GetOrganization(ctx context.Context, id int64) (*domain.Organization, error) {
	reqURL := fmt.Sprintf("%s/api/v1/organizations/%d", c.BaseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		logger.Error("OrganizationClient.GetOrganization: NewRequest failed", err)
		return nil, fmt.Errorf("failed to create request to organization service: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Error("OrganizationClient.GetOrganization: HTTPClient.Do failed", err)
		return nil, fmt.Errorf("failed to call organization service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrOrganizationNotFound
	}
	if resp.StatusCode != http.StatusOK {
		logger.Error(fmt.Sprintf("OrganizationClient.GetOrganization: organization service returned status %d for organization %d", resp.StatusCode, id), nil)
		return nil, fmt.Errorf("organization service returned status: %d", resp.StatusCode)
	}

	var org domain.Organization
	if err := json.NewDecoder(resp.Body).Decode(&org); err != nil {
		logger.Error("OrganizationClient.GetOrganization: JSON decode failed", err)
		return nil, fmt.Errorf("failed to decode response from organization service: %w", err)
	}
	return &org, nil
}
