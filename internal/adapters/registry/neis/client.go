package neis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
)

const (
	DefaultBaseURL   = "https://open.neis.go.kr/hub"
	DefaultUserAgent = "cmass-neis-lookup/1.0"

	schoolInfoPath   = "schoolInfo"
	maxResponseBytes = 4 << 20
)

// Client queries the NEIS open API schoolInfo endpoint. Only the first
// returned row is used.
type Client struct {
	BaseURL        string
	Key            string
	OfficeCode     string
	UserAgent      string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.SchoolRegistry = Client{}

func (c Client) Lookup(ctx context.Context, name string) (domain.SchoolRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.SchoolRecord{}, domain.ErrRegistryMiss
	}
	if c.Key == "" {
		return domain.SchoolRecord{}, domain.ErrLookupDisabled
	}

	endpoint, err := c.endpoint(name)
	if err != nil {
		return domain.SchoolRecord{}, err
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.SchoolRecord{}, fmt.Errorf("create school info request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.SchoolRecord{}, fmt.Errorf("request school info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.SchoolRecord{}, fmt.Errorf("request school info: status %d", resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&doc); err != nil {
		return domain.SchoolRecord{}, fmt.Errorf("decode school info response: %w", err)
	}

	rows := Rows(doc)
	if len(rows) == 0 {
		return domain.SchoolRecord{}, fmt.Errorf("school info %q: %w", name, domain.ErrRegistryMiss)
	}

	record := Record(rows[0], c.OfficeCode)
	if record.Name == "" {
		return domain.SchoolRecord{}, fmt.Errorf("school info %q has no name: %w", name, domain.ErrRegistryMiss)
	}

	return record, nil
}

func (c Client) endpoint(name string) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse registry base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("registry base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("registry base url host is required")
	}

	endpoint := parsed.JoinPath(schoolInfoPath)
	values := url.Values{}
	values.Set("KEY", c.Key)
	values.Set("type", "json")
	values.Set("pIndex", "1")
	values.Set("pSize", "10")
	values.Set("ATPT_OFCDC_SC_CODE", c.OfficeCode)
	values.Set("SCHUL_NM", name)
	endpoint.RawQuery = values.Encode()

	return endpoint.String(), nil
}

func (c Client) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return context.WithTimeout(ctx, timeout)
}
