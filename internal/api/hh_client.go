package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache"
	"github.com/Klorm286/data-analyst-market-analysis-russia/common/telemetry"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/config"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("vacancylens/api")

type VacancySource interface {
	SearchPage(ctx context.Context, query string, page int) (*models.SearchPage, error)
}

type DetailFetcher interface {
	Vacancy(ctx context.Context, id string) (models.DetailRecord, error)
}

type VacancyClient interface {
	VacancySource
	DetailFetcher
}

type hhClient struct {
	client *http.Client
	logger *zap.Logger
	config *config.Config
	cache  cache.Cache

	mu    sync.Mutex
	token string
}

// NewVacancyClient builds an hh.ru client. A nil cache disables detail caching;
// empty credentials use the anonymous API.
func NewVacancyClient(logger *zap.Logger, config *config.Config, c cache.Cache) VacancyClient {
	return &hhClient{
		client: &http.Client{
			Timeout: config.HHAPITimeout,
		},
		logger: logger,
		config: config,
		cache:  c,
	}
}

func (c *hhClient) accessToken(ctx context.Context) (string, error) {
	if c.config.HHClientID == "" || c.config.HHClientSecret == "" {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	ctx, span := tracer.Start(ctx, "accessToken")
	defer span.End()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.config.HHClientID)
	form.Set("client_secret", c.config.HHClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.HHAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Internal("creating token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.config.HHUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", errors.Unavailable("executing token request", err)
	}
	defer c.closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("token request rejected", zap.Int("status_code", resp.StatusCode))
		return "", errors.Unauthorized(fmt.Sprintf("token request rejected: %d", resp.StatusCode), nil)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Internal("decoding token response", err)
	}
	if body.AccessToken == "" {
		return "", errors.Unauthorized("token response has no access_token", nil)
	}

	c.logger.Info("obtained access token")
	c.token = body.AccessToken
	return c.token, nil
}

func (c *hhClient) SearchPage(ctx context.Context, query string, page int) (*models.SearchPage, error) {
	ctx, span := tracer.Start(ctx, "SearchPage")
	defer span.End()
	span.SetAttributes(
		telemetry.String("search.query", query),
		telemetry.Int("search.page", page),
	)

	params := url.Values{}
	params.Set("text", query)
	params.Set("area", strconv.Itoa(c.config.HHArea))
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.config.HHPerPage))
	endpoint := fmt.Sprintf("%s/vacancies?%s", c.config.HHAPIBaseURL, params.Encode())

	var result models.SearchPage
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.logger.Debug("fetched search page",
		zap.Int("page", page),
		zap.Int("items", len(result.Items)),
		zap.Int("found", result.Found),
		zap.Int("pages", result.Pages))
	return &result, nil
}

func (c *hhClient) Vacancy(ctx context.Context, id string) (models.DetailRecord, error) {
	ctx, span := tracer.Start(ctx, "Vacancy")
	defer span.End()
	span.SetAttributes(telemetry.String("hh.vacancy.id", id))

	cacheKey := fmt.Sprintf("hh:vacancy:%s", id)
	if c.cache != nil {
		var cached models.DetailRecord
		err := c.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			span.SetAttributes(telemetry.String("cache.result", "hit"))
			c.logger.Debug("cache hit", zap.String("id", id))
			return cached, nil
		} else if err != cache.ErrNotFound {
			span.SetAttributes(telemetry.String("cache.result", "error"))
			span.RecordError(err)
			c.logger.Warn("cache error", zap.Error(err))
		} else {
			span.SetAttributes(telemetry.String("cache.result", "miss"))
		}
	}

	endpoint := fmt.Sprintf("%s/vacancies/%s", c.config.HHAPIBaseURL, url.PathEscape(id))
	var detail models.DetailRecord
	if err := c.getJSON(ctx, endpoint, &detail); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, detail, c.config.CacheTTL); err != nil {
			c.logger.Warn("failed to cache vacancy", zap.String("id", id), zap.Error(err))
		}
	}
	return detail, nil
}

func (c *hhClient) getJSON(ctx context.Context, endpoint string, v any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Internal("creating request", err)
	}
	req.Header.Set("User-Agent", c.config.HHUserAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("failed to execute request", zap.String("url", endpoint), zap.Error(err))
		return errors.Unavailable("executing request", err)
	}
	defer c.closeBody(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFound("resource not found", nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Unauthorized(fmt.Sprintf("request rejected: %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.RateLimit("too many requests", nil)
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("unexpected status code",
			zap.String("url", endpoint),
			zap.Int("status_code", resp.StatusCode))
		return errors.Internal(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		c.logger.Error("failed to decode response", zap.String("url", endpoint), zap.Error(err))
		return errors.Internal("decoding response", err)
	}
	return nil
}

func (c *hhClient) closeBody(resp *http.Response) {
	if cerr := resp.Body.Close(); cerr != nil {
		c.logger.Warn("failed to close response body", zap.Error(cerr))
	}
}
