package hibp

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode"

	"github.com/breachwatch/hibp-relay/internal/metrics"
	"github.com/breachwatch/hibp-relay/internal/models"
)

// Breach is a single breach instance as returned by the HIBP v3 API.
type Breach struct {
	Name        string   `json:"Name"`
	Title       string   `json:"Title"`
	Domain      string   `json:"Domain"`
	BreachDate  string   `json:"BreachDate"`
	Description string   `json:"Description"`
	DataClasses []string `json:"DataClasses"`
	IsVerified  bool     `json:"IsVerified"`
}

// ClientConfig configures the HIBP client.
type ClientConfig struct {
	// APIURL is a template with two placeholders: the URL-escaped email
	// and the truncateResponse flag.
	APIURL string
	// HIBP rejects user agents containing angle brackets with a 403,
	// so only round brackets are acceptable here.
	UserAgent string
	Timeout   time.Duration
}

// Client queries the HIBP breached-account API.
type Client struct {
	httpClient *http.Client
	config     ClientConfig
}

func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// FetchBreaches returns all breaches known for the given email, or a typed
// error from the closed relay taxonomy. A 400 or 404 from upstream is not an
// error: it means no breaches exist for that account.
func (c *Client) FetchBreaches(ctx context.Context, key, email string, truncate bool) ([]Breach, *models.APIError) {
	if key == "" {
		return nil, models.NewAPIError(
			models.CodeAccessDenied,
			"Access to HIBP denied due to invalid API key.",
		)
	}

	reqURL := fmt.Sprintf(c.config.APIURL, url.QueryEscape(email), strconv.FormatBool(truncate))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.NewAPIError(models.CodeOops, "Something went wrong.")
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("hibp-api-key", key)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamLatency.WithLabelValues("error").Observe(time.Since(start).Seconds())

		var certErr *tls.CertificateVerificationError
		if errors.As(err, &certErr) {
			return nil, models.NewAPIError(
				models.CodeSSLVerification,
				fmt.Sprintf("Unable to verify SSL certificate: %s.", capitalize(certErr.Err.Error())),
			)
		}
		return nil, models.NewAPIError(models.CodeOops, "Something went wrong.")
	}
	defer resp.Body.Close()
	metrics.UpstreamLatency.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	switch resp.StatusCode {
	case http.StatusOK:
		var breaches []Breach
		if err := json.NewDecoder(resp.Body).Decode(&breaches); err != nil {
			return nil, models.NewAPIError(models.CodeOops, "Something went wrong.")
		}
		return breaches, nil

	case http.StatusBadRequest, http.StatusNotFound:
		// The account has never been breached (or cannot be), which is a
		// perfectly valid lookup result.
		return []Breach{}, nil

	case http.StatusUnauthorized:
		return nil, models.NewAPIError(
			models.CodeAccessDenied,
			fmt.Sprintf("Authorization failed: %s", upstreamMessage(resp)),
		)

	case http.StatusTooManyRequests:
		// The HIBP rate-limit payload already carries a well formatted
		// message with a suggested wait, so pass it through verbatim.
		return nil, models.NewAPIError(models.CodeTooManyRequests, upstreamMessage(resp))

	case http.StatusServiceUnavailable:
		return nil, models.NewAPIError(
			models.CodeServiceUnavailable,
			"Service temporarily unavailable. Please try again later.",
		)

	default:
		// Other statuses aren't officially documented, so there is nothing
		// meaningful to tell the caller about them.
		return nil, models.NewAPIError(models.CodeOops, "Something went wrong.")
	}
}

func upstreamMessage(resp *http.Response) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Message == "" {
		return "Something went wrong."
	}
	return payload.Message
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
