package legacy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
)

// ErrUnknownResult is the message surfaced when the sidecar responds with
// a body that is neither a success payload nor an error string.
const ErrUnknownResult = "legacy itc returned an unknown result"

// Default client timeout. Legacy calculations for faint extended sources
// can take tens of seconds.
const defaultTimeout = 2 * time.Minute

// Client talks to the legacy calculator sidecar over HTTP. Calculation
// documents are POSTed to /json; the upstream data version is read from
// /version.
//
// Client is safe for concurrent use, but the sidecar's numeric kernel is
// not reentrant: callers must route calls through the calculator worker
// rather than invoking a Client method from multiple goroutines.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a bridge client for the sidecar at baseURL.
// httpClient may be nil to use a default with a generous timeout.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("legacy itc URL cannot be empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, http: httpClient, logger: logger}, nil
}

// CalculateGraphs runs a spectroscopy graph calculation for the given
// canonical document. Calculator-reported failures come back as
// *itc.UpstreamError; malformed responses as an unknown-result error.
func (c *Client) CalculateGraphs(ctx context.Context, doc []byte) (itc.GraphResult, error) {
	body, err := c.post(ctx, doc)
	if err != nil {
		return itc.GraphResult{}, err
	}
	return parseGraphResult(body)
}

// CalculateExposureTime runs an exposure-time calculation for the given
// canonical document and returns the solved plan.
func (c *Client) CalculateExposureTime(ctx context.Context, doc []byte) (itc.IntegrationTime, error) {
	body, err := c.post(ctx, doc)
	if err != nil {
		return itc.IntegrationTime{}, err
	}
	return parseIntegrationTime(body)
}

// DataVersion returns the sidecar's data-version token. The token changes
// whenever the upstream instrument or atmosphere tables change, which
// invalidates every cached result.
func (c *Client) DataVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return "", fmt.Errorf("build version request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("query legacy itc version: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("read version response: %w", err)
	}

	token := gjson.GetBytes(body, "versionToken")
	if !token.Exists() || token.String() == "" {
		return "", &itc.UpstreamError{Message: ErrUnknownResult}
	}
	return token.String(), nil
}

func (c *Client) post(ctx context.Context, doc []byte) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/json", bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("build calculation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call legacy itc: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read legacy itc response: %w", err)
	}

	c.logger.Debug("legacy itc call complete",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	// The sidecar reports calculation failures with a JSON error body and
	// any status code; a non-2xx status with no parseable body is still an
	// upstream error.
	if msg := gjson.GetBytes(body, "error"); msg.Exists() && msg.String() != "" {
		return nil, &itc.UpstreamError{Message: msg.String()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &itc.UpstreamError{Message: fmt.Sprintf("legacy itc returned status %d", resp.StatusCode)}
	}
	return body, nil
}

func parseGraphResult(body []byte) (itc.GraphResult, error) {
	success := gjson.GetBytes(body, "success")
	ccds := success.Get("ccds")
	groups := success.Get("groups")
	if !success.Exists() || !ccds.IsArray() || !groups.IsArray() {
		return itc.GraphResult{}, &itc.UpstreamError{Message: ErrUnknownResult}
	}

	var out itc.GraphResult
	for _, ccd := range ccds.Array() {
		c := itc.CcdResult{
			SingleSNRatio: ccd.Get("singleSNRatio").Float(),
			TotalSNRatio:  ccd.Get("totalSNRatio").Float(),
			PeakPixelFlux: ccd.Get("peakPixelFlux").Float(),
			WellDepth:     ccd.Get("wellDepth").Float(),
			AmpGain:       ccd.Get("ampGain").Float(),
		}
		for _, w := range ccd.Get("warnings").Array() {
			c.Warnings = append(c.Warnings, w.String())
		}
		out.Ccds = append(out.Ccds, c)
	}

	for _, group := range groups.Array() {
		var g itc.GraphGroup
		for _, s := range group.Get("series").Array() {
			ser := itc.Series{
				Title:    s.Get("title").String(),
				DataType: itc.SeriesDataType(s.Get("dataType").String()),
			}
			for _, x := range s.Get("xAxis").Array() {
				ser.XValues = append(ser.XValues, x.Float())
			}
			for _, y := range s.Get("yAxis").Array() {
				ser.YValues = append(ser.YValues, y.Float())
			}
			g.Series = append(g.Series, ser)
		}
		out.Groups = append(out.Groups, g)
	}

	if len(out.Ccds) == 0 || len(out.Groups) == 0 {
		return itc.GraphResult{}, &itc.UpstreamError{Message: ErrUnknownResult}
	}
	return out, nil
}

func parseIntegrationTime(body []byte) (itc.IntegrationTime, error) {
	success := gjson.GetBytes(body, "success")
	expTime := success.Get("exposureTime")
	exposures := success.Get("exposures")
	if !success.Exists() || !expTime.Exists() || !exposures.Exists() {
		return itc.IntegrationTime{}, &itc.UpstreamError{Message: ErrUnknownResult}
	}

	return itc.IntegrationTime{
		ExposureTime:        time.Duration(expTime.Float() * float64(time.Second)),
		Exposures:           int(exposures.Int()),
		TotalSignalToNoise:  success.Get("signalToNoise").Float(),
		SingleSignalToNoise: success.Get("singleSignalToNoise").Float(),
	}, nil
}
