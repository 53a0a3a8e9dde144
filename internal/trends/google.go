package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/trendlens/internal/models"
)

const (
	widgetTimeseries = "TIMESERIES"
	widgetRelated    = "RELATED_QUERIES"

	maxBodyBytes = 4 << 20
)

// GoogleConfig configures a GoogleTrends client.
type GoogleConfig struct {
	BaseURL   string
	Language  string
	TZOffset  int
	Geo       string
	Timeframe string
	// Months is how many trailing calendar months Fetch returns.
	Months     int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// GoogleTrends fetches interest over time from the Google Trends web API.
// Each instance owns its HTTP client and cookie jar.
type GoogleTrends struct {
	cfg    GoogleConfig
	client *http.Client
	logger *zap.Logger
	primed atomic.Bool
}

// NewGoogleTrends builds a client. Missing fields get the same defaults as the config package.
func NewGoogleTrends(cfg GoogleConfig) *GoogleTrends {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://trends.google.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = "today 12-m"
	}
	if cfg.Months <= 0 {
		cfg.Months = FallbackPoints
	}
	client := cfg.HTTPClient
	if client == nil {
		jar, _ := cookiejar.New(nil)
		client = &http.Client{Jar: jar}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleTrends{cfg: cfg, client: client, logger: logger}
}

// Name returns the source name.
func (g *GoogleTrends) Name() string { return models.SourceGoogleTrends }

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
	Time    string `json:"time"`
}

type widget struct {
	ID      string          `json:"id"`
	Request json.RawMessage `json:"request"`
	Token   string          `json:"token"`
}

type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time    string `json:"time"`
			Value   []int  `json:"value"`
			HasData []bool `json:"hasData"`
		} `json:"timelineData"`
	} `json:"default"`
}

type relatedResponse struct {
	Default struct {
		RankedList []struct {
			RankedKeyword []struct {
				Query string `json:"query"`
				Value int    `json:"value"`
			} `json:"rankedKeyword"`
		} `json:"rankedList"`
	} `json:"default"`
}

// Fetch resolves the explore widgets for keyword, then downloads the timeseries and
// related queries. Related-query failures are logged and do not fail the fetch.
func (g *GoogleTrends) Fetch(ctx context.Context, keyword string) Outcome {
	g.primeCookies(ctx)

	widgets, err := g.explore(ctx, keyword)
	if err != nil {
		return failedFromError(ctx, err)
	}
	var timeseries, related *widget
	for i := range widgets {
		switch widgets[i].ID {
		case widgetTimeseries:
			timeseries = &widgets[i]
		case widgetRelated:
			if related == nil {
				related = &widgets[i]
			}
		}
	}
	if timeseries == nil {
		return Failed(ReasonMalformed, errors.New("explore response has no TIMESERIES widget"))
	}

	var ml multilineResponse
	if err := g.getJSON(ctx, "/trends/api/widgetdata/multiline", timeseries, &ml); err != nil {
		return failedFromError(ctx, err)
	}
	samples := make([]sample, 0, len(ml.Default.TimelineData))
	for _, p := range ml.Default.TimelineData {
		if len(p.Value) == 0 || (len(p.HasData) > 0 && !p.HasData[0]) {
			continue
		}
		sec, err := strconv.ParseInt(p.Time, 10, 64)
		if err != nil {
			return Failed(ReasonMalformed, fmt.Errorf("timeline point time %q: %w", p.Time, err))
		}
		samples = append(samples, sample{at: time.Unix(sec, 0).UTC(), value: p.Value[0]})
	}
	if len(samples) == 0 {
		return Failed(ReasonEmpty, fmt.Errorf("no interest data for %q", keyword))
	}
	series, err := monthly(samples, g.cfg.Months)
	if err != nil {
		return Failed(ReasonMalformed, err)
	}

	var queries []models.RelatedQuery
	if related != nil {
		queries, err = g.related(ctx, related)
		if err != nil {
			g.logger.Debug("related queries unavailable", zap.String("keyword", keyword), zap.Error(err))
		}
	}
	return Succeeded(series, queries)
}

func (g *GoogleTrends) explore(ctx context.Context, keyword string) ([]widget, error) {
	req, err := json.Marshal(exploreRequest{
		ComparisonItem: []comparisonItem{{Keyword: keyword, Geo: g.cfg.Geo, Time: g.cfg.Timeframe}},
	})
	if err != nil {
		return nil, err
	}
	var resp exploreResponse
	if err := g.get(ctx, "/trends/api/explore", url.Values{"req": {string(req)}}, &resp); err != nil {
		return nil, err
	}
	return resp.Widgets, nil
}

func (g *GoogleTrends) related(ctx context.Context, w *widget) ([]models.RelatedQuery, error) {
	var resp relatedResponse
	if err := g.getJSON(ctx, "/trends/api/widgetdata/relatedsearches", w, &resp); err != nil {
		return nil, err
	}
	var out []models.RelatedQuery
	for i, list := range resp.Default.RankedList {
		for _, kw := range list.RankedKeyword {
			if kw.Query == "" {
				continue
			}
			// The second ranked list holds rising queries.
			out = append(out, models.RelatedQuery{Query: kw.Query, Value: kw.Value, Rising: i == 1})
		}
	}
	return out, nil
}

func (g *GoogleTrends) getJSON(ctx context.Context, path string, w *widget, out any) error {
	params := url.Values{"req": {string(w.Request)}, "token": {w.Token}}
	return g.get(ctx, path, params, out)
}

func (g *GoogleTrends) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("hl", g.cfg.Language)
	params.Set("tz", strconv.Itoa(g.cfg.TZOffset))
	endpoint := g.cfg.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept-Language", g.cfg.Language)

	resp, err := g.client.Do(req)
	if err != nil {
		return &Failure{Reason: ReasonUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &Failure{Reason: ReasonRateLimited, Err: fmt.Errorf("%s returned 429", path)}
	}
	if resp.StatusCode != http.StatusOK {
		return &Failure{Reason: ReasonUnreachable, Err: fmt.Errorf("%s returned %d", path, resp.StatusCode)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Failure{Reason: ReasonUnreachable, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	body, err = stripXSSI(body)
	if err != nil {
		return &Failure{Reason: ReasonMalformed, Err: fmt.Errorf("%s: %w", path, err)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Failure{Reason: ReasonMalformed, Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	return nil
}

// primeCookies visits the landing page once so the provider issues its session cookie.
// Failures are ignored; the API calls report their own errors.
func (g *GoogleTrends) primeCookies(ctx context.Context) {
	if g.primed.Load() {
		return
	}
	landing := g.cfg.BaseURL + "/?geo=" + url.QueryEscape(g.cfg.Geo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, landing, nil)
	if err != nil {
		return
	}
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("cookie priming failed", zap.Error(err))
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	g.primed.Store(true)
}

// stripXSSI drops the anti-XSSI prefix (")]}'," and similar) preceding the JSON object.
func stripXSSI(body []byte) ([]byte, error) {
	idx := bytes.IndexByte(body, '{')
	if idx < 0 {
		return nil, errors.New("response contains no JSON object")
	}
	return body[idx:], nil
}

func failedFromError(ctx context.Context, err error) Outcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return Failed(ReasonTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Failed(ReasonTimeout, err)
	}
	var f *Failure
	if errors.As(err, &f) {
		return Outcome{Failure: f}
	}
	return Failed(ReasonUnreachable, err)
}
