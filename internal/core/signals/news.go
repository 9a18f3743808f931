package signals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sandipsawant10/flood-management-sub002/internal/models"
	"github.com/sandipsawant10/flood-management-sub002/internal/observability"
	"github.com/sandipsawant10/flood-management-sub002/internal/platform/external_apis"
)

const (
	newsLookbackDays         = 3
	defaultNewsLookupTimeout = 10 * time.Second
)

// floodTerms is the vocabulary an article must mention, in title or
// description, to count as flood-related.
var floodTerms = []string{"flood", "water level", "rainfall", "evacuation", "rescue"}

// NewsAPI is the article search source consumed by the news provider.
type NewsAPI interface {
	Search(ctx context.Context, query string, from, to time.Time) ([]external_apis.NewsArticle, error)
}

// NewsProvider searches recent news around a report and checks whether the
// coverage actually mentions flooding.
type NewsProvider struct {
	api     NewsAPI
	timeout time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewNewsProvider(api NewsAPI, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *NewsProvider {
	if timeout <= 0 {
		timeout = defaultNewsLookupTimeout
	}
	return &NewsProvider{
		api:     api,
		timeout: timeout,
		clock:   clock,
		metrics: metrics,
		logger:  logger.With("component", "news-provider"),
	}
}

// newsSnapshot is persisted as the news signal's snapshot.
type newsSnapshot struct {
	Query        string                      `bson:"query" json:"query"`
	TotalResults int                         `bson:"totalResults" json:"totalResults"`
	MatchedCount int                         `bson:"matchedCount" json:"matchedCount"`
	Articles     []external_apis.NewsArticle `bson:"articles,omitempty" json:"articles,omitempty"`
}

// Signal searches for "<query> <district>" from reportedAt minus three days
// to now and classifies the coverage. Search failures become an error
// SignalResult.
func (p *NewsProvider) Signal(ctx context.Context, query, district string, reportedAt time.Time) models.SignalResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	q := strings.TrimSpace(query + " " + district)
	from := reportedAt.AddDate(0, 0, -newsLookbackDays)
	to := p.clock.Now()

	start := time.Now()
	articles, err := p.api.Search(ctx, q, from, to)
	p.metrics.ProviderDuration.WithLabelValues("news").Observe(time.Since(start).Seconds())

	if err != nil {
		p.logger.Warn("news lookup failed", "query", q, "error", err)
		p.metrics.ProviderRequests.WithLabelValues("news", string(models.SignalError)).Inc()
		return models.SignalResult{
			Status:  models.SignalError,
			Summary: fmt.Sprintf("News lookup failed: %v", err),
		}
	}

	result := classifyNews(q, articles)
	p.metrics.ProviderRequests.WithLabelValues("news", string(result.Status)).Inc()
	return result
}

func classifyNews(query string, articles []external_apis.NewsArticle) models.SignalResult {
	if len(articles) == 0 {
		return models.SignalResult{
			Status:   models.SignalNotMatched,
			Summary:  "No relevant news found for the reported area",
			Snapshot: newsSnapshot{Query: query},
		}
	}

	var matched []external_apis.NewsArticle
	for _, a := range articles {
		if mentionsFlooding(a) {
			matched = append(matched, a)
		}
	}

	snapshot := newsSnapshot{
		Query:        query,
		TotalResults: len(articles),
		MatchedCount: len(matched),
		Articles:     matched,
	}

	if len(matched) == 0 {
		return models.SignalResult{
			Status:   models.SignalNotMatched,
			Summary:  "Articles found but none mention flooding",
			Snapshot: snapshot,
		}
	}
	return models.SignalResult{
		Status:   models.SignalMatched,
		Summary:  fmt.Sprintf("%d news article(s) mention flood conditions in the area", len(matched)),
		Snapshot: snapshot,
	}
}

func mentionsFlooding(a external_apis.NewsArticle) bool {
	text := strings.ToLower(a.Title + " " + a.Description)
	for _, term := range floodTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
