package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/competitor-intel-go/internal/constants"
	"github.com/kapu/competitor-intel-go/internal/domain"
	"github.com/kapu/competitor-intel-go/internal/util"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ScraperService struct {
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *zap.Logger
	userAgent     string
	respectRobots bool

	robotsMu    sync.Mutex
	robotsCache map[string]*robotsEntry
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

type ScraperOptions struct {
	Timeout        time.Duration
	RequestsPerSec float64
	UserAgent      string
	RespectRobots  bool
}

var socialDomains = []string{
	"twitter.com", "x.com", "facebook.com", "instagram.com",
	"linkedin.com", "youtube.com", "tiktok.com", "threads.net",
}

func NewScraperService(opts ScraperOptions, logger *zap.Logger) *ScraperService {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	rps := opts.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; CompetitorIntelBot/1.0)"
	}

	return &ScraperService{
		httpClient:    &http.Client{Timeout: timeout},
		limiter:       rate.NewLimiter(rate.Limit(rps), 1),
		logger:        logger,
		userAgent:     userAgent,
		respectRobots: opts.RespectRobots,
		robotsCache:   make(map[string]*robotsEntry),
	}
}

// FetchCompetitor downloads a competitor's landing page and extracts its
// marketing data. Attempt-once: any network or parse failure is returned to
// the caller unretried.
func (s *ScraperService) FetchCompetitor(ctx context.Context, identifier string) (*domain.CompetitorRecord, error) {
	baseURL, err := normalizeIdentifier(identifier)
	if err != nil {
		return nil, fmt.Errorf("invalid competitor identifier %q: %w", identifier, err)
	}

	if s.respectRobots {
		if allowed := s.robotsAllowed(ctx, baseURL); !allowed {
			return nil, fmt.Errorf("scraping %s disallowed by robots.txt", baseURL.Host)
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, baseURL.Host)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	record := s.extractRecord(doc, baseURL)

	s.logger.Info("Competitor scraped",
		zap.String("identifier", identifier),
		zap.String("name", record.Name),
		zap.Int("products", len(record.Products)),
		zap.Int("headlines", len(record.Headlines)),
		zap.Int("images", len(record.Images)),
	)

	return record, nil
}

func (s *ScraperService) extractRecord(doc *goquery.Document, baseURL *url.URL) *domain.CompetitorRecord {
	record := domain.NewCompetitorRecord(s.extractName(doc, baseURL))

	doc.Find(".product, .product-card, [class*='product-item']").Each(func(i int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find("h2, h3, .product-name, .title").First().Text())
		if name != "" {
			record.Products = append(record.Products, util.TruncateString(name, 120))
		}
		desc := strings.TrimSpace(sel.Find("p, .description, .product-description").First().Text())
		if desc != "" {
			record.ProductDescriptions = append(record.ProductDescriptions, util.TruncateString(desc, 400))
		}
	})

	doc.Find(".price, [class*='price']").Each(func(i int, sel *goquery.Selection) {
		price := strings.TrimSpace(sel.Text())
		if looksLikePrice(price) {
			record.Prices = append(record.Prices, util.TruncateString(price, 40))
		}
	})

	doc.Find("h1, h2").Each(func(i int, sel *goquery.Selection) {
		headline := strings.TrimSpace(sel.Text())
		if headline != "" {
			record.Headlines = append(record.Headlines, util.TruncateString(headline, 200))
		}
	})

	doc.Find(".features li, [class*='feature'] li, .benefits li").Each(func(i int, sel *goquery.Selection) {
		feature := strings.TrimSpace(sel.Text())
		if feature != "" {
			record.Features = append(record.Features, util.TruncateString(feature, 200))
		}
	})

	var contacts []string
	doc.Find("a[href^='mailto:']").Each(func(i int, sel *goquery.Selection) {
		if href, exists := sel.Attr("href"); exists {
			contacts = append(contacts, strings.TrimPrefix(href, "mailto:"))
		}
	})
	doc.Find("address, .contact, .contact-info, footer .phone").Each(func(i int, sel *goquery.Selection) {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text != "" {
			contacts = append(contacts, util.TruncateString(text, 300))
		}
	})
	record.Contact = strings.Join(util.UniqueStrings(contacts), "\n")

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		for _, social := range socialDomains {
			if strings.Contains(href, social) {
				record.SocialLinks = append(record.SocialLinks, href)
				break
			}
		}
	})
	record.SocialLinks = util.UniqueStrings(record.SocialLinks)

	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		if len(record.Images) >= 10 {
			return
		}
		insight := extractImageInsight(sel)
		if insight != nil {
			record.Images = append(record.Images, *insight)
		}
	})

	record.Headlines = util.UniqueStrings(record.Headlines)
	record.Prices = util.UniqueStrings(record.Prices)
	record.Features = util.UniqueStrings(record.Features)

	return record
}

func (s *ScraperService) extractName(doc *goquery.Document, baseURL *url.URL) string {
	if name, exists := doc.Find("meta[property='og:site_name']").Attr("content"); exists {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			return trimmed
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		for _, sep := range []string{" | ", " - ", " – "} {
			if idx := strings.Index(title, sep); idx > 0 {
				title = title[:idx]
				break
			}
		}
		return strings.TrimSpace(title)
	}

	return baseURL.Host
}

// extractImageInsight builds an image-analysis record from what the markup
// exposes: alt text, class hints, and the filename.
func extractImageInsight(sel *goquery.Selection) *domain.ImageInsight {
	src, _ := sel.Attr("src")
	alt, _ := sel.Attr("alt")
	class, _ := sel.Attr("class")

	alt = strings.TrimSpace(alt)
	if src == "" && alt == "" {
		return nil
	}

	insight := &domain.ImageInsight{
		Labels:       []string{},
		DetectedText: alt,
		Logos:        []string{},
	}

	for _, word := range strings.Fields(strings.ToLower(alt)) {
		if len(word) > 3 && len(insight.Labels) < 5 {
			insight.Labels = append(insight.Labels, word)
		}
	}

	lowerSrc := strings.ToLower(src)
	if strings.Contains(lowerSrc, "logo") || strings.Contains(strings.ToLower(class), "logo") {
		name := alt
		if name == "" {
			name = filenameStem(src)
		}
		insight.Logos = append(insight.Logos, name)
	}

	return insight
}

func looksLikePrice(text string) bool {
	if text == "" || len(text) > 60 {
		return false
	}

	hasDigit := strings.ContainsAny(text, "0123456789")
	hasCurrency := strings.ContainsAny(text, "$€£¥₩") ||
		strings.Contains(strings.ToUpper(text), "USD") ||
		strings.Contains(strings.ToUpper(text), "EUR")

	return hasDigit && hasCurrency
}

func filenameStem(src string) string {
	parts := strings.Split(src, "/")
	name := parts[len(parts)-1]
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}

// normalizeIdentifier turns a competitor identifier (domain or URL) into an
// absolute https URL.
func normalizeIdentifier(identifier string) (*url.URL, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("empty identifier")
	}

	if !strings.Contains(identifier, "://") {
		identifier = "https://" + identifier
	}

	parsed, err := url.Parse(identifier)
	if err != nil {
		return nil, err
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("no host in %q", identifier)
	}

	return parsed, nil
}

func (s *ScraperService) robotsAllowed(ctx context.Context, target *url.URL) bool {
	data := s.robotsData(ctx, target)
	if data == nil {
		// Unreachable robots.txt is treated as permissive.
		return true
	}

	path := target.Path
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, s.userAgent)
}

func (s *ScraperService) robotsData(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	host := target.Scheme + "://" + target.Host

	s.robotsMu.Lock()
	entry, ok := s.robotsCache[host]
	s.robotsMu.Unlock()
	if ok && time.Since(entry.fetchedAt) < constants.CacheTTL.Robots {
		return entry.data
	}

	var data *robotstxt.RobotsData
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err == nil {
		req.Header.Set("User-Agent", s.userAgent)
		if resp, err := s.httpClient.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if parsed, err := robotstxt.FromResponse(resp); err == nil {
					data = parsed
				}
			}
			resp.Body.Close()
		}
	}

	s.robotsMu.Lock()
	s.robotsCache[host] = &robotsEntry{data: data, fetchedAt: time.Now()}
	s.robotsMu.Unlock()

	if data == nil {
		s.logger.Debug("robots.txt unavailable, allowing fetch", zap.String("host", target.Host))
	}

	return data
}
