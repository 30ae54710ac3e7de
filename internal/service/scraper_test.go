package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const fixtureHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Acme Widgets | Industrial widgets since 1949</title>
  <meta property="og:site_name" content="Acme Widgets">
</head>
<body>
  <h1>Widgets that never break</h1>
  <h2>Trusted by 5000 factories</h2>
  <div class="product-card">
    <h3>Widget Pro</h3>
    <p>Our flagship precision widget.</p>
    <span class="price">$49.99</span>
  </div>
  <div class="product-card">
    <h3>Widget Lite</h3>
    <p>Entry level widget for hobbyists.</p>
    <span class="price">$19.00</span>
  </div>
  <ul class="features">
    <li>Lifetime warranty</li>
    <li>Ships worldwide</li>
  </ul>
  <img src="/img/acme-logo.png" class="logo" alt="Acme Widgets logo">
  <img src="/img/factory.jpg" alt="Modern widget factory floor">
  <footer>
    <address>1 Widget Way, Springfield</address>
    <a href="mailto:sales@acme.test">Contact sales</a>
    <a href="https://twitter.com/acmewidgets">Twitter</a>
    <a href="https://www.linkedin.com/company/acme">LinkedIn</a>
    <a href="/about">About</a>
  </footer>
</body>
</html>`

func newTestScraper(respectRobots bool) *ScraperService {
	return NewScraperService(ScraperOptions{
		RequestsPerSec: 1000,
		RespectRobots:  respectRobots,
	}, zap.NewNop())
}

func TestFetchCompetitorExtractsRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fixtureHTML)
	}))
	defer server.Close()

	scraper := newTestScraper(false)
	record, err := scraper.FetchCompetitor(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if record.Name != "Acme Widgets" {
		t.Fatalf("expected name from og:site_name, got %q", record.Name)
	}
	if len(record.Products) != 2 || record.Products[0] != "Widget Pro" {
		t.Fatalf("unexpected products: %v", record.Products)
	}
	if len(record.ProductDescriptions) != 2 {
		t.Fatalf("unexpected descriptions: %v", record.ProductDescriptions)
	}
	if len(record.Prices) != 2 || record.Prices[0] != "$49.99" {
		t.Fatalf("unexpected prices: %v", record.Prices)
	}
	if len(record.Headlines) != 2 {
		t.Fatalf("unexpected headlines: %v", record.Headlines)
	}
	if len(record.Features) != 2 || record.Features[0] != "Lifetime warranty" {
		t.Fatalf("unexpected features: %v", record.Features)
	}
	if len(record.SocialLinks) != 2 {
		t.Fatalf("unexpected social links: %v", record.SocialLinks)
	}
	if !strings.Contains(record.Contact, "sales@acme.test") {
		t.Fatalf("expected contact to carry mailto address, got %q", record.Contact)
	}
	if len(record.Images) != 2 {
		t.Fatalf("unexpected image insights: %v", record.Images)
	}
	if len(record.Images[0].Logos) != 1 {
		t.Fatalf("expected logo detection on first image, got %v", record.Images[0])
	}
}

func TestFetchCompetitorEmptyPageYieldsEmptyLists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head><title>Bare</title></head><body></body></html>")
	}))
	defer server.Close()

	scraper := newTestScraper(false)
	record, err := scraper.FetchCompetitor(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if record.Name != "Bare" {
		t.Fatalf("expected title fallback name, got %q", record.Name)
	}
	if record.Products == nil || record.Prices == nil || record.Images == nil {
		t.Fatalf("absent data must be empty slices, got %+v", record)
	}
	if len(record.Products) != 0 {
		t.Fatalf("expected no products, got %v", record.Products)
	}
}

func TestFetchCompetitorFailsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	scraper := newTestScraper(false)
	if _, err := scraper.FetchCompetitor(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error on 502 response")
	}
}

func TestFetchCompetitorHonorsRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fixtureHTML)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	scraper := newTestScraper(true)
	if _, err := scraper.FetchCompetitor(context.Background(), server.URL); err == nil {
		t.Fatalf("expected robots.txt to block the fetch")
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	u, err := normalizeIdentifier("acme.test")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if u.Scheme != "https" || u.Host != "acme.test" {
		t.Fatalf("unexpected URL: %s", u)
	}

	if _, err := normalizeIdentifier("   "); err == nil {
		t.Fatalf("expected error for blank identifier")
	}
}
