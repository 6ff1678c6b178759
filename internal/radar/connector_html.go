package radar

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"licitaradar/internal/models"
)

// HTMLListingConnector scrapes a portal's licitações listing page with CSS
// selectors from the registry. It covers portals that publish neither a
// structured API nor anything the search capability finds reliably.
type HTMLListingConnector struct {
	BaseURL   string
	Selectors SelectorConfig
	UserAgent string
	Timeout   time.Duration
}

func NewHTMLListingConnector(baseURL string, selectors SelectorConfig) *HTMLListingConnector {
	return &HTMLListingConnector{
		BaseURL:   baseURL,
		Selectors: selectors,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Timeout:   30 * time.Second,
	}
}

func (c *HTMLListingConnector) Name() string { return "html_listing" }

func (c *HTMLListingConnector) Fetch(ctx context.Context, inst models.Institution, _ string) FetchResult {
	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return Failed(fmt.Sprintf("invalid base URL: %v", err))
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsedURL.Hostname()),
		colly.UserAgent(c.UserAgent),
		colly.DetectCharset(),
	)
	collector.SetRequestTimeout(c.Timeout)
	collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       1 * time.Second,
	})

	var items []models.Opportunity
	var fetchErr error

	collector.OnHTML(c.Selectors.Container, func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText(c.Selectors.Title))
		if title == "" {
			return
		}

		link := strings.TrimSpace(e.ChildAttr(c.Selectors.Link, "href"))
		if link != "" {
			link = e.Request.AbsoluteURL(link)
		} else {
			link = inst.URL
		}

		description := title
		if c.Selectors.Content != "" {
			if content := strings.TrimSpace(e.ChildText(c.Selectors.Content)); content != "" {
				description = content
			}
		}

		date := ""
		if c.Selectors.Date != "" {
			date = strings.TrimSpace(e.ChildText(c.Selectors.Date))
		}

		items = append(items, models.Opportunity{
			ID:          uuid.NewString(),
			Title:       title,
			Date:        date,
			Description: description,
			Link:        link,
			Institution: inst.Name,
			IsNew:       true,
		})
	})

	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(c.BaseURL); err != nil {
		return Failed(fmt.Sprintf("visit failed: %v", err))
	}
	collector.Wait()

	if fetchErr != nil && len(items) == 0 {
		return Failed(fmt.Sprintf("fetch failed: %v", fetchErr))
	}
	if len(items) == 0 {
		return Empty()
	}
	return Found(items)
}
