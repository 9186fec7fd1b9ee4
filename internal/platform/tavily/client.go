package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/envutil"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/logger"
)

// Resource is a single enrichment hit. Snippet is truncated server output,
// Title falls back to a placeholder when the provider returns none.
type Resource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Client wraps the Tavily search API. Search never returns an error: roadmap
// generation must not fail because enrichment is down, so every failure path
// logs and yields an empty slice.
type Client interface {
	Search(ctx context.Context, query, depth string, maxResults int) []Resource
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) Client {
	return &client{
		log:     log.With("service", "TavilyClient"),
		baseURL: strings.TrimRight(envutil.String("TAVILY_BASE_URL", "https://api.tavily.com"), "/"),
		apiKey:  strings.TrimSpace(os.Getenv("TAVILY_API_KEY")),
		httpClient: &http.Client{
			Timeout: time.Duration(envutil.Int("TAVILY_TIMEOUT_SECONDS", 15)) * time.Second,
		},
	}
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

const snippetLimit = 200

func (c *client) Search(ctx context.Context, query, depth string, maxResults int) []Resource {
	if c.apiKey == "" {
		c.log.Warn("Tavily search skipped, no API key configured")
		return nil
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if depth != "basic" && depth != "advanced" {
		depth = "basic"
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	body, err := json.Marshal(searchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: depth,
		MaxResults:  maxResults,
	})
	if err != nil {
		c.log.Error("Tavily request encode failed", "error", err.Error())
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		c.log.Error("Tavily request build failed", "error", err.Error())
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Tavily search failed", "query", query, "error", err.Error())
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn("Tavily response read failed", "error", err.Error())
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Tavily search returned non-2xx",
			"status", resp.StatusCode,
			"body", truncate(string(raw), snippetLimit),
		)
		return nil
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.log.Warn("Tavily response decode failed", "error", err.Error())
		return nil
	}

	out := make([]Resource, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "Untitled Resource"
		}
		snippet := r.Content
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit] + "..."
		}
		out = append(out, Resource{Title: title, URL: r.URL, Snippet: snippet})
	}

	c.log.Debug("Tavily search completed", "query", query, "results", len(out))
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
