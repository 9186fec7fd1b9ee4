package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/logger"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/tavily"
)

// SearchClient is the slice of the Tavily client the enrichment service needs.
type SearchClient interface {
	Search(ctx context.Context, query, depth string, maxResults int) []tavily.Resource
}

// EnrichmentService turns a roadmap task into a bounded search query and
// returns resource URLs for it. It satisfies content.ResourceFinder. Results
// are cached in Redis when a client is configured; cache failures are logged
// and ignored, the search still runs.
type EnrichmentService struct {
	log      *logger.Logger
	search   SearchClient
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewEnrichmentService(log *logger.Logger, search SearchClient, cache *redis.Client) *EnrichmentService {
	return &EnrichmentService{
		log:      log.With("service", "EnrichmentService"),
		search:   search,
		cache:    cache,
		cacheTTL: 6 * time.Hour,
	}
}

const (
	taskQueryLimit  = 80
	stepQueryLimit  = 100
	totalQueryLimit = 390
	shortQueryFloor = 300
)

// FindResources builds the search query from the task name and, when the name
// alone is short, the first activity step plus a month-scaled difficulty hint.
// The query never exceeds 390 characters regardless of input length.
func (s *EnrichmentService) FindResources(ctx context.Context, taskName, activity string, month int) []string {
	query := truncateRunes(strings.TrimSpace(taskName), taskQueryLimit)
	if query == "" {
		return nil
	}

	if len(query) < shortQueryFloor {
		step := firstStep(activity)
		if step != "" {
			query = query + ": " + truncateRunes(step, stepQueryLimit)
		}
		if hint := difficultyHint(month); hint != "" {
			query = query + " " + hint
		}
	}
	query = truncateRunes(query, totalQueryLimit)

	depth := "basic"
	if month > 2 {
		depth = "advanced"
	}
	maxResults := 3 + minInt(month, 4)

	if cached, ok := s.cacheGet(ctx, query, depth, maxResults); ok {
		return cached
	}

	results := s.search.Search(ctx, query, depth, maxResults)
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}

	s.cacheSet(ctx, query, depth, maxResults, urls)
	return urls
}

// difficultyHint scales the query with how deep into the program the month is.
// Month 1 carries no hint so beginner material isn't crowded out.
func difficultyHint(month int) string {
	switch {
	case month <= 1:
		return ""
	case month <= 2:
		return "intermediate"
	case month <= 4:
		return "advanced"
	default:
		return "expert"
	}
}

func firstStep(activity string) string {
	for _, line := range strings.Split(activity, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.Index(line, ". "); i > 0 && i <= 3 {
			line = strings.TrimSpace(line[i+2:])
		}
		return line
	}
	return ""
}

func (s *EnrichmentService) cacheKey(query, depth string, maxResults int) string {
	sum := sha256.Sum256([]byte(query))
	return "enrich:" + depth + ":" + strconv.Itoa(maxResults) + ":" + hex.EncodeToString(sum[:8])
}

func (s *EnrichmentService) cacheGet(ctx context.Context, query, depth string, maxResults int) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(query, depth, maxResults)).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("Enrichment cache read failed", "error", err.Error())
		}
		return nil, false
	}
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, false
	}
	return urls, true
}

func (s *EnrichmentService) cacheSet(ctx context.Context, query, depth string, maxResults int, urls []string) {
	if s.cache == nil || len(urls) == 0 {
		return
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(query, depth, maxResults), raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn("Enrichment cache write failed", "error", err.Error())
	}
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	out := make([]rune, 0, n)
	size := 0
	for _, r := range runes {
		size += len(string(r))
		if size > n {
			break
		}
		out = append(out, r)
	}
	return string(out)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
