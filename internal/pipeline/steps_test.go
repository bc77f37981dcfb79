package pipeline

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/nao1215/contactscan/internal/crawler"
	"github.com/nao1215/contactscan/internal/model"
)

// stubCrawler is a SiteCrawler returning canned results per root.
type stubCrawler struct {
	mu      sync.Mutex
	results map[string]crawler.Result
	run     func(ctx context.Context, root string, maxPages int) crawler.Result
	calls   []string
	budgets []int
}

func (s *stubCrawler) Run(ctx context.Context, root string, maxPages int) crawler.Result {
	s.mu.Lock()
	s.calls = append(s.calls, root)
	s.budgets = append(s.budgets, maxPages)
	s.mu.Unlock()

	if s.run != nil {
		return s.run(ctx, root, maxPages)
	}
	if res, ok := s.results[root]; ok {
		return res
	}
	return crawler.Result{Root: crawler.NormalizeRoot(root), Bundle: model.NewContactBundle()}
}

func fetched(emails []string, social map[model.SocialPlatform]string) crawler.Result {
	return crawler.Result{
		Bundle:       model.ContactBundle{Emails: emails, Social: social},
		RootFetched:  true,
		PagesVisited: 1,
	}
}

// TestWebsiteStep tests the website presence check.
func TestWebsiteStep(t *testing.T) {
	t.Parallel()

	s := NewWebsiteStep()

	b := &model.Business{Name: "No Site", Website: "   "}
	if err := s.Do(context.Background(), b); !errors.Is(err, ErrSkipRemaining) {
		t.Fatalf("expected ErrSkipRemaining, got %v", err)
	}
	if b.Status != model.StatusNoWebsite || b.ConfidenceScore != 0 {
		t.Errorf("got status %q confidence %v", b.Status, b.ConfidenceScore)
	}

	b = &model.Business{Name: "Acme", Website: "https://acme.com"}
	if err := s.Do(context.Background(), b); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestLowQualityStep tests site-builder detection.
func TestLowQualityStep(t *testing.T) {
	t.Parallel()

	s := NewLowQualityStep(nil)

	tests := []struct {
		name    string
		website string
		want    bool
	}{
		{name: "wix subdomain", website: "https://joes.wixsite.com/pizza", want: true},
		{name: "bare host", website: "acme.weebly.com", want: true},
		{name: "upper case", website: "HTTPS://Shop.Squarespace.com", want: true},
		{name: "own domain", website: "https://acme.com", want: false},
		{name: "domain in path only", website: "https://acme.com/wordpress.com-tips", want: false},
		{name: "lookalike host", website: "https://notwixsite.com", want: false},
		{name: "blank", website: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := s.Matches(tt.website); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.website, got, tt.want)
			}
		})
	}

	t.Run("sets status and stops", func(t *testing.T) {
		t.Parallel()

		b := &model.Business{Website: "https://joes.wixsite.com"}
		if err := s.Do(context.Background(), b); !errors.Is(err, ErrSkipRemaining) {
			t.Fatalf("expected ErrSkipRemaining, got %v", err)
		}
		if b.Status != model.StatusLowQuality || b.ConfidenceScore != 0.2 {
			t.Errorf("got status %q confidence %v", b.Status, b.ConfidenceScore)
		}
	})

	t.Run("custom domains replace defaults", func(t *testing.T) {
		t.Parallel()

		custom := NewLowQualityStep([]string{" .Example-Builder.io. "})
		if !custom.Matches("https://x.example-builder.io") {
			t.Error("custom domain should match")
		}
		if custom.Matches("https://x.wixsite.com") {
			t.Error("defaults should be replaced")
		}
	})
}

// TestCrawlStep tests status assignment from crawl outcomes.
func TestCrawlStep(t *testing.T) {
	t.Parallel()

	c := &stubCrawler{results: map[string]crawler.Result{
		"https://found.com": fetched([]string{"info@found.com"}, nil),
		"https://social.com": fetched(nil, map[model.SocialPlatform]string{
			model.SocialPlatformFacebook: "https://facebook.com/social",
		}),
		"https://empty.com": fetched(nil, nil),
		"https://down.com":  {Bundle: model.NewContactBundle(), FailedPages: []string{"https://down.com"}},
		"https://partial.com": func() crawler.Result {
			r := fetched([]string{"info@partial.com"}, nil)
			r.Interrupted = true
			return r
		}(),
	}}
	s := NewCrawlStep(c)

	tests := []struct {
		website    string
		status     model.Status
		confidence float64
		emails     int
	}{
		{website: "https://found.com", status: model.StatusDataExtracted, confidence: 0.8, emails: 1},
		{website: "https://social.com", status: model.StatusDataExtracted, confidence: 0.8},
		{website: "https://empty.com", status: model.StatusNoContactInfo, confidence: 0.4},
		{website: "https://down.com", status: model.StatusWebsiteError, confidence: 0.1},
		{website: "https://partial.com", status: model.StatusWebsiteError, confidence: 0.1, emails: 1},
	}

	for _, tt := range tests {
		t.Run(tt.website, func(t *testing.T) {
			t.Parallel()

			b := &model.Business{Website: tt.website}
			if err := s.Do(context.Background(), b); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b.Status != tt.status || b.ConfidenceScore != tt.confidence {
				t.Errorf("got status %q confidence %v, want %q %v",
					b.Status, b.ConfidenceScore, tt.status, tt.confidence)
			}
			if len(b.Emails) != tt.emails {
				t.Errorf("got %d emails, want %d", len(b.Emails), tt.emails)
			}
		})
	}
}

// TestCrawlStepBudget tests the per-site page budget override.
func TestCrawlStepBudget(t *testing.T) {
	t.Parallel()

	c := &stubCrawler{}
	s := NewCrawlStep(c,
		WithCrawlMaxPages(5),
		WithCrawlSiteMaxPages(func(host string) int {
			if host == "big.com" {
				return 9
			}
			return 0
		}),
	)

	for _, site := range []string{"https://big.com/", "small.com"} {
		if err := s.Do(context.Background(), &model.Business{Website: site}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(c.budgets) != 2 || c.budgets[0] != 9 || c.budgets[1] != 5 {
		t.Errorf("budgets = %v, want [9 5]", c.budgets)
	}
}

// TestCrawlStepReusesCompletedResult tests sites skipped as completed.
func TestCrawlStepReusesCompletedResult(t *testing.T) {
	t.Parallel()

	c := &stubCrawler{results: map[string]crawler.Result{
		"https://done.com": {Skipped: true, Bundle: model.NewContactBundle()},
		"https://lost.com": {Skipped: true, Bundle: model.NewContactBundle()},
	}}
	previous := PreviousResults([]model.Business{{
		Website:         "done.com",
		Emails:          []string{"sales@done.com"},
		Status:          model.StatusDataExtracted,
		ConfidenceScore: 0.8,
	}})
	s := NewCrawlStep(c, WithCrawlPrevious(previous))

	b := &model.Business{Website: "https://done.com"}
	if err := s.Do(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != model.StatusDataExtracted || len(b.Emails) != 1 {
		t.Errorf("earlier result not reused: %+v", b)
	}

	b = &model.Business{Website: "https://lost.com"}
	if err := s.Do(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != model.StatusNoContactInfo {
		t.Errorf("status = %q, want %q", b.Status, model.StatusNoContactInfo)
	}
}

// TestDistanceStep tests haversine distance filling.
func TestDistanceStep(t *testing.T) {
	t.Parallel()

	// Paris to London is about 344 km.
	s := NewDistanceStep(model.Coordinates{Lat: 48.8566, Lng: 2.3522})

	b := &model.Business{Coordinates: &model.Coordinates{Lat: 51.5074, Lng: -0.1278}}
	if err := s.Do(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.DistanceKM == nil || math.Abs(*b.DistanceKM-343.5) > 2 {
		t.Errorf("distance = %v, want about 343.5", b.DistanceKM)
	}

	b = &model.Business{Coordinates: &model.Coordinates{}}
	if err := s.Do(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.DistanceKM != nil {
		t.Error("zero coordinates must not produce a distance")
	}
}

// TestDefaultPipeline tests the standard step order and outcomes.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	c := &stubCrawler{results: map[string]crawler.Result{
		"https://acme.com": fetched([]string{"info@acme.com"}, nil),
	}}

	p := DefaultPipeline(c, nil,
		WithPipelineMaxPages(3),
		WithPipelineReference(model.Coordinates{Lat: 1, Lng: 1}),
	)

	want := []string{"distance", "website", "low_quality", "crawl"}
	got := p.StepNames()
	if len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, got[i], want[i])
		}
	}

	records := []*model.Business{
		{Name: "Acme", Website: "https://acme.com", Coordinates: &model.Coordinates{Lat: 1, Lng: 2}},
		{Name: "Nosite"},
		{Name: "Wix", Website: "https://joe.wixsite.com"},
	}
	for _, b := range records {
		if err := p.Execute(context.Background(), b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if records[0].Status != model.StatusDataExtracted || records[0].DistanceKM == nil {
		t.Errorf("acme = %+v", records[0])
	}
	if records[1].Status != model.StatusNoWebsite {
		t.Errorf("nosite status = %q", records[1].Status)
	}
	if records[2].Status != model.StatusLowQuality {
		t.Errorf("wix status = %q", records[2].Status)
	}
	if len(c.calls) != 1 || c.budgets[0] != 3 {
		t.Errorf("crawler calls = %v budgets = %v", c.calls, c.budgets)
	}
}
