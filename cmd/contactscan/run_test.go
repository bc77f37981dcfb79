package main

import (
	"slices"
	"testing"
	"time"

	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/contactscan/internal/pipeline"
)

func TestRecordsFromURLs(t *testing.T) {
	t.Parallel()

	records := recordsFromURLs([]string{"https://www.acme.com/", " ", "example.org/about", "http://127.0.0.1:8080"})

	var names, websites []string
	for _, r := range records {
		names = append(names, r.Name)
		websites = append(websites, r.Website)
	}
	if want := []string{"acme.com", "example.org", "127.0.0.1"}; !slices.Equal(names, want) {
		t.Errorf("expected names %v, got %v", want, names)
	}
	if want := []string{"https://www.acme.com/", "example.org/about", "http://127.0.0.1:8080"}; !slices.Equal(websites, want) {
		t.Errorf("expected websites kept as given %v, got %v", want, websites)
	}
	for _, r := range records {
		if r.Status != model.StatusPending {
			t.Errorf("expected pending status, got %q", r.Status)
		}
	}
}

func TestRecoveredRecords(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	earlier := model.Business{Name: "Acme Bakery", Website: "https://acme.com/", Emails: []string{"jane@acme.com"}}
	earlier.SetStatus(model.StatusDataExtracted)

	found := model.NewContactBundle()
	found.AddEmail("sales@acme.com")
	recovered := map[string]model.ContactBundle{
		"https://acme.com/":   found,
		"acme.com":            found,
		"https://quiet.org/":  model.NewContactBundle(),
		"https://newsite.io/": found,
	}

	records := recoveredRecords(recovered, pipeline.PreviousResults([]model.Business{earlier}), now)
	if len(records) != 3 {
		t.Fatalf("expected one record per site, got %d: %+v", len(records), records)
	}

	byName := make(map[string]model.Business, len(records))
	for _, r := range records {
		if !r.ScrapedAt.Equal(now) {
			t.Errorf("%s: expected ScrapedAt %v, got %v", r.Name, now, r.ScrapedAt)
		}
		byName[r.Name] = r
	}

	if acme := byName["Acme Bakery"]; acme.Status != model.StatusDataExtracted || !slices.Equal(acme.Emails, []string{"jane@acme.com"}) {
		t.Errorf("expected the earlier result to be copied, got %+v", acme)
	}
	if quiet := byName["quiet.org"]; quiet.Status != model.StatusNoContactInfo {
		t.Errorf("expected a reachable site without contacts to be no-contact, got %q", quiet.Status)
	}
	if fresh := byName["newsite.io"]; fresh.Status != model.StatusWebsiteError || fresh.ConfidenceScore != 0.1 {
		t.Errorf("expected a new record to start as website error, got %q %.1f", fresh.Status, fresh.ConfidenceScore)
	}

	if merged := pipeline.MergeRecovered(records, recovered); merged != 2 {
		t.Errorf("expected 2 records merged, got %d", merged)
	}
	if len(earlier.Emails) != 1 {
		t.Error("the earlier record must not be modified")
	}
}

func TestLatestResults(t *testing.T) {
	t.Parallel()

	first := model.Business{Name: "Acme", Website: "acme.com", Status: model.StatusWebsiteError}
	other := model.Business{Name: "No Site Co"}
	again := model.Business{Name: "Acme", Website: "https://acme.com/", Status: model.StatusRetrySuccessful}
	otherAgain := model.Business{Name: "no site co ", Status: model.StatusNoWebsite}

	got := latestResults([]model.Business{first, other, again, otherAgain})

	if len(got) != 2 {
		t.Fatalf("expected 2 businesses, got %d", len(got))
	}
	if got[0].Status != model.StatusRetrySuccessful {
		t.Errorf("expected the later Acme result, got %q", got[0].Status)
	}
	if got[1].Status != model.StatusNoWebsite {
		t.Errorf("expected the later name-keyed result, got %q", got[1].Status)
	}
}
