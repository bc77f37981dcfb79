package model

import (
	"maps"
	"math"
	"slices"
	"strings"
	"time"
)

// Status describes the outcome of enriching a Business with website data.
type Status string

// Enrichment status values.
const (
	// StatusPending means the record has not been enriched yet.
	StatusPending Status = ""
	// StatusNoWebsite means the listing had no website to crawl.
	StatusNoWebsite Status = "No website"
	// StatusLowQuality means the website is hosted on a site builder domain
	// and was not crawled.
	StatusLowQuality Status = "Low-quality website"
	// StatusDataExtracted means at least one email or social link was found.
	StatusDataExtracted Status = "Data extracted"
	// StatusNoContactInfo means the site was crawled but yielded nothing.
	StatusNoContactInfo Status = "No contact info found"
	// StatusWebsiteError means crawling the site failed unexpectedly.
	StatusWebsiteError Status = "Website error"
	// StatusRetrySuccessful means a later retry recovered contact data.
	StatusRetrySuccessful Status = "Retry successful"
)

// BaseConfidence returns the record confidence assigned with the status.
// StatusRetrySuccessful has no base value; it raises the existing score.
func (s Status) BaseConfidence() float64 {
	switch s {
	case StatusLowQuality:
		return 0.2
	case StatusDataExtracted:
		return 0.8
	case StatusNoContactInfo:
		return 0.4
	case StatusWebsiteError:
		return 0.1
	default:
		return 0.0
	}
}

// RetryConfidenceBonus is added to a record's confidence when a retry recovers data.
const RetryConfidenceBonus = 0.3

// Coordinates is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// IsZero reports whether both components are zero, which is treated as unknown.
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// DistanceKM returns the great-circle distance between c and other in kilometres.
func (c Coordinates) DistanceKM(other Coordinates) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Business is a lead record: the listing fields supplied by discovery plus
// the contact data and scoring added by enrichment.
//
// Design decision: We keep the listing fields as plain strings rather than
// parsing them (phone numbers, hours, price ranges) because discovery sources
// disagree on formats and the harvester only passes them through to exports.
type Business struct {
	Name          string                    `json:"name" yaml:"name"`
	Address       string                    `json:"address,omitempty" yaml:"address"`
	Phone         string                    `json:"phone,omitempty" yaml:"phone"`
	Website       string                    `json:"website,omitempty" yaml:"website"`
	Emails        []string                  `json:"emails" yaml:"emails"`
	SocialMedia   map[SocialPlatform]string `json:"social_media" yaml:"social_media"`
	Rating        float64                   `json:"rating,omitempty" yaml:"rating"`
	ReviewCount   int                       `json:"review_count,omitempty" yaml:"review_count"`
	BusinessHours string                    `json:"business_hours,omitempty" yaml:"business_hours"`
	PriceRange    string                    `json:"price_range,omitempty" yaml:"price_range"`
	Category      string                    `json:"category,omitempty" yaml:"category"`
	Coordinates   *Coordinates              `json:"coordinates,omitempty" yaml:"coordinates"`

	// Status is the enrichment outcome.
	Status Status `json:"status" yaml:"status"`

	// ConfidenceScore is the record-level quality estimate in [0,1].
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	// ScrapedAt is when the record was discovered or last enriched.
	ScrapedAt time.Time `json:"scraped_at" yaml:"scraped_at"`

	// DistanceKM is the distance from the search reference point, if known.
	DistanceKM *float64 `json:"distance_km,omitempty" yaml:"distance_km"`
}

// HasWebsite reports whether the record carries a non-blank website URL.
func (b *Business) HasWebsite() bool {
	return strings.TrimSpace(b.Website) != ""
}

// SetStatus records the enrichment status and its base confidence.
func (b *Business) SetStatus(s Status) {
	b.Status = s
	b.ConfidenceScore = s.BaseConfidence()
}

// ApplyContacts copies a crawl result into the record and sets the status
// to StatusDataExtracted or StatusNoContactInfo accordingly.
func (b *Business) ApplyContacts(bundle ContactBundle) {
	b.Emails = append([]string{}, bundle.Emails...)
	b.SocialMedia = make(map[SocialPlatform]string, len(bundle.Social))
	for k, v := range bundle.Social {
		b.SocialMedia[k] = v
	}
	if bundle.Empty() {
		b.SetStatus(StatusNoContactInfo)
		return
	}
	b.SetStatus(StatusDataExtracted)
}

// MergeRecovered folds contact data recovered by a retry into the record:
// emails are unioned, social links overlaid, the status becomes
// StatusRetrySuccessful and confidence rises by RetryConfidenceBonus, capped at 1.0.
func (b *Business) MergeRecovered(bundle ContactBundle) {
	merged := ContactBundle{Emails: b.Emails, Social: b.SocialMedia}
	merged = merged.Clone()
	merged.Merge(bundle)

	b.Emails = merged.Emails
	b.SocialMedia = merged.Social
	b.Status = StatusRetrySuccessful
	b.ConfidenceScore = math.Min(b.ConfidenceScore+RetryConfidenceBonus, 1.0)
}

// Clone returns a deep copy of the record.
func (b Business) Clone() Business {
	out := b
	out.Emails = slices.Clone(b.Emails)
	out.SocialMedia = maps.Clone(b.SocialMedia)
	if b.Coordinates != nil {
		c := *b.Coordinates
		out.Coordinates = &c
	}
	if b.DistanceKM != nil {
		d := *b.DistanceKM
		out.DistanceKM = &d
	}
	return out
}
