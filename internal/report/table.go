package report

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/contactscan/internal/model"
)

// recordColumns is the column order of the tabular exports.
var recordColumns = []string{
	"name",
	"address",
	"phone",
	"website",
	"emails",
	"social_media",
	"rating",
	"review_count",
	"business_hours",
	"price_range",
	"category",
	"coordinates",
	"status",
	"confidence_score",
	"scraped_at",
	"distance_km",
}

// recordRow flattens b into cells matching recordColumns. Emails are
// joined with ", " and nested values are encoded as JSON; unknown
// optional values are left empty.
func recordRow(b model.Business) []string {
	return []string{
		b.Name,
		b.Address,
		b.Phone,
		b.Website,
		strings.Join(b.Emails, ", "),
		jsonCell(b.SocialMedia, len(b.SocialMedia) == 0),
		floatCell(b.Rating, -1),
		intCell(b.ReviewCount),
		b.BusinessHours,
		b.PriceRange,
		b.Category,
		jsonCell(b.Coordinates, b.Coordinates == nil),
		string(b.Status),
		strconv.FormatFloat(b.ConfidenceScore, 'f', 2, 64),
		timeCell(b.ScrapedAt),
		distanceCell(b.DistanceKM),
	}
}

func jsonCell(v any, empty bool) string {
	if empty {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func floatCell(v float64, prec int) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func intCell(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func timeCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func distanceCell(d *float64) string {
	if d == nil {
		return ""
	}
	return strconv.FormatFloat(*d, 'f', 2, 64)
}
