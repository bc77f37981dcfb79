package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nao1215/contactscan/internal/model"
)

// timestampFormats lists formats used to parse timestamps read back from SQLite.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SaveBusinesses appends records to the businesses table in one transaction
// and returns the number of rows written.
func (sdb *SessionDB) SaveBusinesses(ctx context.Context, records []model.Business) (n int, err error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO businesses (
		name, address, phone, website, emails, social_media,
		rating, review_count, business_hours, price_range, category,
		coordinates, status, confidence_score, scraped_at, distance_km
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range records {
		emails, mErr := json.Marshal(nonNilEmails(b.Emails))
		if mErr != nil {
			return 0, fmt.Errorf("failed to encode emails: %w", mErr)
		}
		social, mErr := json.Marshal(nonNilSocial(b.SocialMedia))
		if mErr != nil {
			return 0, fmt.Errorf("failed to encode social media: %w", mErr)
		}

		var coords sql.NullString
		if b.Coordinates != nil {
			raw, mErr := json.Marshal(b.Coordinates)
			if mErr != nil {
				return 0, fmt.Errorf("failed to encode coordinates: %w", mErr)
			}
			coords = sql.NullString{String: string(raw), Valid: true}
		}

		var distance sql.NullFloat64
		if b.DistanceKM != nil {
			distance = sql.NullFloat64{Float64: *b.DistanceKM, Valid: true}
		}

		var scrapedAt string
		if !b.ScrapedAt.IsZero() {
			scrapedAt = b.ScrapedAt.UTC().Format(time.RFC3339)
		}

		_, err = stmt.ExecContext(ctx,
			b.Name, b.Address, b.Phone, b.Website, string(emails), string(social),
			b.Rating, b.ReviewCount, b.BusinessHours, b.PriceRange, b.Category,
			coords, string(b.Status), b.ConfidenceScore, scrapedAt, distance,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert business %q: %w", b.Name, err)
		}
		n++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit businesses: %w", err)
	}
	return n, nil
}

// ListBusinesses returns every exported record in insertion order.
func (sdb *SessionDB) ListBusinesses(ctx context.Context) ([]model.Business, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT name, address, phone, website, emails, social_media,
		rating, review_count, business_hours, price_range, category,
		coordinates, status, confidence_score, scraped_at, distance_km
	FROM businesses ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer rows.Close()

	out := make([]model.Business, 0)
	for rows.Next() {
		var (
			b                      model.Business
			emails, social, status string
			scrapedAt              string
			coords                 sql.NullString
			distance               sql.NullFloat64
		)
		if err := rows.Scan(
			&b.Name, &b.Address, &b.Phone, &b.Website, &emails, &social,
			&b.Rating, &b.ReviewCount, &b.BusinessHours, &b.PriceRange, &b.Category,
			&coords, &status, &b.ConfidenceScore, &scrapedAt, &distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}

		if err := json.Unmarshal([]byte(emails), &b.Emails); err != nil {
			return nil, fmt.Errorf("failed to decode emails: %w", err)
		}
		if err := json.Unmarshal([]byte(social), &b.SocialMedia); err != nil {
			return nil, fmt.Errorf("failed to decode social media: %w", err)
		}
		if coords.Valid {
			var c model.Coordinates
			if err := json.Unmarshal([]byte(coords.String), &c); err != nil {
				return nil, fmt.Errorf("failed to decode coordinates: %w", err)
			}
			b.Coordinates = &c
		}
		if distance.Valid {
			d := distance.Float64
			b.DistanceKM = &d
		}
		b.Status = model.Status(status)
		b.ScrapedAt = parseTimestamp(scrapedAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func nonNilEmails(e []string) []string {
	if e == nil {
		return []string{}
	}
	return e
}

func nonNilSocial(m map[model.SocialPlatform]string) map[model.SocialPlatform]string {
	if m == nil {
		return map[model.SocialPlatform]string{}
	}
	return m
}
