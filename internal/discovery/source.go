package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
	"gopkg.in/yaml.v3"
)

// Source produces business listings to enrich.
type Source interface {
	Discover(ctx context.Context) ([]model.Business, error)
}

// FileSource reads listings from a lead file. The format is chosen by
// extension: .csv, .yaml/.yml or .xlsx.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// Option configures a FileSource.
type Option func(*FileSource)

// WithLogger sets a custom logger for the source.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileSource) {
		s.logger = logger
	}
}

// NewFileSource creates a source reading path.
func NewFileSource(path string, opts ...Option) *FileSource {
	s := &FileSource{path: path}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Path returns the lead file path.
func (s *FileSource) Path() string {
	return s.path
}

// Discover reads the lead file and returns its listings in file order.
// Rows without a name are dropped, as are repeated name and website pairs.
func (s *FileSource) Discover(ctx context.Context) ([]model.Business, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		records []model.Business
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(s.path)); ext {
	case ".csv":
		records, err = s.readCSV()
	case ".yaml", ".yml":
		records, err = s.readYAML()
	case ".xlsx":
		records, err = s.readXLSX()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read leads from %s: %w", s.path, err)
	}

	out := s.clean(records)
	s.logger.Info("leads loaded",
		"path", s.path,
		"records", len(out),
		"dropped", len(records)-len(out),
	)
	return out, nil
}

// readYAML accepts either a top-level list or a mapping with a
// "businesses" list.
func (s *FileSource) readYAML() ([]model.Business, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // User-provided lead file path is intentional
	if err != nil {
		return nil, err
	}

	var list []model.Business
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Businesses []model.Business `yaml:"businesses"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Businesses, nil
}

// clean trims every record, drops nameless ones and removes duplicates.
func (s *FileSource) clean(records []model.Business) []model.Business {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.Business, 0, len(records))

	for i, r := range records {
		r.Name = strings.TrimSpace(r.Name)
		r.Address = strings.TrimSpace(r.Address)
		r.Phone = strings.TrimSpace(r.Phone)
		r.Website = strings.TrimSpace(r.Website)
		r.Category = strings.TrimSpace(r.Category)

		if r.Name == "" {
			s.logger.Debug("skipping lead without name", "row", i+1)
			continue
		}

		key := strings.ToLower(r.Name) + "|" + strings.ToLower(strings.TrimSuffix(r.Website, "/"))
		if _, dup := seen[key]; dup {
			s.logger.Debug("skipping duplicate lead", "name", r.Name)
			continue
		}
		seen[key] = struct{}{}

		if r.Emails == nil {
			r.Emails = []string{}
		}
		if r.SocialMedia == nil {
			r.SocialMedia = make(map[model.SocialPlatform]string)
		}
		out = append(out, r)
	}
	return out
}
