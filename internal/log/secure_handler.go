package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// credentialHeaders are the request headers a site or proxy configuration
// can carry. Attributes named after them are masked whole.
var credentialHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"sid":                 true,
}

// secretKeyParts mask any attribute whose key contains one of them, e.g.
// "proxy_password", "api_token" or "PHPSESSID". A bare "key" is left out
// because it would also hit names like "cache_key".
var secretKeyParts = []string{
	"password", "passwd", "secret", "token", "auth", "credential",
	"api_key", "apikey", "api-key", "sessid", "sessionid", "session_id",
}

// secretValuePatterns mask string values whatever their key, for tokens
// that end up in error messages or header dumps.
var secretValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),
}

// userinfoPattern finds "scheme://user:pass@" prefixes inside free text,
// such as error messages produced by the proxy dialer.
var userinfoPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)([^/\s:@]+):([^/\s@]+)@`)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler to sanitize sensitive information.
// It intercepts log records and sanitizes attribute values that match
// sensitive key names or value patterns before passing them to the
// underlying handler. Passwords embedded in URLs (proxy endpoints in
// particular) are masked in place so the rest of the URL stays readable.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because every package in this module takes a plain *slog.Logger, and
// the wrapper works with any underlying handler (text, JSON, etc.).
type SecureHandler struct {
	// handler is the underlying slog handler that receives sanitized records.
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, the returned SecureHandler will use slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, RedactURLCredentials(r.Message), r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are sanitized before being added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	if isSecretKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		if isSecretValue(strVal) {
			return slog.String(a.Key, MaskValue)
		}
		if redacted := RedactURLCredentials(strVal); redacted != strVal {
			return slog.String(a.Key, redacted)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case *url.URL:
			if v != nil {
				return slog.String(a.Key, v.Redacted())
			}
		case error:
			if v != nil {
				return slog.String(a.Key, RedactURLCredentials(v.Error()))
			}
		case []string:
			out := make([]string, len(v))
			for i, s := range v {
				out[i] = RedactURLCredentials(s)
			}
			return slog.Any(a.Key, out)
		}
	}

	return a
}

// RedactURLCredentials replaces the password component of every URL found in
// s with "xxxxx", mirroring url.URL.Redacted. Strings without credentials are
// returned unchanged.
func RedactURLCredentials(s string) string {
	if !strings.Contains(s, "@") || !strings.Contains(s, "://") {
		return s
	}
	return userinfoPattern.ReplaceAllString(s, "${1}${2}:xxxxx@")
}

// isSecretKey reports whether an attribute key names a credential.
func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	if credentialHeaders[key] {
		return true
	}
	for _, part := range secretKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

// isSecretValue reports whether a string value looks like a token.
func isSecretValue(value string) bool {
	for _, re := range secretValuePatterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// NewSecureLogger creates a new slog.Logger with secure handling.
// The logger sanitizes sensitive information in all log output.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a new slog.Logger with secure handling
// that outputs JSON format. Useful for structured log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

// Log output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned by New for a format other than text or json.
var ErrUnknownFormat = errors.New("unknown log format: use text or json")

// New returns the secure logger for format. An empty format means text.
func New(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return NewSecureLogger(w, verbose), nil
	case FormatJSON:
		return NewSecureJSONLogger(w, verbose), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
