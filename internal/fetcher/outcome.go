package fetcher

// Outcome is the result of one Fetch call. It is either a success carrying
// the decoded page text, or a failure carrying the last error; never both.
//
// Design decision: Fetch reports failure through Outcome instead of an error
// return because exhausting retries is an expected, recorded result for the
// crawler (the URL goes to the failed set), not an exceptional condition.
type Outcome struct {
	// OK is true when an attempt returned HTTP 200.
	OK bool

	// Body is the response body decoded to UTF-8. Empty on failure.
	Body string

	// FinalURL is the URL after redirects. Empty on failure.
	FinalURL string

	// ContentType is the response Content-Type header of the successful attempt.
	ContentType string

	// StatusCode is the status of the last attempt, or 0 after a transport error.
	StatusCode int

	// Attempts is the number of HTTP attempts made.
	Attempts int

	// Err describes why the last attempt failed. Nil on success.
	Err error
}
