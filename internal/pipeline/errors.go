package pipeline

import "errors"

// ErrSkipRemaining is returned by a step that has settled the record's
// status on its own, e.g. a listing without a website. Execute stops
// running further steps and reports success.
var ErrSkipRemaining = errors.New("skip remaining steps")
