package discovery

import "errors"

var (
	// ErrUnsupportedFormat is returned for lead files whose extension is
	// not .csv, .yaml, .yml or .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported lead file format")

	// ErrMissingNameColumn is returned when a tabular lead file has no
	// column that maps to the business name.
	ErrMissingNameColumn = errors.New("lead file has no name column")
)
