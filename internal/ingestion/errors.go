package ingestion

import "fmt"

// LoadError reports that the catalog could not be fetched or parsed. The
// dashboard does not start without a catalog.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("error loading catalog %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
