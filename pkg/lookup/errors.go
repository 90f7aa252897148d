package lookup

import "fmt"

// ExtractorError wraps a failure raised by a registered extractor.
type ExtractorError struct {
	Name string
	Err  error
}

func (e *ExtractorError) Error() string {
	return fmt.Sprintf("lookup: extractor %q: %v", e.Name, e.Err)
}

func (e *ExtractorError) Unwrap() error {
	return e.Err
}

// ConsistencyError reports a registry that claimed a name and then failed to
// produce an extractor for it. It is never downgraded to default lookup.
type ConsistencyError struct {
	Name string
	Err  error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("lookup: registry listed %q but had no extractor at invocation: %v", e.Name, e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}
