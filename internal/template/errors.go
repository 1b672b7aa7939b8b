package template

import "fmt"

// PayloadTooLargeError rejects a template upload before it is parsed.
type PayloadTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *PayloadTooLargeError) Error() string {
	if e.Size < 0 {
		return fmt.Sprintf("template exceeds the %d byte limit", e.Limit)
	}
	return fmt.Sprintf("template is %d bytes; the limit is %d bytes", e.Size, e.Limit)
}

// LoadError reports a template that could not be read as a presentation.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "invalid template: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
