package pack

import "fmt"

// PackNotFoundError reports a missing pack directory or definition file.
type PackNotFoundError struct {
	Path string
	Err  error
}

func (e *PackNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("smiley pack not found at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("smiley pack not found at %s", e.Path)
}

func (e *PackNotFoundError) Unwrap() error {
	return e.Err
}

// PackFormatError reports a definition that exists but does not describe
// valid trigger/icon pairs.
type PackFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PackFormatError) Error() string {
	msg := fmt.Sprintf("invalid smiley pack %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PackFormatError) Unwrap() error {
	return e.Err
}
