package types

import "errors"

// Error classes. Wrap with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrConfig    = errors.New("config error")
	ErrTransport = errors.New("transport error")
	ErrLoad      = errors.New("load error")
	ErrExport    = errors.New("export error")
)
