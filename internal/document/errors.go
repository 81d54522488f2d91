package document

import "errors"

// ErrUnsupportedType marks files whose extension has no registered loader.
var ErrUnsupportedType = errors.New("unsupported file type")
