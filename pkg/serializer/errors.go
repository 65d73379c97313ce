package serializer

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPayload         = errors.New("malformed workflow payload")
	ErrSchemaVersionUnsupported = errors.New("unsupported workflow schema version")
	ErrIntegrityViolation       = errors.New("workflow integrity violation")
)

const (
	CodeMalformedPayload         = "MALFORMED_PAYLOAD"
	CodeSchemaVersionUnsupported = "SCHEMA_VERSION_UNSUPPORTED"
	CodeIntegrityViolation       = "INTEGRITY_VIOLATION"
)

// DecodeError describes why a payload was rejected. Cause, when set, is the
// lower level error (JSON syntax, structural error) that triggered it.
type DecodeError struct {
	Code   string
	Detail string
	Err    error
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode workflow: %v: %s", e.Err, e.Detail)
}

func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}

	return []error{e.Err, e.Cause}
}

// IsSerializationError checks if an error was raised while decoding a payload.
func IsSerializationError(err error) bool {
	var decodeErr *DecodeError

	return errors.As(err, &decodeErr)
}

func malformed(detail string, cause error) *DecodeError {
	return &DecodeError{Code: CodeMalformedPayload, Detail: detail, Err: ErrMalformedPayload, Cause: cause}
}
