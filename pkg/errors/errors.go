package errors

const (
	CodeSpecNotFound = "SPEC_NOT_FOUND"
)

// CodedError carries a stable machine-readable code so callers can branch
// without string matching.
type CodedError interface {
	Code() string
}

type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string {
	return e.msg
}

func (e *codedError) Code() string {
	return e.code
}

// SpecNotFound means no kiln.yaml was found where one was expected.
func SpecNotFound(msg string) error {
	return &codedError{
		code: CodeSpecNotFound,
		msg:  msg,
	}
}

func IsSpecNotFound(err error) bool {
	return Code(err) == CodeSpecNotFound
}

// Code returns the error code, or the empty string.
func Code(err error) string {
	if cerr, ok := err.(CodedError); ok {
		return cerr.Code()
	}
	return ""
}
