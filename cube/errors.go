package cube

import "fmt"

// ErrorCode enumerates the header/WCS violations a FITS read can report,
// mirroring the error code of the original cube reader: NONE plus sixteen
// failure codes.
type ErrorCode int

const (
	ErrNone ErrorCode = iota
	ErrRead
	ErrMem
	ErrNoNaxis
	ErrWrongNaxis
	ErrNoNaxisI
	ErrWrongNaxisI
	ErrNoCrpixI
	ErrNoCrvalI
	ErrNoCdeltI
	ErrNoCtypeI
	ErrWrongCtypeI
	ErrNoEpoch
	ErrWrongEpoch
	ErrWrongBunit
	ErrWrongBitpix
	ErrWCS
)

func (e ErrorCode) String() string {
	switch e {
	case ErrNone:
		return "NONE"
	case ErrRead:
		return "READ"
	case ErrMem:
		return "MEM"
	case ErrNoNaxis:
		return "NONAXIS"
	case ErrWrongNaxis:
		return "WRONGNAXIS"
	case ErrNoNaxisI:
		return "NONAXISI"
	case ErrWrongNaxisI:
		return "WRONGNAXISI"
	case ErrNoCrpixI:
		return "NOCRPIXI"
	case ErrNoCrvalI:
		return "NOCRVALI"
	case ErrNoCdeltI:
		return "NOCDELTI"
	case ErrNoCtypeI:
		return "NOCTYPEI"
	case ErrWrongCtypeI:
		return "WRONGCTYPEI"
	case ErrNoEpoch:
		return "NOEPOCH"
	case ErrWrongEpoch:
		return "WRONGEPOCH"
	case ErrWrongBunit:
		return "WRONGBUNIT"
	case ErrWrongBitpix:
		return "WRONGBITPIX"
	case ErrWCS:
		return "WCS"
	default:
		return "UNKNOWN"
	}
}

// FITSError is a tagged header/WCS validation failure. No partial cube is
// ever returned alongside one.
type FITSError struct {
	Code    ErrorCode
	Message string
}

func (e *FITSError) Error() string {
	return fmt.Sprintf("cube: %s: %s", e.Code, e.Message)
}

func newFITSError(code ErrorCode, format string, args ...interface{}) error {
	return &FITSError{Code: code, Message: fmt.Sprintf(format, args...)}
}
