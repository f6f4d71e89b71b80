package db

// Op constants name the failing operation for error context.
const (
	OpConnect     = "connect"
	OpPing        = "ping"
	OpFind        = "find"
	OpDecode      = "decode"
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpScan        = "SCAN"
	OpGet         = "JSON.GET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
