package errcode

// Code is a stable error identifier for the configuration subsystem.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	DuplicateKey        Code = "duplicate_key"
	RegistryFull        Code = "registry_full"
	NotFound            Code = "not_found"
	SizeMismatch        Code = "size_mismatch"
	StoreUnavailable    Code = "store_unavailable"
	StoreReadFailed     Code = "store_read_failed"
	StoreWriteFailed    Code = "store_write_failed"
	ProtocolError       Code = "protocol_error"
	OutOfMemory         Code = "out_of_memory"
	UnsupportedCommand  Code = "unsupported_command"
	TranslationError    Code = "translation_error"
	TransportSendFailed Code = "transport_send_failed"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is match a wrapped E against its bare Code.
func (e *E) Is(target error) bool {
	if c, ok := target.(Code); ok {
		return e.C == c
	}
	return false
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
