package store

// Kind groups store errors by what the caller can do about them.
type Kind uint8

const (
	// KindNotFound means the record or index entry does not exist.
	KindNotFound Kind = iota + 1
	// KindConflict means an ID or unique index value is already taken.
	KindConflict
	// KindInvalid means the value can never be stored, e.g. an empty key.
	KindInvalid
)

// Error is a persistence error. Services translate it into a domain error;
// Message is never shown to clients as-is.
type Error struct {
	Kind    Kind
	Message string
	Err     error // narrower sentinel this one refines, if any
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Sentinel errors. The *Exists errors unwrap to ErrAlreadyExists, so both
// errors.Is(err, ErrEmailExists) and errors.Is(err, ErrAlreadyExists) hold.
var (
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "record not found"}
	ErrAlreadyExists = &Error{Kind: KindConflict, Message: "record already exists"}
	ErrInvalid       = &Error{Kind: KindInvalid, Message: "invalid record"}

	ErrEmailExists  = &Error{Kind: KindConflict, Message: "email already in use", Err: ErrAlreadyExists}
	ErrAuthorExists = &Error{Kind: KindConflict, Message: "author name already in use", Err: ErrAlreadyExists}
	ErrAuthorName   = &Error{Kind: KindInvalid, Message: "author name is empty", Err: ErrInvalid}
)
