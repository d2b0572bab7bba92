package bank

import "fmt"

// Kind groups load failures by how the caller should react.
type Kind int

const (
	KindFormat   Kind = iota + 1 // not JSON or not an array
	KindSchema                   // an entry is malformed
	KindCapacity                 // rejected before parsing
	KindIO                       // body could not be read
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindSchema:
		return "schema"
	case KindCapacity:
		return "capacity"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

type Reason string

const (
	ReasonNotASequence Reason = "not_a_sequence"
	ReasonEmpty        Reason = "empty"
	ReasonMalformed    Reason = "malformed_json"
	ReasonNotARecord   Reason = "not_a_record"
	ReasonMissingField Reason = "missing_field"
	ReasonInvalidField Reason = "invalid_field"
	ReasonDuplicateID  Reason = "duplicate_id"
	ReasonTooLarge     Reason = "too_large"
	ReasonWrongType    Reason = "wrong_type"
	ReasonUnreadable   Reason = "unreadable"
)

// Error describes why a bank was rejected. Position is the 1-based entry
// number, 0 when the failure is not tied to an entry.
type Error struct {
	Kind     Kind
	Reason   Reason
	Field    string
	Position int
	ID       *int64
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	var where string
	switch {
	case e.ID != nil:
		where = fmt.Sprintf("question %d: ", *e.ID)
	case e.Position > 0:
		where = fmt.Sprintf("entry %d: ", e.Position)
	}
	msg := e.Detail
	if e.Field != "" {
		msg = fmt.Sprintf("%q %s", e.Field, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s%s: %v", where, msg, e.Err)
	}
	return where + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func schemaErr(reason Reason, pos int, id *int64, field, detail string) *Error {
	return &Error{Kind: KindSchema, Reason: reason, Position: pos, ID: id, Field: field, Detail: detail}
}
