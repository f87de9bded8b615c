package protocol

// Kind discriminates the message variants carried inside frames.
type Kind uint16

const (
	KindText     Kind = 1
	KindCommand  Kind = 2
	KindResponse Kind = 3
)

// Status is the outcome of exactly one handled request.
type Status uint8

const (
	StatusOk    Status = 0
	StatusError Status = 1
)

// Message is one client request: either a plain chat line or a command.
// Payload is non-nil only for commands that carry binary content.
type Message struct {
	ID      string
	Kind    Kind
	Body    string // chat text, KindText only
	Name    string // command keyword without prefix, KindCommand only
	Args    string
	Payload []byte
}

// Response answers one Message. Ref echoes the request's ID. Code is a
// stable machine-readable reason, set on errors only.
type Response struct {
	Ref    string
	Status Status
	Code   string
	Body   string
}

// IsError reports whether the response carries an error status.
func (r Response) IsError() bool {
	return r.Status == StatusError
}
