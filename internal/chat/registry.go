package chat

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"chatdrop/internal/protocol"
)

// Command keywords, matched exactly and case-sensitively.
const (
	KeywordFile  = "file"
	KeywordImage = "image"
	KeywordInfo  = "info"
	KeywordHelp  = "help"
	KeywordQuit  = "quit"
)

// Error codes carried in error responses.
const (
	CodeUnknownCommand = "unknown_command"
	CodeMissingPayload = "missing_payload"
	CodeBadFilename    = "bad_filename"
	CodeStoreFailed    = "store_failed"
	CodeImageDecode    = "image_decode"
	CodeBadFrame       = "bad_frame"
)

// Handler executes one command against its arguments and optional binary
// payload, producing exactly one response.
type Handler func(args string, payload []byte) protocol.Response

// Spec describes one registered command. Terminal commands instruct the
// connection handler to close after the response is written.
type Spec struct {
	Keyword     string
	Description string
	Terminal    bool
	Handler     Handler
}

// Registry maps command keywords to handlers. It is built once at startup
// and read-only thereafter, so concurrent dispatch needs no locking.
type Registry struct {
	specs    map[string]Spec
	order    []string
	helpText string
	log      zerolog.Logger
}

// NewRegistry builds the command table. The logger is the injected recording
// capability for handlers; store owns the filesystem side effects.
func NewRegistry(store *Store, logger zerolog.Logger) *Registry {
	r := &Registry{
		specs: make(map[string]Spec),
		log:   logger,
	}
	h := &handlers{store: store, log: logger}

	r.add(Spec{Keyword: KeywordFile, Description: "stores a file under the files directory", Handler: h.file})
	r.add(Spec{Keyword: KeywordImage, Description: "stores an image as PNG under the images directory", Handler: h.image})
	r.add(Spec{Keyword: KeywordInfo, Description: "logs an info note on the server", Handler: h.info})
	r.add(Spec{Keyword: KeywordHelp, Description: "lists all commands", Handler: r.help})
	r.add(Spec{Keyword: KeywordQuit, Description: "closes the connection", Terminal: true, Handler: h.quit})

	r.helpText = r.buildHelp()
	return r
}

func (r *Registry) add(spec Spec) {
	r.specs[spec.Keyword] = spec
	r.order = append(r.order, spec.Keyword)
}

// Keywords returns the registered command keywords in registration order.
func (r *Registry) Keywords() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Dispatch routes one decoded message to its handler and returns the
// response plus whether the connection should close after replying. Unknown
// commands yield an error response and leave the connection open.
func (r *Registry) Dispatch(msg protocol.Message) (protocol.Response, bool) {
	switch msg.Kind {
	case protocol.KindText:
		r.log.Info().Str("msg_id", msg.ID).Str("text", msg.Body).Msg("chat message received")
		return okResponse(msg.ID, fmt.Sprintf("message received: %s", msg.Body)), false
	case protocol.KindCommand:
		spec, ok := r.specs[msg.Name]
		if !ok {
			r.log.Warn().Str("msg_id", msg.ID).Str("command", msg.Name).Msg("unknown command")
			return errResponse(msg.ID, CodeUnknownCommand, fmt.Sprintf("unknown command: %s", msg.Name)), false
		}
		resp := spec.Handler(msg.Args, msg.Payload)
		resp.Ref = msg.ID
		return resp, spec.Terminal && !resp.IsError()
	default:
		return errResponse(msg.ID, CodeBadFrame, fmt.Sprintf("unhandled message kind %d", msg.Kind)), false
	}
}

// help returns a fixed list of all recognized commands, independent of any
// server state.
func (r *Registry) help(args string, _ []byte) protocol.Response {
	return okResponse("", r.helpText)
}

func (r *Registry) buildHelp() string {
	var b strings.Builder
	b.WriteString("available commands:\n")
	for _, keyword := range r.order {
		fmt.Fprintf(&b, "  .%-6s %s\n", keyword, r.specs[keyword].Description)
	}
	b.WriteString("lines without the . prefix are sent as chat messages")
	return b.String()
}

func okResponse(ref, body string) protocol.Response {
	return protocol.Response{Ref: ref, Status: protocol.StatusOk, Body: body}
}

func errResponse(ref, code, body string) protocol.Response {
	return protocol.Response{Ref: ref, Status: protocol.StatusError, Code: code, Body: body}
}
