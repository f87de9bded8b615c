package client

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"chatdrop/internal/chat"
	"chatdrop/internal/protocol"
)

// CommandPrefix starts every command line; lines without it are chat text.
// The rule matches the server's parsing rule exactly.
const CommandPrefix = "."

var (
	ErrMissingArgument = errors.New("client: missing command argument")
	ErrLocalRead       = errors.New("client: local file read failed")
)

// Input is one classified line of user input.
type Input struct {
	IsCommand bool
	Name      string
	Args      string
	Text      string
}

// ParseLine classifies one input line. A leading prefix character always
// yields a command, everything else is chat text.
func ParseLine(line string) Input {
	if !strings.HasPrefix(line, CommandPrefix) {
		return Input{Text: line}
	}
	rest := strings.TrimPrefix(line, CommandPrefix)
	name, args, _ := strings.Cut(rest, " ")
	return Input{IsCommand: true, Name: name, Args: strings.TrimSpace(args)}
}

// BuildMessage turns classified input into a wire message. For commands that
// carry file content the named local file is read here first; a read failure
// is reported to the caller and no message is produced.
func BuildMessage(in Input) (protocol.Message, error) {
	id := uuid.NewString()
	if !in.IsCommand {
		return protocol.Message{ID: id, Kind: protocol.KindText, Body: in.Text}, nil
	}

	msg := protocol.Message{ID: id, Kind: protocol.KindCommand, Name: in.Name, Args: in.Args}
	if !commandNeedsFile(in.Name) {
		return msg, nil
	}

	if in.Args == "" {
		return protocol.Message{}, fmt.Errorf("%w: .%s needs a file path", ErrMissingArgument, in.Name)
	}
	data, err := os.ReadFile(in.Args)
	if err != nil {
		return protocol.Message{}, fmt.Errorf("%w: %s", ErrLocalRead, err)
	}
	msg.Payload = data
	return msg, nil
}

func commandNeedsFile(name string) bool {
	return name == chat.KeywordFile || name == chat.KeywordImage
}
