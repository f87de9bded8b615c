package chat

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"chatdrop/internal/protocol"
)

// handlers owns the side effects behind the registered commands.
type handlers struct {
	store *Store
	log   zerolog.Logger
}

func (h *handlers) file(args string, payload []byte) protocol.Response {
	if payload == nil {
		return errResponse("", CodeMissingPayload, "file command requires file content")
	}
	path, err := h.store.SaveFile(args, payload)
	if err != nil {
		h.log.Error().Str("name", args).Err(err).Msg("file store failed")
		return errResponse("", storeErrorCode(err), fmt.Sprintf("store failed: %s", err))
	}
	h.log.Info().Str("path", path).Int("bytes", len(payload)).Msg("file stored")
	return okResponse("", fmt.Sprintf("stored %d bytes in %s", len(payload), path))
}

func (h *handlers) image(args string, payload []byte) protocol.Response {
	if payload == nil {
		return errResponse("", CodeMissingPayload, "image command requires image content")
	}
	path, converted, err := h.store.SaveImage(args, payload)
	if err != nil {
		h.log.Error().Str("name", args).Err(err).Msg("image store failed")
		return errResponse("", storeErrorCode(err), fmt.Sprintf("store failed: %s", err))
	}
	h.log.Info().Str("path", path).Bool("converted", converted).Msg("image stored")
	if converted {
		return okResponse("", fmt.Sprintf("received %d bytes, converted to png in %s", len(payload), path))
	}
	return okResponse("", fmt.Sprintf("stored %d bytes in %s", len(payload), path))
}

func (h *handlers) info(args string, _ []byte) protocol.Response {
	h.log.Info().Str("note", args).Msg("info note received")
	return okResponse("", fmt.Sprintf("info received: %s", args))
}

func (h *handlers) quit(_ string, _ []byte) protocol.Response {
	return okResponse("", "closing connection, goodbye")
}

func storeErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrBadName):
		return CodeBadFilename
	case errors.Is(err, ErrImageDecode):
		return CodeImageDecode
	default:
		return CodeStoreFailed
	}
}
