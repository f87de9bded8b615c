// Package protocol owns the chatdrop wire contract: the Message and Response
// shapes and their structural encoding as TLV fields inside length-delimited
// frames.
//
// Ownership boundary:
// - frame header and framing primitives live in protocol/frame
// - field encoding and message/response codecs live here
package protocol
