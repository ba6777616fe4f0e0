package chat

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SSEEncoder serializes envelopes onto a streaming transport. Each record
// is a type line, a data line holding the single-line JSON payload, and a
// blank line, in that exact order. Consumers rely on the blank-line
// framing to split the byte stream back into records.
type SSEEncoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSEEncoder wraps a writer. When the writer is an http.ResponseWriter
// that supports flushing, every record is flushed so chunks reach the
// client as they are produced.
func NewSSEEncoder(w io.Writer) *SSEEncoder {
	enc := &SSEEncoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

// WriteEnvelope writes one wire record.
func (enc *SSEEncoder) WriteEnvelope(e Envelope) error {
	payload, err := e.PayloadJSON()
	if err != nil {
		return errors.Wrap(err, "encode sse payload")
	}
	if _, err := fmt.Fprintf(enc.w, "event: %s\ndata: %s\n\n", e.Type, payload); err != nil {
		return errors.Wrap(err, "write sse record")
	}
	if enc.flusher != nil {
		enc.flusher.Flush()
	}
	return nil
}

// EncodeStream drains the bridge onto the encoder until the terminal
// envelope. It synthesizes the stream_start record first, exactly once,
// before any sink-origin envelope; the engine never emits stream_start
// itself. A write failure (client gone) aborts the drain; the caller's
// deferred stop/unregister still runs.
func (enc *SSEEncoder) EncodeStream(ctx context.Context, bridge *SessionBridge) error {
	if err := enc.WriteEnvelope(NewStreamStart(bridge.SessionID())); err != nil {
		return err
	}
	for {
		e, err := bridge.Next(ctx)
		if err != nil {
			return err
		}
		if err := enc.WriteEnvelope(e); err != nil {
			log.Debug().Err(err).
				Str("component", "chat").
				Str("session_id", bridge.SessionID()).
				Msg("sse write failed, client likely disconnected")
			return err
		}
		if e.IsTerminal() {
			return nil
		}
	}
}
