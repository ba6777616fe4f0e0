// Package chat implements the streaming core of the assistant backend.
//
// Ownership model:
//   - The HTTP layer owns session ids and lifecycle: it creates a
//     SessionBridge, registers it in the StreamRegistry, starts the engine,
//     and guarantees Stop/Unregister run exactly once per generation.
//   - The engine only ever appends envelopes to the bridge sink and
//     observes the cancellation signal between chunks.
//   - A consumer drains the sink: SSEEncoder for incremental delivery,
//     Aggregate for one folded response.
//
// Envelopes within one bridge are delivered FIFO to a single reader;
// exactly one terminal envelope (stream_end or error) ends a generation.
package chat
