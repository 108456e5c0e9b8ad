// Package bus implements the publish/subscribe message bus the MinskyBot and
// its controller communicate over.
//
// The bus is deliberately small: a Broker fans PUBLISH packets out to every
// connection subscribed to the topic, and a Client maintains one connection
// with per-topic handlers. Packets are CBOR-encoded (pkg/wire) inside
// length-prefixed frames.
//
// # Single-threaded integration
//
// The bot's run-time loop is cooperative and non-preemptive, so the Client
// never invokes handlers from its reader goroutine. Incoming publishes are
// queued; Poll drains the queue and runs handlers on the caller's execution
// context, the way the bot's loop hook expects.
//
// # Delivery semantics
//
// At-most-once: a publish to a topic with no subscribers is dropped, and a
// slow consumer whose queue overflows loses the oldest messages first. There
// is no persistence and no retained-message support.
package bus
