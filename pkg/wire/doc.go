// Package wire defines the messages exchanged over the MinskyBot bus.
//
// Two layers live here:
//
//   - The packet envelope: CBOR-encoded frames carrying connect/subscribe/
//     publish/keepalive traffic between bus clients and the broker. Packets
//     use integer map keys and deterministic encoding.
//
//   - The payload contracts: the pipe-delimited text payloads the bot and
//     controller exchange on the application topics (telemetry, speed sync,
//     time sync, commands). These layouts are fixed contracts of the
//     surrounding application.
//
// # Topics
//
// The application topics live under the minskybot/ prefix; see the Topic*
// constants. The bot subscribes to TIME_SYNC, SPEED_SYNC and COMMAND and
// publishes on REQUEST_SYNC and STATUS; the controller does the reverse.
package wire
