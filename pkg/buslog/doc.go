// Package buslog records bus traffic to disk for later analysis.
//
// Each packet a broker handles becomes one Event, CBOR-encoded and
// appended to a log file. The minsky-log command reads these files
// back; Filter narrows what Read returns.
//
// Recording is off the hot path on a best-effort basis: encoding
// errors are dropped rather than disrupting the broker.
package buslog
