// Package discovery announces and finds the message broker on the
// local network via mDNS.
//
// The broker runs an Advertiser so that robots and controllers can
// locate it without configuration. Clients use Lookup, which returns
// the first broker seen within the timeout.
package discovery
