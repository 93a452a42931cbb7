// Package sip provides the SIP message model used by the user agent:
// requests, responses and the typed headers the agent reads or writes
// (CSeq, Expires, Contact, digest challenges and credentials).
//
// Wire-level parsing and rendering of messages is out of scope of the package,
// transports convert between the wire format and these types.
package sip
