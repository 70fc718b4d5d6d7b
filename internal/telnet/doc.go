// Package telnet holds the subset of the telnet wire protocol (RFC 854)
// that remconsd understands.
//
// The daemon never negotiates: every option request arriving from the
// peer is dropped from the data stream and logged, and no negotiation
// bytes are ever sent. Only the byte values needed to recognize and
// skip in-band commands live here; everything stateful (the filter that
// strips commands out of the receive stream) belongs to the session.
package telnet
