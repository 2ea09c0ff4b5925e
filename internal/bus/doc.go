// Package bus provides the broadcast transport workers coordinate over.
//
// The bus is deliberately dumb: it is an origin-wide fan-out with no
// addressing. Every subscriber - including the publisher's own
// subscription - receives every published frame, and there is no ordering
// guarantee between frames from distinct publishers. Receivers filter by
// local relevance (leadership flag, pending-table membership) rather than
// relying on the transport for selective routing.
//
// Frames are raw bytes; decoding happens at the receiving edge so that
// malformed payloads are handled where the protocol says they must be
// dropped.
package bus
