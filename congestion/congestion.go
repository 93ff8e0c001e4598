// Package congestion defines C7, the congestion-control collaborator the
// RUDP receiver consults for pacing decisions, plus a concrete
// implementation with a fixed window size and an RTT-driven ACK timeout.
// The window size is not grown or shrunk in response to RTT or loss.
//
// Grounded on the KCP ARQ implementation's window/RTO constants
// (IKCP_WND_RCV, IKCP_RTO_MIN/DEF/MAX, update_ack's RFC 6298 smoothing)
// and its cwnd growth in flush/Update, adapted from KCP's send-side
// congestion window into the specification's receive-side collaborator
// surface.
package congestion

import "time"

// Controller is the congestion-control collaborator (C7, consumed).
type Controller interface {
	WindowSize() int
	AckInterval() int
	AckDelay() time.Duration
	AckTimeout() time.Duration
	OnDataPacketReceived(seq uint32)
	OnAckOfAck(rttMicros uint32)
}

// Defaults mirror the RUDP wire-level constants §6 recommends: a window
// sized for a handful of in-flight packets, a conservative starting RTO,
// and an ACK cadence that favors keeping a live round-trip estimate over
// bandwidth thriftiness.
const (
	DefaultWindowSize = 32

	DefaultAckInterval = 8

	DefaultAckDelay = 40 * time.Millisecond

	minRTO = 100 * time.Millisecond
	maxRTO = 60 * time.Second
	defRTO = 200 * time.Millisecond
)

// Standard is the default Controller: a fixed-interval ACK cadence whose
// timeout tracks a smoothed RTT estimate using the same RFC 6298-derived
// smoothing KCP uses (update_ack), so a congested or distant peer widens
// its own ACK timeout automatically rather than firing early retransmits.
type Standard struct {
	windowSize  int
	ackInterval int
	ackDelay    time.Duration

	srtt    time.Duration
	rttvar  time.Duration
	rto     time.Duration
	hasRTT  bool
	lastAck uint32
}

// NewStandard creates a Controller with the recommended defaults.
func NewStandard() *Standard {
	return &Standard{
		windowSize:  DefaultWindowSize,
		ackInterval: DefaultAckInterval,
		ackDelay:    DefaultAckDelay,
		rto:         defRTO,
	}
}

func (c *Standard) WindowSize() int           { return c.windowSize }
func (c *Standard) AckInterval() int          { return c.ackInterval }
func (c *Standard) AckDelay() time.Duration   { return c.ackDelay }
func (c *Standard) AckTimeout() time.Duration { return c.rto }

// OnDataPacketReceived only records seq as the last received sequence
// number; it does not change the window size or the ACK timing. Window
// growth happens per-arrival already via the receiver's own window, and
// this implementation does not shrink its window on loss signals the way a
// sender-side congestion window would.
func (c *Standard) OnDataPacketReceived(seq uint32) { c.lastAck = seq }

// OnAckOfAck folds a fresh RTT sample into the smoothed estimate and
// re-derives the ACK timeout from it, exactly as KCP's update_ack does
// for its retransmission timeout.
func (c *Standard) OnAckOfAck(rttMicros uint32) {
	sample := time.Duration(rttMicros) * time.Microsecond

	if !c.hasRTT {
		c.srtt = sample
		c.rttvar = sample / 2
		c.hasRTT = true
	} else {
		delta := sample - c.srtt
		if delta < 0 {
			delta = -delta
		}
		c.srtt += (sample - c.srtt) / 8
		c.rttvar += (delta - c.rttvar) / 4
	}

	rto := c.srtt + 4*c.rttvar
	if rto < c.ackDelay {
		rto = c.ackDelay
	}
	switch {
	case rto < minRTO:
		rto = minRTO
	case rto > maxRTO:
		rto = maxRTO
	}
	c.rto = rto
}
