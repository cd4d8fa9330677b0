package device

// Addr identifies one endpoint on the MIDI transport. It is opaque to the
// session: the session only compares it and hands it back to the
// transport.
type Addr struct {
	Client int
	Port   int
}

// Frame is one bounded-size transport event. A complete protocol message
// may span several frames.
type Frame struct {
	Source Addr
	Dest   Addr
	Data   []byte
}

// Transport abstracts the raw MIDI capability the session drives. The
// session depends on frames and endpoints only; enumeration and event
// delivery belong to the implementation.
type Transport interface {
	// Self returns the local endpoint frames are sent from.
	Self() Addr
	// Find resolves the endpoint of the transport-visible client with
	// the given name.
	Find(name string) (Addr, error)
	// Subscribe binds a unidirectional stream from sender to dest.
	Subscribe(sender, dest Addr) error
	// SendFrame emits one frame.
	SendFrame(f Frame) error
	// ReceiveFrame blocks for the next inbound frame, related or not.
	ReceiveFrame() (Frame, error)
	// Flush synchronizes the output queue after a multi-frame send.
	Flush() error
	// Close releases the transport.
	Close() error
}
