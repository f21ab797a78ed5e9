package engine

// Emitter is the outbound half of the duplex channel as seen by the
// engine. The driver, not the engine, owns the actual socket write
// (§9 "the driver, not the task, writes to the duplex channel"); the
// engine only ever pushes through this narrow interface, in enqueue
// order.
type Emitter interface {
	SendJSON(msg any) error
	SendBinary(frame []byte) error
}
