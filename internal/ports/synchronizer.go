package ports

// DataSynchronizer ships change signals to other cooperating worker
// processes. Fire-and-forget: no acknowledgment, retry or ordering is
// surfaced here; that is the transport's responsibility.
type DataSynchronizer interface {
	Send(key string, payload []byte) error
}

// Converter encodes a signal struct into the bytes handed to the
// synchronizer. Encoding must be deterministic for a given value.
type Converter interface {
	Encode(v interface{}) ([]byte, error)
}
