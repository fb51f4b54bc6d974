package telemetry

import "context"

// FakeTransport records sent records for test assertions.
type FakeTransport struct {
	// Records contains every record passed to Send.
	Records []Record

	// SendError, if set, will be returned by Send (after recording).
	SendError error

	// Block, if set, makes Send wait for ctx to be done and return its error.
	Block bool
}

// NewFakeTransport creates a FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Send records the attempt.
func (f *FakeTransport) Send(ctx context.Context, rec Record) error {
	f.Records = append(f.Records, rec)
	if f.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.SendError
}

// Attempts returns the number of Send calls.
func (f *FakeTransport) Attempts() int {
	return len(f.Records)
}
