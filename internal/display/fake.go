package display

// Frame is one recorded Present call.
type Frame struct {
	Line1 string
	Line2 string
}

// Mark is one recorded Mark call.
type Mark struct {
	Col int
	Ch  byte
}

// Fake records display calls for test assertions.
type Fake struct {
	Frames []Frame
	Marks  []Mark

	// PresentError, if set, will be returned by Present.
	PresentError error
}

// NewFake creates a Fake display.
func NewFake() *Fake {
	return &Fake{}
}

// Present records the frame.
func (f *Fake) Present(line1, line2 string) error {
	if f.PresentError != nil {
		return f.PresentError
	}
	f.Frames = append(f.Frames, Frame{Line1: line1, Line2: line2})
	return nil
}

// Mark records the glyph.
func (f *Fake) Mark(col int, ch byte) error {
	f.Marks = append(f.Marks, Mark{Col: col, Ch: ch})
	return nil
}

// Last returns the most recent frame, or the zero Frame.
func (f *Fake) Last() Frame {
	if len(f.Frames) == 0 {
		return Frame{}
	}
	return f.Frames[len(f.Frames)-1]
}
