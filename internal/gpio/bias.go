package gpio

// Bias is the pull applied to an output line when it is released.
type Bias int

const (
	BiasPullDown Bias = iota
	BiasPullUp
)

// ReleaseBias returns the pull that keeps a released line at its off level,
// so an active-low relay whose off level is HIGH is pulled up.
func ReleaseBias(offLevel bool) Bias {
	if offLevel {
		return BiasPullUp
	}
	return BiasPullDown
}

func (b Bias) String() string {
	if b == BiasPullUp {
		return "pull-up"
	}
	return "pull-down"
}
