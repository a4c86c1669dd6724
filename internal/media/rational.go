package media

// Rational represents a rational number (numerator/denominator).
// Used for time bases and frame rates.
type Rational struct {
	Num int // Numerator
	Den int // Denominator
}

// NewRational creates a new rational number
func NewRational(num, den int) Rational {
	if den == 0 {
		den = 1
	}
	return Rational{Num: num, Den: den}
}

// Float64 returns the floating point representation
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Invert returns the inverted rational (den/num)
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

// IsValid reports whether the rational can be used as a time base.
func (r Rational) IsValid() bool {
	return r.Num != 0 && r.Den != 0
}

// Seconds converts a timestamp expressed in this time base to seconds.
func (r Rational) Seconds(ts int64) float64 {
	return float64(ts) * r.Float64()
}

// Common time bases and frame rates.
var (
	TimeBase90kHz = Rational{Num: 1, Den: 90000} // Standard video
	TimeBase1kHz  = Rational{Num: 1, Den: 1000}  // Millisecond precision

	FrameRate24 = Rational{Num: 24, Den: 1}
	FrameRate25 = Rational{Num: 25, Den: 1} // PAL
	FrameRate30 = Rational{Num: 30, Den: 1}
	FrameRate50 = Rational{Num: 50, Den: 1}
	FrameRate60 = Rational{Num: 60, Den: 1}

	// NTSC frame rates
	FrameRate23_976 = Rational{Num: 24000, Den: 1001}
	FrameRate29_97  = Rational{Num: 30000, Den: 1001}
	FrameRate59_94  = Rational{Num: 60000, Den: 1001}
)
