package asset

// Asset identifies a fungible asset by its venue address.
// The empty string is the null reference; Native is a sentinel distinct
// from any real address, representing the chain's intrinsic coin.
type Asset string

const (
	// Zero is the null asset reference.
	Zero Asset = ""

	// Native represents the chain's native coin. Internally it is tracked
	// like any other asset but it never corresponds to a venue address.
	Native Asset = "native"
)

// IsZero reports whether a is the null asset reference.
func (a Asset) IsZero() bool {
	return a == Zero
}

// IsNative reports whether a is the native-coin sentinel.
func (a Asset) IsNative() bool {
	return a == Native
}

func (a Asset) String() string {
	if a.IsZero() {
		return "<zero>"
	}
	return string(a)
}
