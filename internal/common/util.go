package common

// WipeByteArray overwrites the contents of b with zeros. Used to drop
// passwords from memory once they have been sent to the provider.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
