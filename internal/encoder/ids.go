package encoder

// NormalizeID rewrites a tool-call identifier into a backend's required
// alphabet and length. Implementations must be deterministic: the same input
// always yields the same output, so a tool invocation id and its paired
// result id still match after normalization.
type NormalizeID func(string) string

// Identity returns the id unchanged.
func Identity(id string) string { return id }

// FixedAlnum returns a normalizer for backends that constrain tool ids to
// exactly length alphanumeric characters: non-alphanumerics are stripped, the
// remainder is truncated to length, and short ids are right-padded with pad.
func FixedAlnum(length int, pad byte) NormalizeID {
	return func(id string) string {
		buf := make([]byte, 0, length)
		for i := 0; i < len(id) && len(buf) < length; i++ {
			c := id[i]
			if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
				buf = append(buf, c)
			}
		}
		for len(buf) < length {
			buf = append(buf, pad)
		}
		return string(buf)
	}
}
