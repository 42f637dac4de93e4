package entity

// Length types accepted by the outline and article generation operations.
// The set is open: unknown values are passed through to the provider with
// the medium word target.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// WordTarget maps a length type to the approximate word count the
// generation prompts ask for.
func WordTarget(lengthType string) int {
	switch lengthType {
	case LengthShort:
		return 500
	case LengthLong:
		return 2000
	default:
		return 1000
	}
}
