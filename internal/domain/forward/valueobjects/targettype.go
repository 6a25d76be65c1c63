package valueobjects

// TargetType says what a forward points at: the next agent in a chain or
// the real external destination.
type TargetType string

const (
	TargetAgent    TargetType = "agent"
	TargetExternal TargetType = "external"
)

// IsValid reports whether the target type is a known value.
func (t TargetType) IsValid() bool {
	return t == TargetAgent || t == TargetExternal
}
