package valueobjects

// Method is the relay mechanism a forward uses on its agent.
type Method string

const (
	// MethodIptables is direct kernel-level forwarding; no tunnel engine
	// config is generated for it.
	MethodIptables Method = "iptables"

	// MethodGost is the chained relay engine. Supports per-hop relay
	// channels (ws, wss, tls, grpc, ...).
	MethodGost Method = "gost"

	// MethodRealm is the simple pass-through engine.
	MethodRealm Method = "realm"
)

// IsValid reports whether the method is a known value.
func (m Method) IsValid() bool {
	switch m {
	case MethodIptables, MethodGost, MethodRealm:
		return true
	}
	return false
}

// UsesChainedEngine reports whether the method is backed by the chained
// relay engine and therefore gets services/chains in its config document.
func (m Method) UsesChainedEngine() bool {
	return m == MethodGost
}

// UsesPassthroughEngine reports whether the method is backed by the simple
// pass-through engine.
func (m Method) UsesPassthroughEngine() bool {
	return m == MethodRealm
}

// EngineKey returns the config-document key for the method's engine, or ""
// for direct methods.
func (m Method) EngineKey() string {
	switch m {
	case MethodGost:
		return "gost"
	case MethodRealm:
		return "realm"
	default:
		return ""
	}
}
