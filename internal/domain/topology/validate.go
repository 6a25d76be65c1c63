package topology

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	vo "veilink/internal/domain/forward/valueobjects"
)

var domainPattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// Validate checks the structural rules a resolved chain must satisfy
// before any agent is touched: exactly one terminal hop, that hop
// pointing at a well-formed external endpoint, and every intermediate
// hop pointing at the agent its successor departs from. Agent-level
// checks (online, ownership, port ranges) belong to the caller, which
// holds the agent records.
func (c *Chain) Validate() error {
	for i := c.head; i != none; i = c.hops[i].next {
		hop := &c.hops[i]
		isTail := c.hops[i].next == none

		if isTail {
			if hop.TargetType != vo.TargetExternal {
				return fmt.Errorf("%w: terminal hop must target the external endpoint", ErrInvalidTopology)
			}
			if err := ValidateEndpoint(hop.Target, hop.TargetPort); err != nil {
				return err
			}
			continue
		}

		if hop.TargetType != vo.TargetAgent {
			return fmt.Errorf("%w: intermediate hop must target an agent", ErrInvalidTopology)
		}
		next := &c.hops[c.hops[i].next]
		if hop.TargetAgentID != next.SourceAgentID {
			return fmt.Errorf("%w: hop targets agent %d but next hop departs from agent %d",
				ErrInvalidTopology, hop.TargetAgentID, next.SourceAgentID)
		}
	}
	return nil
}

// ValidateEndpoint accepts an IPv4 address, an IPv6 address, or a domain
// name, with a port in [1, 65535].
func ValidateEndpoint(host string, port uint16) error {
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidTarget)
	}
	if port == 0 {
		return fmt.Errorf("%w: port must be in [1, 65535]", ErrInvalidTarget)
	}
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return nil
	}
	if domainPattern.MatchString(host) {
		return nil
	}
	return fmt.Errorf("%w: %q is not an IP address or domain name", ErrInvalidTarget, host)
}
