package ahcpconf

// CompatibleWith implements the compatibility predicate of spec.md §4.5:
// two configurations are compatible iff they have equal presence flags
// for ipv4_address, ipv6_address, ipv6_prefix, ipv4_prefix_delegation,
// ipv6_prefix_delegation, and, for each present list, element-wise equal
// values in order. Differences in name_server, ntp_server, the
// routing-protocol sub-tree, or expiry do not break compatibility — the
// new values replace the old ones without forcing the configurator bridge
// to be re-invoked.
func (c *Config) CompatibleWith(other *Config) (ok bool) {
	if c == nil || other == nil {
		return c == other
	}

	if (len(c.IPv4Address) == 0) != (len(other.IPv4Address) == 0) {
		return false
	}

	if (len(c.IPv6Address) == 0) != (len(other.IPv6Address) == 0) {
		return false
	}

	if (len(c.IPv6Prefix) == 0) != (len(other.IPv6Prefix) == 0) {
		return false
	}

	if (len(c.IPv4PrefixDelegation) == 0) != (len(other.IPv4PrefixDelegation) == 0) {
		return false
	}

	if (len(c.IPv6PrefixDelegation) == 0) != (len(other.IPv6PrefixDelegation) == 0) {
		return false
	}

	return addrsEqual(c.IPv4Address, other.IPv4Address) &&
		addrsEqual(c.IPv6Address, other.IPv6Address) &&
		prefixesEqual(c.IPv6Prefix, other.IPv6Prefix) &&
		prefixesEqual(c.IPv4PrefixDelegation, other.IPv4PrefixDelegation) &&
		prefixesEqual(c.IPv6PrefixDelegation, other.IPv6PrefixDelegation)
}
