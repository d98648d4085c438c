// Package selector resolves 4-byte function selectors to human-readable
// signatures, first from a built-in table and then from the 4byte.directory
// public API.
package selector

// staticTable covers the selectors most commonly seen in ERC-20/721 tokens,
// upgradeable proxies and common DeFi entry points. Lookups against this
// table are free, so it is always consulted before the network.
var staticTable = map[string]string{
	// ERC-20 core.
	"0xa9059cbb": "transfer(address,uint256)",
	"0x095ea7b3": "approve(address,uint256)",
	"0x23b872dd": "transferFrom(address,address,uint256)",
	"0x70a08231": "balanceOf(address)",
	"0x18160ddd": "totalSupply()",
	"0xdd62ed3e": "allowance(address,address)",
	"0x06fdde03": "name()",
	"0x95d89b41": "symbol()",
	"0x313ce567": "decimals()",

	// Ownership and admin.
	"0x8da5cb5b": "owner()",
	"0xf2fde38b": "transferOwnership(address)",
	"0x715018a6": "renounceOwnership()",

	// Supply management.
	"0x40c10f19": "mint(address,uint256)",
	"0x42966c68": "burn(uint256)",
	"0x9dc29fac": "burnFrom(address,uint256)",

	// Pausable.
	"0x8456cb59": "pause()",
	"0x3f4ba83a": "unpause()",
	"0x5c975abb": "paused()",

	// Value movement.
	"0x2e1a7d4d": "withdraw(uint256)",
	"0xd0e30db0": "deposit()",
	"0x3ccfd60b": "withdraw()",

	// Proxy surface (EIP-1967 / transparent proxies).
	"0x5c60da1b": "implementation()",
	"0x3659cfe6": "upgradeTo(address)",
	"0x4f1ef286": "upgradeToAndCall(address,bytes)",
	"0xf851a440": "admin()",
	"0x8f283970": "changeAdmin(address)",
	"0x8129fc1c": "initialize()",

	// ERC-721 extras.
	"0x42842e0e": "safeTransferFrom(address,address,uint256)",
	"0xa22cb465": "setApprovalForAll(address,bool)",
	"0x6352211e": "ownerOf(uint256)",
}

// lookupStatic returns the signature for a selector if the built-in table
// knows it.
func lookupStatic(selector string) (string, bool) {
	sig, ok := staticTable[selector]
	return sig, ok
}
