package schemas

import "context"

// ContractCode is what a code source knows about one address. Empty Bytecode
// (or the bare "0x" placeholder) means the address holds no code.
type ContractCode struct {
	Bytecode   string
	Verified   bool
	SourceCode string
	ABI        string
}

// CodeSource fetches deployed code and verification metadata for an address.
// Implementations degrade to an empty ContractCode on failure or timeout
// rather than blocking the batch.
type CodeSource interface {
	GetCode(ctx context.Context, address string) (ContractCode, error)
}

// SignatureLookup resolves a 4-byte selector to candidate human-readable
// signatures. An empty slice is a valid "no match" answer.
type SignatureLookup interface {
	Lookup(ctx context.Context, selector string) ([]string, error)
}
