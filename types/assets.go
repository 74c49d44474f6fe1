package types

// NativeToken is the token identifier for the cluster's native asset.
const NativeToken = "SOL"

// AssetDescriptor describes one asset on one network: its decimal precision
// and, for SPL tokens, the canonical mint address. The table is read-only and
// loaded at startup.
type AssetDescriptor struct {
	Token    string
	Network  Network
	Decimals uint8

	// Mint is the base58 mint address. Empty for the native asset.
	Mint string
}

// Native reports whether the descriptor refers to the cluster's native asset.
func (a AssetDescriptor) Native() bool { return a.Mint == "" }

var assetTable = []AssetDescriptor{
	{Token: NativeToken, Network: NetworkMainnet, Decimals: 9},
	{Token: NativeToken, Network: NetworkDevnet, Decimals: 9},
	{Token: NativeToken, Network: NetworkLocal, Decimals: 9},
	{Token: "USDC", Network: NetworkMainnet, Decimals: 6, Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
	{Token: "USDC", Network: NetworkDevnet, Decimals: 6, Mint: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"},
	{Token: "USDT", Network: NetworkMainnet, Decimals: 6, Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"},
}

// LookupAsset resolves an asset descriptor for a token symbol on a network.
func LookupAsset(network Network, token string) (AssetDescriptor, error) {
	for _, a := range assetTable {
		if a.Network == network && a.Token == token {
			return a, nil
		}
	}
	return AssetDescriptor{}, NewPaymentError(ErrInvalidRequirements,
		"unknown asset "+token+" on network "+network.String(), nil)
}
