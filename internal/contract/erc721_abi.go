package contract

// ERC-721 reads used for collection presence checks.
//
//	balanceOf(address) → 0x70a08231
//	name()             → 0x06fdde03
//	tokenURI(uint256)  → 0xc87b56dd
func init() {
	register(ERC721, ABI{
		{
			Name: "balanceOf", Type: "function",
			Inputs:          []ABIParam{{Name: "owner", Type: "address"}},
			Outputs:         []ABIParam{{Type: "uint256"}},
			StateMutability: "view",
		},
		{
			Name: "name", Type: "function",
			Outputs:         []ABIParam{{Type: "string"}},
			StateMutability: "view",
		},
		{
			Name: "tokenURI", Type: "function",
			Inputs:          []ABIParam{{Name: "tokenId", Type: "uint256"}},
			Outputs:         []ABIParam{{Type: "string"}},
			StateMutability: "view",
		},
	})
}
