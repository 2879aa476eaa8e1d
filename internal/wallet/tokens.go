package wallet

import "strings"

// ChainID is the only chain wallets live on (Base mainnet).
const ChainID = 8453

// Token describes an ERC-20 the wallet holds.
type Token struct {
	Symbol    string
	Address   string
	Decimals  int
	YieldPool string
}

var (
	USDC = Token{Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6}
	ZARP = Token{Symbol: "ZARP", Address: "0xb755506531786C8aC63B756BaB1ac387bACB0C04", Decimals: 18}

	// Yield tokens are minted by the savings pools for deposits of the base token.
	USDCYield = Token{Symbol: "aBasUSDC", Address: "0x4e65fE4DbA92790696d040ac24Aa414708F5c0AB", Decimals: 6, YieldPool: "0xA238Dd80C259a72e81d7e4664a9801593F98d1c5"}
	ZARPYield = Token{Symbol: "aBasZARP", Address: "0x381Bb761187411F920aF8350CA9D3D003E5AB4E2", Decimals: 18, YieldPool: "0x381Bb761187411F920aF8350CA9D3D003E5AB4E2"}

	// LinkdropEscrow holds funds for pending claim links.
	LinkdropEscrow = "0x139B79602B68E8198EA3D57f5E6311fd98262269"
)

var yieldByBase = map[string]Token{
	strings.ToLower(USDC.Address): USDCYield,
	strings.ToLower(ZARP.Address): ZARPYield,
}

// BaseToken returns the token a user transacts in, chosen by the region of
// their phone number.
func BaseToken(countryCode string) Token {
	if strings.EqualFold(countryCode, "ZA") {
		return ZARP
	}
	return USDC
}

// YieldToken returns the savings token paired with base.
func YieldToken(base Token) (Token, bool) {
	t, ok := yieldByBase[strings.ToLower(base.Address)]
	return t, ok
}

var knownLabels = map[string]string{
	strings.ToLower(USDC.Address):        "USDC",
	strings.ToLower(ZARP.Address):        "ZARP",
	strings.ToLower(USDCYield.Address):   "Savings",
	strings.ToLower(USDCYield.YieldPool): "Savings",
	strings.ToLower(ZARPYield.Address):   "Savings",
	strings.ToLower(LinkdropEscrow):      "Claim link",
}

// KnownLabel returns a display label for protocol addresses.
func KnownLabel(address string) (string, bool) {
	label, ok := knownLabels[strings.ToLower(address)]
	return label, ok
}
