package model

import "strings"

const ZeroAddress = "0x0000000000000000000000000000000000000000"

// MaxUint256 is the sentinel meaning "no constraint" in witness fields that
// otherwise carry a real limit.
const MaxUint256 = "115792089237316195423570985008687907853269984665640564039457584007913129639935"

// nativeTokenAddresses are the conventional placeholders partners use for
// the chain-native asset.
var nativeTokenAddresses = []string{
	ZeroAddress,
	"0x0000000000000000000000000000000000001010",
	"0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
	"0x000000000000000000000000000000000000dEaD",
}

func EqIgnoreCase(a, b string) bool {
	return a == b || strings.EqualFold(a, b)
}

// IsNativeAddress reports whether the address denotes the chain-native
// asset. Native input forces a wrap step before the swap.
func IsNativeAddress(address string) bool {
	for _, a := range nativeTokenAddresses {
		if EqIgnoreCase(a, address) {
			return true
		}
	}
	return false
}

var wrappedNativeByChain = map[uint64]string{
	1:     "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH
	56:    "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", // WBNB
	137:   "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", // WMATIC
	250:   "0x21be370D5312f44cB42ce377BC9b8a0cEF1A4C83", // WFTM
	8453:  "0x4200000000000000000000000000000000000006", // WETH (Base)
	42161: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", // WETH (Arbitrum)
	146:   "0x039e2fB66102314Ce7b64Ce5Ce3E5183bc94aD38", // wS (Sonic)
}

// WrappedNativeAddress returns the wrapped-native token for the chain, or
// empty when the chain is unknown.
func WrappedNativeAddress(chainID uint64) string {
	return wrappedNativeByChain[chainID]
}
