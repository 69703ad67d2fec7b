package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// quoterV2ABI is the subset of Uniswap V3's QuoterV2 interface the
// calibrator exercises: a single-hop, exact-input quote against a given fee
// tier. Declared as a literal JSON string and parsed once at package init,
// the same convention the teacher uses for its fallback ABIs
// (usecases.FallbackPayChainGatewayABI et al).
const quoterV2ABI = `[
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "tokenIn", "type": "address"},
          {"internalType": "address", "name": "tokenOut", "type": "address"},
          {"internalType": "uint256", "name": "amountIn", "type": "uint256"},
          {"internalType": "uint24", "name": "fee", "type": "uint24"},
          {"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
        ],
        "internalType": "struct IQuoterV2.QuoteExactInputSingleParams",
        "name": "params",
        "type": "tuple"
      }
    ],
    "name": "quoteExactInputSingle",
    "outputs": [
      {"internalType": "uint256", "name": "amountOut", "type": "uint256"},
      {"internalType": "uint160", "name": "sqrtPriceX96After", "type": "uint160"},
      {"internalType": "uint32", "name": "initializedTicksCrossed", "type": "uint32"},
      {"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
    ],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

// feeTiers is the fixed list of pool fee tiers (in hundredths of a bip) the
// router probes, highest-output-wins, per §4.2.
var feeTiers = []uint32{500, 3000, 10000}

// quoteParams mirrors IQuoterV2.QuoteExactInputSingleParams for abi.Pack.
type quoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}
