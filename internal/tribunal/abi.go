package tribunal

// tribunalABI is the subset of the Compact tribunal's interface the
// calibrator calls: the dispensation-quoting view function and the
// mandate-hash cross-check view function (§4.3). Declared as a literal ABI
// JSON and parsed once, following the teacher's `mustParseABI`/fallback-ABI
// convention (usecases.FallbackPayChainGatewayABI et al).
const tribunalABI = `[
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "arbiter", "type": "address"},
          {"internalType": "address", "name": "sponsor", "type": "address"},
          {"internalType": "uint256", "name": "nonce", "type": "uint256"},
          {"internalType": "uint256", "name": "expires", "type": "uint256"},
          {"internalType": "uint256", "name": "id", "type": "uint256"},
          {"internalType": "uint256", "name": "amount", "type": "uint256"}
        ],
        "internalType": "struct ITribunal.Claim",
        "name": "claim",
        "type": "tuple"
      },
      {
        "components": [
          {"internalType": "uint256", "name": "chainId", "type": "uint256"},
          {"internalType": "address", "name": "tribunal", "type": "address"},
          {"internalType": "address", "name": "recipient", "type": "address"},
          {"internalType": "uint256", "name": "expires", "type": "uint256"},
          {"internalType": "address", "name": "token", "type": "address"},
          {"internalType": "uint256", "name": "minimumAmount", "type": "uint256"},
          {"internalType": "uint256", "name": "baselinePriorityFee", "type": "uint256"},
          {"internalType": "uint256", "name": "scalingFactor", "type": "uint256"},
          {"internalType": "bytes32", "name": "salt", "type": "bytes32"}
        ],
        "internalType": "struct ITribunal.Mandate",
        "name": "mandate",
        "type": "tuple"
      },
      {"internalType": "address", "name": "claimant", "type": "address"}
    ],
    "name": "quote",
    "outputs": [
      {"internalType": "uint256", "name": "dispensation", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {
        "components": [
          {"internalType": "uint256", "name": "chainId", "type": "uint256"},
          {"internalType": "address", "name": "tribunal", "type": "address"},
          {"internalType": "address", "name": "recipient", "type": "address"},
          {"internalType": "uint256", "name": "expires", "type": "uint256"},
          {"internalType": "address", "name": "token", "type": "address"},
          {"internalType": "uint256", "name": "minimumAmount", "type": "uint256"},
          {"internalType": "uint256", "name": "baselinePriorityFee", "type": "uint256"},
          {"internalType": "uint256", "name": "scalingFactor", "type": "uint256"},
          {"internalType": "bytes32", "name": "salt", "type": "bytes32"}
        ],
        "internalType": "struct ITribunal.Mandate",
        "name": "mandate",
        "type": "tuple"
      }
    ],
    "name": "deriveMandateHash",
    "outputs": [
      {"internalType": "bytes32", "name": "", "type": "bytes32"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`
