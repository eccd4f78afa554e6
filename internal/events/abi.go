package events

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Every event indexes the pool and the signing actor as bytes32 topics.
// Token amounts are widened to uint256.
const poolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pool", "type": "bytes32"},
      {"indexed": true, "internalType": "bytes32", "name": "initializer", "type": "bytes32"},
      {"indexed": false, "internalType": "uint64", "name": "seed", "type": "uint64"},
      {"indexed": false, "internalType": "bytes32", "name": "mintX", "type": "bytes32"},
      {"indexed": false, "internalType": "bytes32", "name": "mintY", "type": "bytes32"},
      {"indexed": false, "internalType": "bytes32", "name": "mintLP", "type": "bytes32"},
      {"indexed": false, "internalType": "uint16", "name": "feeBps", "type": "uint16"},
      {"indexed": false, "internalType": "bytes32", "name": "authority", "type": "bytes32"},
      {"indexed": false, "internalType": "bool", "name": "hasAuthority", "type": "bool"}
    ],
    "name": "PoolInitialized",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pool", "type": "bytes32"},
      {"indexed": true, "internalType": "bytes32", "name": "provider", "type": "bytes32"},
      {"indexed": false, "internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountY", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "shares", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lockedShares", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "reserveX", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "reserveY", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "supply", "type": "uint256"}
    ],
    "name": "Deposit",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pool", "type": "bytes32"},
      {"indexed": true, "internalType": "bytes32", "name": "provider", "type": "bytes32"},
      {"indexed": false, "internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountY", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "shares", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "reserveX", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "reserveY", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "supply", "type": "uint256"}
    ],
    "name": "Withdraw",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pool", "type": "bytes32"},
      {"indexed": true, "internalType": "bytes32", "name": "trader", "type": "bytes32"},
      {"indexed": false, "internalType": "bool", "name": "sellX", "type": "bool"},
      {"indexed": false, "internalType": "uint256", "name": "amountIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountOut", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "fee", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "reserveX", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "reserveY", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "supply", "type": "uint256"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pool", "type": "bytes32"},
      {"indexed": true, "internalType": "bytes32", "name": "signer", "type": "bytes32"},
      {"indexed": false, "internalType": "bool", "name": "locked", "type": "bool"}
    ],
    "name": "LockChanged",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "pool", "type": "bytes32"},
      {"indexed": true, "internalType": "bytes32", "name": "signer", "type": "bytes32"},
      {"indexed": false, "internalType": "bytes32", "name": "authority", "type": "bytes32"},
      {"indexed": false, "internalType": "bool", "name": "hasAuthority", "type": "bool"}
    ],
    "name": "AuthorityChanged",
    "type": "event"
  }
]`

var (
	poolABI     abi.ABI
	poolABIOnce sync.Once
	poolABIErr  error
)

// PoolABI returns the parsed pool event ABI.
func PoolABI() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}
