// Package compactid implements CompactIdPacker (C6): bit-packing the lock
// parameters and input token address into the 256-bit compact id.
package compactid

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"calibrator.backend/internal/apperr"
)

const (
	resetPeriodBits  = 3
	allocatorIDBits  = 92
	inputTokenBits   = 160
	allocatorIDShift = inputTokenBits
	resetPeriodShift = allocatorIDShift + allocatorIDBits
	isMultichainBit  = 255
)

var (
	maxResetPeriod = uint64(1<<resetPeriodBits) - 1
	maxAllocatorID = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), allocatorIDBits), big.NewInt(1))
)

// Fields are the packed inputs, per §4.6 / §3 LockParameters.
type Fields struct {
	IsMultichain bool
	ResetPeriod  uint8
	AllocatorID  *big.Int
	InputToken   common.Address
}

// Pack builds the 256-bit compact id:
//
//	bit255       = !isMultichain
//	bits254..252 = resetPeriod
//	bits251..160 = allocatorId
//	bits159..0   = lower 160 bits of inputToken
//
// Fields outside their declared widths fail CompactIdFieldOverflow.
func Pack(f Fields) (*big.Int, error) {
	if uint64(f.ResetPeriod) > maxResetPeriod {
		return nil, overflow(fmt.Sprintf("resetPeriod %d exceeds 3-bit range", f.ResetPeriod))
	}
	if f.AllocatorID == nil || f.AllocatorID.Sign() < 0 || f.AllocatorID.Cmp(maxAllocatorID) > 0 {
		return nil, overflow(fmt.Sprintf("allocatorId %v exceeds 92-bit range", f.AllocatorID))
	}

	id := new(uint256.Int)
	if !f.IsMultichain {
		bit255 := new(uint256.Int).Lsh(uint256.NewInt(1), isMultichainBit)
		id.Or(id, bit255)
	}

	resetPeriod := new(uint256.Int).Lsh(uint256.NewInt(uint64(f.ResetPeriod)), resetPeriodShift)
	id.Or(id, resetPeriod)

	allocatorID, overflowed := uint256.FromBig(f.AllocatorID)
	if overflowed {
		return nil, overflow(fmt.Sprintf("allocatorId %v does not fit in 256 bits", f.AllocatorID))
	}
	allocatorIDShifted := new(uint256.Int).Lsh(allocatorID, allocatorIDShift)
	id.Or(id, allocatorIDShifted)

	lowerToken := new(uint256.Int).SetBytes(f.InputToken.Bytes())
	id.Or(id, lowerToken)

	return id.ToBig(), nil
}

// Unpack inverts Pack, used by tests to establish the bijection property.
func Unpack(id *big.Int) (Fields, error) {
	packed, overflowed := uint256.FromBig(id)
	if overflowed || packed == nil {
		return Fields{}, overflow("compact id does not fit in 256 bits")
	}

	bit255Mask := new(uint256.Int).Lsh(uint256.NewInt(1), isMultichainBit)
	isMultichain := new(uint256.Int).And(packed, bit255Mask).IsZero()

	resetPeriod := new(uint256.Int).Rsh(packed, resetPeriodShift)
	resetPeriod.And(resetPeriod, uint256.NewInt((1<<resetPeriodBits)-1))

	allocatorID := new(uint256.Int).Rsh(packed, allocatorIDShift)
	allocatorMask := new(uint256.Int).Sub(
		new(uint256.Int).Lsh(uint256.NewInt(1), allocatorIDBits), uint256.NewInt(1))
	allocatorID.And(allocatorID, allocatorMask)

	tokenMask := new(uint256.Int).Sub(
		new(uint256.Int).Lsh(uint256.NewInt(1), inputTokenBits), uint256.NewInt(1))
	tokenBits := new(uint256.Int).And(packed, tokenMask)
	tokenBytes := tokenBits.Bytes20()

	return Fields{
		IsMultichain: isMultichain,
		ResetPeriod:  uint8(resetPeriod.Uint64()),
		AllocatorID:  allocatorID.ToBig(),
		InputToken:   common.BytesToAddress(tokenBytes[:]),
	}, nil
}

func overflow(detail string) *apperr.AppError {
	return apperr.NewKindError(apperr.KindCompactIdFieldOverflow, "compact id field overflow: "+detail, nil)
}
