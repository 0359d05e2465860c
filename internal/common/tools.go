package common

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// GenerateUUID generates a UUID with an optional prefix
func GenerateUUID(prefix string) string {
	id := uuid.New()
	if prefix != "" {
		return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(id.String(), "-", ""))
	}
	return id.String()
}

// GenerateContractID generates a contract ID with "bfc" prefix
func GenerateContractID() string {
	return GenerateUUID("bfc")
}

// GenerateTransferID generates a ledger transfer ID with "tx" prefix
func GenerateTransferID() string {
	return GenerateUUID("tx")
}

// escrowDomain separates escrow derivation from any other hash of a contract id.
var escrowDomain = []byte("binary-futures/escrow/v1:")

// EscrowAddress derives the escrow account address of a contract from its full ID,
// the same way contract addresses are derived on chain: the last 20 bytes of a keccak256 hash.
func EscrowAddress(contractID string) common.Address {
	return common.BytesToAddress(crypto.Keccak256(escrowDomain, []byte(contractID))[12:])
}

// ParseAddress parses a hex encoded participant address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
