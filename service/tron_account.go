package service

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/crypto"
)

// TRON mainnet address version byte.
const tronAddressPrefix = 0x41

// GenerateTronAccount creates a fresh secp256k1 keypair and returns the
// base58check mainnet address plus the hex-encoded private key. TRON
// addresses are the last 20 bytes of the keccak256 of the uncompressed
// public key, like Ethereum, wrapped in base58check with the 0x41 prefix.
func GenerateTronAccount() (address, privateKeyHex string, err error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", err
	}
	pub := crypto.FromECDSAPub(&key.PublicKey) // 65 bytes, 0x04 prefix
	hash := crypto.Keccak256(pub[1:])
	address = base58.CheckEncode(hash[12:], tronAddressPrefix)
	privateKeyHex = hex.EncodeToString(crypto.FromECDSA(key))
	return address, privateKeyHex, nil
}

// TronAddressFromPrivateKey re-derives the deposit address for a stored key.
func TronAddressFromPrivateKey(privateKeyHex string) (string, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return "", err
	}
	pub := crypto.FromECDSAPub(&key.PublicKey)
	hash := crypto.Keccak256(pub[1:])
	return base58.CheckEncode(hash[12:], tronAddressPrefix), nil
}
