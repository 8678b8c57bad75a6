package service

import (
	"context"

	"github.com/blurmagic/backend/cryptoutil"
	"github.com/blurmagic/backend/repository"
)

// WalletService manages per-user TRON deposit accounts. An account is
// generated once, its private key stored only in encrypted form, and the
// same address is returned on every later request.
type WalletService struct {
	users            *repository.UserRepository
	encryptionSecret string
}

func NewWalletService(users *repository.UserRepository, encryptionSecret string) *WalletService {
	return &WalletService{users: users, encryptionSecret: encryptionSecret}
}

// EnsureTronDepositAddress returns the user's deposit address, generating and
// persisting one if none exists yet.
func (s *WalletService) EnsureTronDepositAddress(ctx context.Context, uid string) (string, error) {
	u, err := s.users.Ensure(ctx, uid)
	if err != nil {
		return "", err
	}
	if u.TronDepositAddress != nil && u.TronDepositPrivEnc != nil {
		return *u.TronDepositAddress, nil
	}

	address, privateKey, err := GenerateTronAccount()
	if err != nil {
		return "", err
	}
	privEnc, err := cryptoutil.EncryptText(s.encryptionSecret, privateKey)
	if err != nil {
		return "", err
	}

	// Write-once: if a concurrent request generated an address first, the
	// guarded update is a no-op and the stored address wins.
	stored, err := s.users.SetTronDeposit(ctx, uid, address, privEnc)
	if err != nil {
		return "", err
	}
	if stored.TronDepositAddress == nil {
		return "", ErrNoDepositAddress
	}
	return *stored.TronDepositAddress, nil
}
