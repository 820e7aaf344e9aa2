// Package storage is the persistence collaborator: accounts serialized as
// username -> {username, password hash, wallet}, with the wallet as balance
// plus symbol -> ordered {amount, unit cost} pairs.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"crypto_wallet/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AccountRecord is the persisted form of one account. The wallet is stored
// as the JSON of domain.WalletState.
type AccountRecord struct {
	Username     string `gorm:"primaryKey" json:"username"`
	PasswordHash string `json:"password_hash"`
	WalletJSON   string `json:"wallet"`
	UpdatedAt    time.Time
}

// Storage persists accounts in a SQLite database.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (creating if needed) the account database at path.
func NewStorage(path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Pure Go SQLite
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&AccountRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// RecordFor builds the persisted form of an account. Called on the
// dispatcher goroutine so the snapshot is consistent; the record itself can
// then cross goroutines freely.
func RecordFor(account *domain.Account) (AccountRecord, error) {
	walletJSON, err := json.Marshal(account.Wallet.State())
	if err != nil {
		return AccountRecord{}, fmt.Errorf("failed to serialize wallet: %w", err)
	}
	return AccountRecord{
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		WalletJSON:   string(walletJSON),
	}, nil
}

// accountFor rebuilds a live account from its persisted form.
func accountFor(rec AccountRecord) (*domain.Account, error) {
	var st domain.WalletState
	if err := json.Unmarshal([]byte(rec.WalletJSON), &st); err != nil {
		return nil, fmt.Errorf("failed to deserialize wallet for %q: %w", rec.Username, err)
	}
	return domain.NewAccount(rec.Username, rec.PasswordHash, domain.WalletFromState(st)), nil
}

// SaveRecord upserts one account record.
func (s *Storage) SaveRecord(rec AccountRecord) error {
	return s.db.Save(&rec).Error
}

// SaveAll flushes every given account. Used by the shutdown sequence; a
// failure here is surfaced loudly, not retried.
func (s *Storage) SaveAll(accounts []*domain.Account) error {
	for _, account := range accounts {
		rec, err := RecordFor(account)
		if err != nil {
			return err
		}
		if err := s.SaveRecord(rec); err != nil {
			return fmt.Errorf("failed to save account %q: %w", account.Username, err)
		}
	}
	return nil
}

// LoadAccounts reads every persisted account back into live form.
func (s *Storage) LoadAccounts() ([]*domain.Account, error) {
	var records []AccountRecord
	if err := s.db.Find(&records).Error; err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(records))
	for _, rec := range records {
		account, err := accountFor(rec)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}
