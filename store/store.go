// Package store is the encrypted local database: the current session and the
// last known contacts directory, kept in a sqlcipher file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Daskott/kontakt/auth"
	"github.com/Daskott/kontakt/contacts"
	"github.com/Daskott/kontakt/utils"
	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "kontakt.db"

type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is the single row holding the logged in user
type Session struct {
	BaseModel
	Username string
	UserID   string
	Token    string
}

// CachedContact is one directory entry, stored as the JSON of contacts.Contact
type CachedContact struct {
	BaseModel
	OwnerID   string `gorm:"index"`
	Position  int
	ContactID int
	Payload   string
}

// Store implements auth.SessionStore and contacts.Cache. The directory cache
// belongs to the current session's user and is dropped on logout.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) <rootDir>/db/kontakt.db, encrypted with passPhrase
func Open(passPhrase string, rootDir string) (*Store, error) {
	dsn, err := dbDSN(passPhrase, rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to set sqlite DSN: %v", err)
	}

	db, err := gorm.Open(sqliteEncrypt.Open(dsn), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&Session{}, &CachedContact{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CurrentSession() (*auth.Session, error) {
	session := Session{}

	err := s.db.Order("id desc").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &auth.Session{Username: session.Username, UserID: session.UserID, Token: session.Token}, nil
}

// SaveSession replaces any existing session
func (s *Store) SaveSession(session auth.Session) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Session{}).Error; err != nil {
			return err
		}

		return tx.Create(&Session{
			Username: session.Username,
			UserID:   session.UserID,
			Token:    session.Token,
		}).Error
	})
}

// ClearSession logs out: the session and its cached directory are removed
func (s *Store) ClearSession() error {
	ownerID, err := s.currentOwner()
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", ownerID).Delete(&CachedContact{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&Session{}).Error
	})
}

// SaveDirectory does nothing when nobody is logged in
func (s *Store) SaveDirectory(directory []contacts.Contact) error {
	ownerID, err := s.currentOwner()
	if err != nil || ownerID == "" {
		return err
	}

	rows := make([]CachedContact, 0, len(directory))
	for i, contact := range directory {
		payload, err := json.Marshal(contact)
		if err != nil {
			return err
		}

		rows = append(rows, CachedContact{
			OwnerID:   ownerID,
			Position:  i,
			ContactID: contact.ID,
			Payload:   string(payload),
		})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", ownerID).Delete(&CachedContact{}).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (s *Store) LoadDirectory() ([]contacts.Contact, error) {
	ownerID, err := s.currentOwner()
	if err != nil {
		return nil, err
	}
	if ownerID == "" {
		return []contacts.Contact{}, nil
	}

	rows := []CachedContact{}
	err = s.db.Where("owner_id = ?", ownerID).Order("position asc").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	directory := make([]contacts.Contact, 0, len(rows))
	for _, row := range rows {
		contact := contacts.Contact{}
		if err := json.Unmarshal([]byte(row.Payload), &contact); err != nil {
			return nil, fmt.Errorf("corrupt cache entry for contact id=%v: %v", row.ContactID, err)
		}
		directory = append(directory, contact)
	}

	return directory, nil
}

// currentOwner is the user the directory cache belongs to; "" when logged out
func (s *Store) currentOwner() (string, error) {
	session, err := s.CurrentSession()
	if err != nil || session == nil {
		return "", err
	}

	if session.UserID != "" {
		return session.UserID, nil
	}
	return session.Username, nil
}

func dbDSN(passPhrase string, rootDir string) (string, error) {
	dbDir, err := DbDirectory(rootDir)
	if err != nil {
		return "", err
	}

	dbFilePath := filepath.Join(dbDir, DB_NAME)
	dbName := fmt.Sprintf("file:%v", dbFilePath)

	return fmt.Sprintf(
		"%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL",
		dbName,
		passPhrase,
	), nil
}

func DbDirectory(rootDir string) (string, error) {
	dbDir := filepath.Join(rootDir, "db")

	err := utils.CreateDirIfNotExist(dbDir)
	if err != nil {
		return "", err
	}

	return dbDir, nil
}

// DbFilePath is where Open keeps the database for rootDir
func DbFilePath(rootDir string) string {
	return filepath.Join(rootDir, "db", DB_NAME)
}
