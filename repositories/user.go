//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-rooms/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(email, username, hashedPassword string) (string, error)
	GetUserByEmail(email string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the domain-friendly representation of a user in the repository layer.
// Equivalent to DiskMessage for the account domain.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

type userRecord struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"password_hash"`
	Roles        []string `json:"roles"`
	CreatedAt    int64    `json:"created_at"`
}

// CreateUser persists the user in BadgerDB under "user:{email}".
// It returns the newly generated User ID
func (u UserRepository) CreateUser(email, username, hashedPassword string) (string, error) {
	newID := uuid.New().String()
	record := userRecord{
		ID:           newID,
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().Unix(),
		Roles:        []string{"user"},
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte("user:" + email)
		if _, err = txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})

	return newID, err
}

// GetUserByEmail retrieves a user from Badger and converts it to the repository.User struct.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var record userRecord

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + email))
		if err != nil {
			return err // Surfaced as ErrInvalidCredentials by the handler
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})

	if err != nil {
		return User{}, err
	}

	return toUserStruct(record), nil
}

func toUserStruct(record userRecord) User {
	return User{
		ID:           record.ID,
		Email:        record.Email,
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		Roles:        record.Roles,
		CreatedAt:    time.Unix(record.CreatedAt, 0).UTC(),
	}
}
