// Package store defines the narrow storage contract the signal, persona and
// recommendation engines depend on. Implementations live in subpackages
// (firestore for production, memory for tests and local runs); the engines
// only ever see this interface.
package store

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendsense/internal/domain"
)

// ErrNotFound is returned by FetchRecord when no record exists under the
// given collection and key.
var ErrNotFound = errors.New("store: record not found")

// Store is the document-store collaborator. Records are keyed
// user → collection → key; ReplaceRecord is a full overwrite (last writer
// wins) and FetchRecord unmarshals the stored record into out.
type Store interface {
	// FetchTransactions returns the user's transactions dated on or after
	// since, newest first.
	FetchTransactions(ctx context.Context, userID string, since civil.Date) ([]domain.Transaction, error)

	// FetchAccounts returns all of the user's accounts.
	FetchAccounts(ctx context.Context, userID string) ([]domain.Account, error)

	// ReplaceRecord stores record under users/{userID}/{collection}/{key},
	// replacing any existing record wholesale.
	ReplaceRecord(ctx context.Context, userID, collection, key string, record any) error

	// FetchRecord loads users/{userID}/{collection}/{key} into out.
	// Returns ErrNotFound when the record does not exist.
	FetchRecord(ctx context.Context, userID, collection, key string, out any) error

	// ListRecords loads every record in users/{userID}/{collection},
	// unmarshalling each into a fresh value appended via the visit func.
	ListRecords(ctx context.Context, userID, collection string, visit func(raw []byte) error) error

	// ListUserIDs returns the IDs of every known user.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Collection names shared by all adapters.
const (
	CollectionTransactions       = "transactions"
	CollectionAccounts           = "accounts"
	CollectionComputedFeatures   = "computed_features"
	CollectionPersonaAssignments = "persona_assignments"
	CollectionRecommendations    = "recommendations"
)
