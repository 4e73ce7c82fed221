// Package firestore implements the store.Store interface on Cloud Firestore.
// Documents live under users/{user_id}/{collection}/{key}; computed records
// are written as plain JSON-shaped maps so other tooling can read them
// without this package's types.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/store"
)

// maxTransactionFetch caps a single history read.
const maxTransactionFetch = 1000

type Store struct {
	client *firestore.Client
	log    zerolog.Logger
}

func New(client *firestore.Client, log zerolog.Logger) *Store {
	return &Store{
		client: client,
		log:    log.With().Str("component", "firestore").Logger(),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) userCollection(userID, collection string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection(collection)
}

// transactionDoc is the stored transaction shape. Dates are ISO strings.
type transactionDoc struct {
	AccountID       string   `firestore:"account_id"`
	Date            string   `firestore:"date"`
	AuthorizedDate  string   `firestore:"authorized_date"`
	Amount          float64  `firestore:"amount"`
	MerchantName    string   `firestore:"merchant_name"`
	Category        []string `firestore:"category"`
	PaymentChannel  string   `firestore:"payment_channel"`
	Pending         bool     `firestore:"pending"`
	LocationCity    string   `firestore:"location_city"`
	LocationRegion  string   `firestore:"location_region"`
	ISOCurrencyCode string   `firestore:"iso_currency_code"`
}

type accountDoc struct {
	Type    string  `firestore:"type"`
	Subtype string  `firestore:"subtype"`
	Balance float64 `firestore:"balance"`
	Limit   float64 `firestore:"limit"`
	Mask    string  `firestore:"mask"`
}

// FetchTransactions returns the user's transactions on or after since,
// newest first. Documents with unparseable dates are skipped with a warning.
func (s *Store) FetchTransactions(ctx context.Context, userID string, since civil.Date) ([]domain.Transaction, error) {
	query := s.userCollection(userID, store.CollectionTransactions).
		Where("date", ">=", since.String()).
		OrderBy("date", firestore.Desc).
		Limit(maxTransactionFetch)

	var out []domain.Transaction
	it := query.Documents(ctx)
	defer it.Stop()

	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FetchTransactions: iterate %s: %w", userID, err)
		}

		var raw transactionDoc
		if err := doc.DataTo(&raw); err != nil {
			s.log.Warn().Str("user_id", userID).Str("doc", doc.Ref.ID).Err(err).Msg("Skipping malformed transaction document")
			continue
		}

		date, err := civil.ParseDate(raw.Date)
		if err != nil {
			s.log.Warn().Str("user_id", userID).Str("doc", doc.Ref.ID).Str("date", raw.Date).Msg("Skipping transaction with unparseable date")
			continue
		}

		txn := domain.Transaction{
			TransactionID:   doc.Ref.ID,
			AccountID:       raw.AccountID,
			Date:            date,
			Amount:          raw.Amount,
			MerchantName:    raw.MerchantName,
			Category:        raw.Category,
			PaymentChannel:  raw.PaymentChannel,
			Pending:         raw.Pending,
			LocationCity:    raw.LocationCity,
			LocationRegion:  raw.LocationRegion,
			ISOCurrencyCode: raw.ISOCurrencyCode,
		}
		if raw.AuthorizedDate != "" {
			if auth, err := civil.ParseDate(raw.AuthorizedDate); err == nil {
				txn.AuthorizedDate = &auth
			}
		}
		out = append(out, txn)
	}

	return out, nil
}

func (s *Store) FetchAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	var out []domain.Account
	it := s.userCollection(userID, store.CollectionAccounts).Documents(ctx)
	defer it.Stop()

	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FetchAccounts: iterate %s: %w", userID, err)
		}

		var raw accountDoc
		if err := doc.DataTo(&raw); err != nil {
			s.log.Warn().Str("user_id", userID).Str("doc", doc.Ref.ID).Err(err).Msg("Skipping malformed account document")
			continue
		}

		out = append(out, domain.Account{
			AccountID: doc.Ref.ID,
			UserID:    userID,
			Type:      raw.Type,
			Subtype:   raw.Subtype,
			Balance:   raw.Balance,
			Limit:     raw.Limit,
			Mask:      raw.Mask,
		})
	}

	return out, nil
}

// ReplaceRecord stores the record as a full document overwrite. The record
// is round-tripped through JSON so document field names follow the record's
// JSON tags.
func (s *Store) ReplaceRecord(ctx context.Context, userID, collection, key string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("ReplaceRecord: marshal %s/%s: %w", collection, key, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("ReplaceRecord: record %s/%s is not an object: %w", collection, key, err)
	}

	if _, err := s.userCollection(userID, collection).Doc(key).Set(ctx, fields); err != nil {
		return fmt.Errorf("ReplaceRecord: set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) FetchRecord(ctx context.Context, userID, collection, key string, out any) error {
	doc, err := s.userCollection(userID, collection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return store.ErrNotFound
		}
		return fmt.Errorf("FetchRecord: get %s/%s: %w", collection, key, err)
	}

	raw, err := json.Marshal(doc.Data())
	if err != nil {
		return fmt.Errorf("FetchRecord: encode %s/%s: %w", collection, key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("FetchRecord: decode %s/%s: %w", collection, key, err)
	}
	return nil
}

// ListRecords visits every record in the collection in document-ID order,
// passing each as raw JSON.
func (s *Store) ListRecords(ctx context.Context, userID, collection string, visit func(raw []byte) error) error {
	it := s.userCollection(userID, collection).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer it.Stop()

	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("ListRecords: iterate %s: %w", collection, err)
		}

		raw, err := json.Marshal(doc.Data())
		if err != nil {
			return fmt.Errorf("ListRecords: encode %s/%s: %w", collection, doc.Ref.ID, err)
		}
		if err := visit(raw); err != nil {
			return err
		}
	}
	return nil
}

// ListUserIDs returns every user document ID, including users that only
// exist through subcollections.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	it := s.client.Collection("users").DocumentRefs(ctx)

	var ids []string
	for {
		ref, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListUserIDs: iterate users: %w", err)
		}
		ids = append(ids, ref.ID)
	}

	sort.Strings(ids)
	return ids, nil
}
