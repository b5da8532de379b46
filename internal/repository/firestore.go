package repository

import (
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names.
const (
	contactsCollection = "contacts"
	feedsCollection    = "friends_feeds"
	uploadsCollection  = "data_uploads"
	productsCollection = "products"
	usersCollection    = "users"
)

// Firestore caps a write batch at 500 operations.
const batchSize = 400

// ErrAlreadyExists is returned by Create methods when the document exists.
var ErrAlreadyExists = errors.New("document already exists")

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// decodeAll decodes every snapshot into T, filling the document id through setID
// when the stored document lacks one.
func decodeAll[T any](snaps []*firestore.DocumentSnapshot, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, decodeErr(snap, err)
		}
		if setID != nil {
			setID(&v, snap.Ref.ID)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeErr(snap *firestore.DocumentSnapshot, err error) error {
	return &decodeError{collection: snap.Ref.Parent.ID, id: snap.Ref.ID, err: err}
}

type decodeError struct {
	collection string
	id         string
	err        error
}

func (e *decodeError) Error() string {
	return "decode " + e.collection + "/" + e.id + ": " + e.err.Error()
}

func (e *decodeError) Unwrap() error { return e.err }
