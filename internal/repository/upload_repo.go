package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

// UploadRepository manages ingestion job documents in `data_uploads`.
type UploadRepository struct {
	client *firestore.Client
}

func NewUploadRepository(client *firestore.Client) *UploadRepository {
	return &UploadRepository{client: client}
}

func (r *UploadRepository) Create(ctx context.Context, upload model.DataUpload) error {
	if upload.ID == "" {
		return fmt.Errorf("upload id is required")
	}
	if _, err := r.client.Collection(uploadsCollection).Doc(upload.ID).Create(ctx, upload); err != nil {
		return fmt.Errorf("create upload %s: %w", upload.ID, err)
	}
	return nil
}

// Update overwrites the upload document; progress writes go through here.
func (r *UploadRepository) Update(ctx context.Context, upload model.DataUpload) error {
	if upload.ID == "" {
		return fmt.Errorf("upload id is required")
	}
	if _, err := r.client.Collection(uploadsCollection).Doc(upload.ID).Set(ctx, upload); err != nil {
		return fmt.Errorf("update upload %s: %w", upload.ID, err)
	}
	return nil
}

// Get fetches an upload by id. Returns nil if not found.
func (r *UploadRepository) Get(ctx context.Context, id string) (*model.DataUpload, error) {
	snap, err := r.client.Collection(uploadsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get upload %s: %w", id, err)
	}
	var upload model.DataUpload
	if err := snap.DataTo(&upload); err != nil {
		return nil, decodeErr(snap, err)
	}
	if upload.ID == "" {
		upload.ID = snap.Ref.ID
	}
	return &upload, nil
}
