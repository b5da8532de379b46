package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weiwei-tsao/friendsfeed/internal/platform/logger"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/metrics"
	"github.com/weiwei-tsao/friendsfeed/internal/repository"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

// progressEvery is how many rows are processed between progress saves.
const progressEvery = 25

// ContactWriter is the contact storage used for merge-by-email.
type ContactWriter interface {
	// FindByEmail returns the contact with the address, or nil.
	FindByEmail(ctx context.Context, email string) (*model.Contact, error)
	// Create fails with repository.ErrAlreadyExists when the contact exists.
	Create(ctx context.Context, c model.Contact) error
	Update(ctx context.Context, c model.Contact) error
}

// ProductWriter upserts catalog entries.
type ProductWriter interface {
	BatchUpsert(ctx context.Context, products []model.Product) error
}

// UploadStore persists upload job documents.
type UploadStore interface {
	Create(ctx context.Context, upload model.DataUpload) error
	Update(ctx context.Context, upload model.DataUpload) error
	Get(ctx context.Context, id string) (*model.DataUpload, error)
}

// Ingestor executes one upload job: fetch, validate, merge, report.
type Ingestor struct {
	contacts ContactWriter
	products ProductWriter
	uploads  UploadStore
	fetcher  PayloadFetcher
	log      *logger.Logger
	now      func() time.Time
}

func NewIngestor(contacts ContactWriter, products ProductWriter, uploads UploadStore, fetcher PayloadFetcher, log *logger.Logger) *Ingestor {
	if log == nil {
		log = logger.Nop()
	}
	return &Ingestor{
		contacts: contacts,
		products: products,
		uploads:  uploads,
		fetcher:  fetcher,
		log:      log.With("component", "Ingestor"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// job carries the mutable state of one run.
type job struct {
	upload *model.DataUpload
	rows   int
}

// Process runs the upload to a terminal status. Inline records are
// authoritative; a URL source only fills the record sets that were not posted.
// Invalid rows are reported and skipped. Cancelling ctx stops the job and marks
// it failed; rows already written stay.
func (in *Ingestor) Process(ctx context.Context, upload model.DataUpload, inline Payload) model.DataUpload {
	j := &job{upload: &upload}
	if err := ctx.Err(); err != nil {
		return in.cancelled(j)
	}

	upload.ProcessingStatus = model.UploadProcessing
	in.save(ctx, j)

	payload := inline
	if src := upload.URLSource; src != nil && src.URL != "" && in.fetcher != nil {
		remote, err := in.fetcher.FetchPayload(ctx, *src)
		if err != nil {
			if ctx.Err() != nil {
				return in.cancelled(j)
			}
			in.record(j, model.UploadError{Field: "url", Kind: model.UploadErrFetch, Message: err.Error()})
		} else {
			src.LastFetched = in.now()
			payload = payload.merge(remote)
		}
	}

	if errs := ValidateShape(payload); len(errs) > 0 {
		in.record(j, errs...)
		return in.finish(ctx, j, model.UploadFailed)
	}

	for i, row := range payload.Contacts {
		if ctx.Err() != nil {
			return in.cancelled(j)
		}
		in.processContact(ctx, j, i+1, row)
		in.tick(ctx, j)
	}

	pending := make([]model.Product, 0, progressEvery)
	pendingRows := make([]int, 0, progressEvery)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := in.products.BatchUpsert(ctx, pending); err != nil {
			for _, row := range pendingRows {
				in.record(j, model.UploadError{
					Row: row, Field: "products", Kind: model.UploadErrPersistence,
					Message: fmt.Sprintf("save product: %v", err),
				})
			}
		} else {
			upload.ProcessingResults.ProductsProcessed += len(pending)
		}
		pending = pending[:0]
		pendingRows = pendingRows[:0]
	}
	for i, row := range payload.Products {
		if ctx.Err() != nil {
			return in.cancelled(j)
		}
		product, errs := DecodeProduct(i+1, row)
		if len(errs) > 0 {
			in.record(j, errs...)
		} else {
			product.CreatedAt = in.now()
			pending = append(pending, product)
			pendingRows = append(pendingRows, i+1)
		}
		if len(pending) == progressEvery {
			flush()
		}
		in.tick(ctx, j)
	}
	flush()

	return in.finish(ctx, j, model.UploadCompleted)
}

// processContact merges one contact row by email.
func (in *Ingestor) processContact(ctx context.Context, j *job, row int, data Row) {
	rec, errs := DecodeContact(row, data)
	if len(errs) > 0 {
		in.record(j, errs...)
		return
	}
	results := &j.upload.ProcessingResults

	created, err := in.upsertContact(ctx, rec)
	if err != nil {
		in.record(j, model.UploadError{
			Row: row, Field: "contact", Kind: model.UploadErrPersistence,
			Message: err.Error(), Data: data,
		})
		return
	}
	if created {
		results.ContactsCreated++
	} else {
		results.ContactsUpdated++
	}
	results.ContactsProcessed++
}

func (in *Ingestor) upsertContact(ctx context.Context, rec ContactRecord) (bool, error) {
	now := in.now()
	existing, err := in.contacts.FindByEmail(ctx, rec.Email)
	if err != nil {
		return false, fmt.Errorf("look up contact: %w", err)
	}
	if existing == nil {
		c := model.Contact{
			ID:       repository.ContactIDForEmail(rec.Email),
			IsActive: true,
		}
		applyRecord(&c, rec)
		c.Touch(now)
		err := in.contacts.Create(ctx, c)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return false, fmt.Errorf("create contact: %w", err)
		}
		// lost a race with another writer; merge into theirs
		if existing, err = in.contacts.FindByEmail(ctx, rec.Email); err != nil || existing == nil {
			return false, fmt.Errorf("reload contact: %w", errors.Join(err, repository.ErrAlreadyExists))
		}
	}

	c := *existing
	applyRecord(&c, rec)
	c.Touch(now)
	if err := in.contacts.Update(ctx, c); err != nil {
		return false, fmt.Errorf("update contact: %w", err)
	}
	return false, nil
}

// applyRecord overlays the supplied fields of rec onto c.
func applyRecord(c *model.Contact, rec ContactRecord) {
	c.Name = rec.Name
	c.Email = rec.Email
	if rec.Avatar != "" {
		c.Avatar = rec.Avatar
	}
	if rec.IsActive != nil {
		c.IsActive = *rec.IsActive
	}
	if rec.ProductDatasets != nil {
		c.ProductDatasets = rec.ProductDatasets.Datasets()
	}
}

func (in *Ingestor) record(j *job, errs ...model.UploadError) {
	for _, e := range errs {
		metrics.UploadRowErrors.WithLabelValues(e.Kind).Inc()
	}
	j.upload.ProcessingResults.Errors = append(j.upload.ProcessingResults.Errors, errs...)
}

func (in *Ingestor) tick(ctx context.Context, j *job) {
	j.rows++
	if j.rows%progressEvery == 0 {
		in.save(ctx, j)
	}
}

func (in *Ingestor) cancelled(j *job) model.DataUpload {
	in.record(j, model.UploadError{Kind: model.UploadErrGeneral, Message: "upload cancelled"})
	return in.finish(context.Background(), j, model.UploadFailed)
}

func (in *Ingestor) finish(ctx context.Context, j *job, status string) model.DataUpload {
	j.upload.ProcessingStatus = status
	j.upload.CompletedAt = in.now()
	// the terminal status must land even if the job context is done
	in.save(context.WithoutCancel(ctx), j)
	metrics.UploadsTotal.WithLabelValues(status).Inc()
	in.log.Info("upload finished", "uploadId", j.upload.ID, "status", status,
		"contactsCreated", j.upload.ProcessingResults.ContactsCreated,
		"contactsUpdated", j.upload.ProcessingResults.ContactsUpdated,
		"productsProcessed", j.upload.ProcessingResults.ProductsProcessed,
		"errors", len(j.upload.ProcessingResults.Errors))
	return *j.upload
}

func (in *Ingestor) save(ctx context.Context, j *job) {
	if err := in.uploads.Update(ctx, *j.upload); err != nil {
		in.log.Warn("save upload progress failed", "uploadId", j.upload.ID, "error", err)
	}
}
