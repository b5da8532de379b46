package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/apperr"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/logger"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

// Service accepts uploads and runs them asynchronously on the pool.
type Service struct {
	uploads  UploadStore
	ingestor *Ingestor
	pool     *Pool
	jobs     *JobManager
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(uploads UploadStore, ingestor *Ingestor, pool *Pool, jobs *JobManager, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		uploads:  uploads,
		ingestor: ingestor,
		pool:     pool,
		jobs:     jobs,
		log:      log.With("service", "Ingest"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Submit validates the request, stores a pending upload and queues it. It
// returns without waiting for processing.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (model.DataUpload, error) {
	if errs := ValidateRequest(req); len(errs) > 0 {
		return model.DataUpload{}, apperr.Validation(errs[0].Message)
	}

	now := s.now()
	upload := model.DataUpload{
		ID:               s.newID(),
		UserID:           userID,
		UploadType:       uploadType(req),
		ProcessingStatus: model.UploadPending,
		ProcessingResults: model.ProcessingResults{
			Errors: []model.UploadError{},
		},
		CreatedAt: now,
		ExpiresAt: now.Add(model.UploadTTL),
	}
	if req.FileName != "" {
		upload.ExcelFile = &model.ExcelFile{FileName: req.FileName}
	}
	if url := strings.TrimSpace(req.URL); url != "" {
		typ := req.URLType
		if typ == "" {
			typ = "api"
		}
		upload.URLSource = &model.URLSource{URL: url, Type: typ}
	}

	if err := s.uploads.Create(ctx, upload); err != nil {
		return model.DataUpload{}, apperr.Persistence("create upload", err)
	}

	inline := req.payload()
	err := s.pool.Submit(Job{
		ID: upload.ID,
		Run: func(ctx context.Context) {
			s.ingestor.Process(ctx, upload, inline)
		},
	})
	if err != nil {
		upload.ProcessingStatus = model.UploadFailed
		upload.CompletedAt = s.now()
		upload.ProcessingResults.Errors = append(upload.ProcessingResults.Errors, model.UploadError{
			Kind: model.UploadErrGeneral, Message: err.Error(),
		})
		if uerr := s.uploads.Update(ctx, upload); uerr != nil {
			s.log.Warn("mark upload failed", "uploadId", upload.ID, "error", uerr)
		}
		return model.DataUpload{}, apperr.Persistence("queue upload", err)
	}

	s.log.Info("upload queued", "uploadId", upload.ID, "userId", userID, "type", upload.UploadType,
		"contacts", len(req.Contacts), "products", len(req.Products))
	return upload, nil
}

// Status returns the user's upload.
func (s *Service) Status(ctx context.Context, userID, uploadID string) (model.DataUpload, error) {
	upload, err := s.uploads.Get(ctx, uploadID)
	if err != nil {
		return model.DataUpload{}, apperr.Persistence("load upload", err)
	}
	if upload == nil || upload.UserID != userID {
		return model.DataUpload{}, apperr.NotFound("Upload not found")
	}
	return *upload, nil
}

// Cancel aborts a queued or running upload. The job marks itself failed;
// contacts it already wrote are kept.
func (s *Service) Cancel(ctx context.Context, userID, uploadID string) error {
	upload, err := s.Status(ctx, userID, uploadID)
	if err != nil {
		return err
	}
	if s.jobs.Cancel(uploadID) {
		s.log.Info("upload cancelled", "uploadId", uploadID, "userId", userID)
		return nil
	}
	if upload.ProcessingStatus == model.UploadCompleted || upload.ProcessingStatus == model.UploadFailed {
		return apperr.Validation("upload has already finished")
	}
	return apperr.Validation("upload is not running on this instance")
}

func uploadType(req SubmitRequest) string {
	hasInline := req.Contacts != nil || req.Products != nil
	hasURL := strings.TrimSpace(req.URL) != ""
	switch {
	case hasInline && hasURL:
		return model.UploadTypeBoth
	case hasURL:
		return model.UploadTypeURL
	default:
		return model.UploadTypeExcel
	}
}

// IsQueueFull reports whether err came from a saturated pool.
func IsQueueFull(err error) bool {
	return errors.Is(err, ErrQueueFull)
}
