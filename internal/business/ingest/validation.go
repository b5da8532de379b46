package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ContactRecord is a contact row after decoding.
type ContactRecord struct {
	Name            string                 `json:"name" validate:"required"`
	Email           string                 `json:"email" validate:"required,email"`
	Avatar          string                 `json:"avatar" validate:"omitempty,url"`
	IsActive        *bool                  `json:"isActive"`
	ProductDatasets *DatasetsRecord        `json:"productDatasets"`
}

// DatasetsRecord mirrors model.ProductDatasets with pointer fields where a
// value is required, so an absent key is told apart from zero.
type DatasetsRecord struct {
	Wishlist     []model.WishlistItem `json:"wishlist" validate:"dive"`
	OrderHistory []OrderRecord        `json:"orderHistory" validate:"dive"`
	WatchTime    []WatchTimeRecord    `json:"watchTime" validate:"dive"`
}

type OrderRecord struct {
	ProductID string    `json:"productId" validate:"required"`
	OrderedAt time.Time `json:"orderedAt"`
	Quantity  int       `json:"quantity" validate:"gte=0"`
	Price     *float64  `json:"price" validate:"required,gte=0"`
	Rating    *int      `json:"rating" validate:"omitempty,min=1,max=5"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Brand     string    `json:"brand"`
}

type WatchTimeRecord struct {
	ProductID  string    `json:"productId" validate:"required"`
	TimeSpent  *float64  `json:"timeSpent" validate:"required,gte=0"`
	LastViewed time.Time `json:"lastViewed"`
	ViewCount  int       `json:"viewCount" validate:"gte=0"`
}

// Datasets converts a validated record into the stored form.
func (d DatasetsRecord) Datasets() model.ProductDatasets {
	out := model.ProductDatasets{
		Wishlist:     d.Wishlist,
		OrderHistory: make([]model.OrderItem, 0, len(d.OrderHistory)),
		WatchTime:    make([]model.WatchTimeItem, 0, len(d.WatchTime)),
	}
	for _, o := range d.OrderHistory {
		out.OrderHistory = append(out.OrderHistory, model.OrderItem{
			ProductID: o.ProductID,
			OrderedAt: o.OrderedAt,
			Quantity:  o.Quantity,
			Price:     *o.Price,
			Rating:    o.Rating,
			Name:      o.Name,
			Category:  o.Category,
			Brand:     o.Brand,
		})
	}
	for _, w := range d.WatchTime {
		out.WatchTime = append(out.WatchTime, model.WatchTimeItem{
			ProductID:  w.ProductID,
			TimeSpent:  *w.TimeSpent,
			LastViewed: w.LastViewed,
			ViewCount:  w.ViewCount,
		})
	}
	if out.Wishlist == nil {
		out.Wishlist = []model.WishlistItem{}
	}
	return out
}

// ProductRecord is a product row after decoding. Price may arrive as a number or
// a numeric string.
type ProductRecord struct {
	ProductID     string  `json:"productId" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	Price         any     `json:"price" validate:"required"`
	Brand         string  `json:"brand"`
	Category      string  `json:"category"`
	AverageRating float64 `json:"averageRating" validate:"gte=0,lte=5"`
}

// ValidateRequest checks the request shape before a job is created.
func ValidateRequest(req SubmitRequest) []model.UploadError {
	var errs []model.UploadError
	if req.Contacts == nil && req.Products == nil && strings.TrimSpace(req.URL) == "" {
		errs = append(errs, model.UploadError{
			Kind:    model.UploadErrValidation,
			Message: "Please provide contacts or products records, or a URL",
		})
	}
	if err := validate.Struct(req); err != nil {
		errs = append(errs, fieldErrors(err, 0, "", nil)...)
	}
	return errs
}

// ValidateShape checks that a payload carries at least one record set.
func ValidateShape(p Payload) []model.UploadError {
	if !p.Empty() {
		return nil
	}
	return []model.UploadError{
		{Field: "contacts", Kind: model.UploadErrValidation, Message: "Contacts sheet is required and must be an array"},
		{Field: "products", Kind: model.UploadErrValidation, Message: "Products sheet is required and must be an array"},
	}
}

// DecodeContact decodes and validates one contact row. row is 1-based.
func DecodeContact(row int, data Row) (ContactRecord, []model.UploadError) {
	var rec ContactRecord
	if err := decodeRow(data, &rec); err != nil {
		return rec, []model.UploadError{malformed(row, "contacts", data, err)}
	}
	if err := validate.Struct(rec); err != nil {
		return rec, fieldErrors(err, row, "contacts", data)
	}
	return rec, nil
}

// DecodeProduct decodes and validates one product row and returns it as a
// catalog entry. row is 1-based.
func DecodeProduct(row int, data Row) (model.Product, []model.UploadError) {
	var rec ProductRecord
	if err := decodeRow(data, &rec); err != nil {
		return model.Product{}, []model.UploadError{malformed(row, "products", data, err)}
	}
	if err := validate.Struct(rec); err != nil {
		return model.Product{}, fieldErrors(err, row, "products", data)
	}
	price, ok := parsePrice(rec.Price)
	if !ok {
		return model.Product{}, []model.UploadError{{
			Row:     row,
			Field:   "products.price",
			Kind:    model.UploadErrValidation,
			Message: "Price must be a valid number",
			Data:    data,
		}}
	}
	return model.Product{
		ID:            strings.TrimSpace(rec.ProductID),
		Name:          strings.TrimSpace(rec.Name),
		Brand:         strings.TrimSpace(rec.Brand),
		Category:      strings.TrimSpace(rec.Category),
		Price:         price,
		AverageRating: rec.AverageRating,
	}, nil
}

func decodeRow(data Row, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func parsePrice(v any) (float64, bool) {
	switch p := v.(type) {
	case float64:
		return p, p >= 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		return f, err == nil && f >= 0
	default:
		return 0, false
	}
}

func malformed(row int, set string, data Row, err error) model.UploadError {
	msg := "Row could not be decoded"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return model.UploadError{
			Row:     row,
			Field:   set + "." + typeErr.Field,
			Kind:    model.UploadErrValidation,
			Message: fmt.Sprintf("Field '%s' must be a %s", typeErr.Field, typeErr.Type.Kind()),
			Data:    data,
		}
	}
	return model.UploadError{Row: row, Field: set, Kind: model.UploadErrValidation, Message: msg, Data: data}
}

// fieldErrors converts validator failures into upload errors with readable messages.
func fieldErrors(err error, row int, set string, data Row) []model.UploadError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []model.UploadError{{Row: row, Field: set, Kind: model.UploadErrValidation, Message: err.Error(), Data: data}}
	}
	out := make([]model.UploadError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		path := field
		if parts := strings.SplitN(fe.Namespace(), ".", 2); len(parts) == 2 {
			path = parts[1]
		}
		if set != "" {
			path = set + "." + path
		}
		out = append(out, model.UploadError{
			Row:     row,
			Field:   path,
			Kind:    model.UploadErrValidation,
			Message: fieldMessage(fe.Tag(), field, fe.Param()),
			Data:    data,
		})
	}
	return out
}

func fieldMessage(tag, field, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("Required field '%s' is missing", field)
	case "email":
		return "Invalid email format"
	case "url", "http_url":
		return fmt.Sprintf("Field '%s' must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of: %s", field, param)
	case "min", "gte":
		return fmt.Sprintf("Field '%s' must be at least %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("Field '%s' must be at most %s", field, param)
	default:
		return fmt.Sprintf("Field '%s' failed '%s' validation", field, tag)
	}
}
