package ingest

// Row is one raw record as posted by the client or returned by a URL source.
type Row = map[string]any

// Payload holds the record sets of an upload. A nil slice means the set was not
// supplied at all; an empty slice means it was supplied with no rows.
type Payload struct {
	Contacts []Row `json:"contacts"`
	Products []Row `json:"products"`
}

// Empty reports whether neither record set was supplied.
func (p Payload) Empty() bool {
	return p.Contacts == nil && p.Products == nil
}

// merge fills the sets p lacks from other. Sets already present in p win.
func (p Payload) merge(other Payload) Payload {
	if p.Contacts == nil {
		p.Contacts = other.Contacts
	}
	if p.Products == nil {
		p.Products = other.Products
	}
	return p
}

// SubmitRequest is the body of an upload request. Contacts and products are
// records already parsed from a spreadsheet; URL points at a remote source.
type SubmitRequest struct {
	Contacts []Row  `json:"contacts"`
	Products []Row  `json:"products"`
	URL      string `json:"url" validate:"omitempty,http_url"`
	URLType  string `json:"urlType" validate:"omitempty,oneof=zip api product_pages"`
	FileName string `json:"fileName" validate:"omitempty,max=255"`
}

func (r SubmitRequest) payload() Payload {
	return Payload{Contacts: r.Contacts, Products: r.Products}
}
