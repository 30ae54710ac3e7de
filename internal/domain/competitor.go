package domain

// ImageInsight summarizes what could be extracted from a single image on a
// competitor page.
type ImageInsight struct {
	Labels        []string `json:"labels"`
	DetectedText  string   `json:"detected_text"`
	Logos         []string `json:"logos"`
	DominantColor string   `json:"dominant_color"`
}

// CompetitorRecord is the structured extraction of one competitor's
// public-facing marketing data. List fields are always non-nil; absent data is
// an empty slice, not an error. Records are never mutated after creation.
type CompetitorRecord struct {
	Name                string         `json:"name"`
	Products            []string       `json:"products"`
	ProductDescriptions []string       `json:"product_descriptions"`
	Prices              []string       `json:"prices"`
	Contact             string         `json:"contact"`
	SocialLinks         []string       `json:"social_links"`
	Headlines           []string       `json:"headlines"`
	Features            []string       `json:"features"`
	Images              []ImageInsight `json:"images"`
}

// NewCompetitorRecord returns a record with every list field initialized so
// callers never see nil slices.
func NewCompetitorRecord(name string) *CompetitorRecord {
	return &CompetitorRecord{
		Name:                name,
		Products:            []string{},
		ProductDescriptions: []string{},
		Prices:              []string{},
		SocialLinks:         []string{},
		Headlines:           []string{},
		Features:            []string{},
		Images:              []ImageInsight{},
	}
}

// Normalize replaces any nil list field with an empty slice. Used after
// decoding records from the cache, where a hand-edited or legacy value could
// carry JSON nulls.
func (r *CompetitorRecord) Normalize() {
	if r.Products == nil {
		r.Products = []string{}
	}
	if r.ProductDescriptions == nil {
		r.ProductDescriptions = []string{}
	}
	if r.Prices == nil {
		r.Prices = []string{}
	}
	if r.SocialLinks == nil {
		r.SocialLinks = []string{}
	}
	if r.Headlines == nil {
		r.Headlines = []string{}
	}
	if r.Features == nil {
		r.Features = []string{}
	}
	if r.Images == nil {
		r.Images = []ImageInsight{}
	}
}
