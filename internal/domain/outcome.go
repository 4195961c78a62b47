package domain

// Stage is the last pipeline step a product reached
type Stage string

const (
	StagePending           Stage = "pending"
	StageProductCreated    Stage = "product_created"
	StageImagesProcessed   Stage = "images_processed"
	StageVariantsProcessed Stage = "variants_processed"
	StageDone              Stage = "done"
)

// OutcomeStatus is the settled state of a product pipeline
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusFailure OutcomeStatus = "failure"
)

// MigrationOutcome records what happened to one product
type MigrationOutcome struct {
	SKU                 string        `json:"sku"`
	ProductID           int64         `json:"productId,omitempty"`
	Status              OutcomeStatus `json:"status"`
	Stage               Stage         `json:"stage"`
	Error               string        `json:"error,omitempty"`
	ImagesAttempted     int           `json:"imagesAttempted"`
	ImagesSucceeded     int           `json:"imagesSucceeded"`
	CombinationsCreated int           `json:"combinationsCreated"`
}

// Report is the result of a whole run, outcomes in submission order
type Report struct {
	Outcomes  []MigrationOutcome `json:"outcomes"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// Failures returns the failed outcomes
func (r Report) Failures() []MigrationOutcome {
	var out []MigrationOutcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailure {
			out = append(out, o)
		}
	}
	return out
}

// Progress is a point-in-time view of a running migration
type Progress struct {
	Total     int  `json:"total"`
	Settled   int  `json:"settled"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	InFlight  int  `json:"inFlight"`
	Running   bool `json:"running"`
}

// Plan summarizes the remote work a product list implies
type Plan struct {
	Products         int `json:"products"`
	VariableProducts int `json:"variableProducts"`
	Combinations     int `json:"combinations"`
	Images           int `json:"images"`
}

// PlanFor counts the calls a migration of products would make
func PlanFor(products []Product) Plan {
	plan := Plan{Products: len(products)}
	for _, p := range products {
		plan.Images += len(p.ImageURLs)
		if p.HasVariants() {
			plan.VariableProducts++
			plan.Combinations += len(p.Sizes)
		}
	}
	return plan
}
