package dto

import "github.com/shopspring/decimal"

type ParseRequest struct {
	URL string `json:"url" validate:"required,url,max=1000"`
}

func (r ParseRequest) Validate() error {
	return GetValidator().Struct(r)
}

// Recipe is the result of a successful downstream extraction. How the
// extractor produces it (HTML heuristics or an LLM call) is its own
// business; the gate only needs the payload and the usage numbers.
type Recipe struct {
	Title       string   `json:"title"`
	SourceURL   string   `json:"source_url"`
	Ingredients []string `json:"ingredients"`
	Directions  []string `json:"directions"`
	PrepTime    string   `json:"prep_time,omitempty"`
	CookTime    string   `json:"cook_time,omitempty"`
}

// ExtractionResult pairs a recipe with what the extraction cost, so the
// caller can report consumption back into the budget.
type ExtractionResult struct {
	Recipe       *Recipe          `json:"recipe"`
	TokensUsed   int              `json:"tokens_used"`
	CostEstimate *decimal.Decimal `json:"cost_estimate,omitempty"`
}

type ParseResponse struct {
	Recipe    *Recipe `json:"recipe"`
	Remaining int     `json:"remaining"`
}
