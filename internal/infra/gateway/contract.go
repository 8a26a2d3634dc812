package gateway

// Card types accepted by the gateway.
const (
	CardTypeCreature    = "creature"
	CardTypeSpell       = "spell"
	CardTypeArtifact    = "artifact"
	CardTypeIncantation = "incantation"
	CardTypeAnthem      = "anthem"
)

// Health statuses reported by the gateway and each backing service.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthError    = "error"
)

// Import job statuses.
const (
	ImportStarted    = "started"
	ImportProcessing = "processing"
	ImportCompleted  = "completed"
	ImportFailed     = "failed"
)

// CardData is the card payload shared by generate and analyze requests.
type CardData struct {
	Name     string            `json:"name"               validate:"required"`
	Cost     int               `json:"cost"               validate:"min=0,max=99"`
	CardType string            `json:"card_type"          validate:"required,oneof=creature spell artifact incantation anthem"`
	Effect   string            `json:"effect"             validate:"required"`
	Keywords []string          `json:"keywords"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// GenerateCardRequest is the body of POST /cards/generate.
type GenerateCardRequest = CardData

// AnalyzeCardRequest is the body of POST /cards/analyze.
type AnalyzeCardRequest = CardData

// GenerateCardResponse is returned by POST /cards/generate.
type GenerateCardResponse struct {
	ID       string            `json:"id"                 validate:"required,uuid"`
	Name     string            `json:"name"               validate:"required"`
	CardType string            `json:"card_type"          validate:"required"`
	Tags     []string          `json:"tags"               validate:"required"`
	Metadata map[string]string `json:"metadata"           validate:"required"`
	ImageURL string            `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Status   string            `json:"status"             validate:"required,oneof=success processing failed"`
}

// CardResponse is returned by GET /cards/{id}.
type CardResponse struct {
	ID       string            `json:"id"                 validate:"required,uuid"`
	Name     string            `json:"name"               validate:"required"`
	Cost     *float64          `json:"cost"               validate:"required"`
	CardType string            `json:"card_type"          validate:"required"`
	Effect   string            `json:"effect"             validate:"required"`
	Tags     []string          `json:"tags"               validate:"required"`
	Metadata map[string]string `json:"metadata"           validate:"required"`
	ImageURL string            `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// AnalyzeCardResponse is returned by POST /cards/analyze.
type AnalyzeCardResponse struct {
	Tags         []string          `json:"tags"         validate:"required"`
	SynergyScore *float64          `json:"synergyScore" validate:"required,min=0,max=10"`
	TribalTags   []string          `json:"tribalTags"   validate:"required"`
	Metadata     map[string]string `json:"metadata"     validate:"required"`
}

// ImportRequest describes a CSV upload. CardType and DryRun are optional.
type ImportRequest struct {
	FileName string `validate:"required"`
	Content  []byte
	CardType string `validate:"omitempty,oneof=creature spell artifact incantation anthem"`
	DryRun   *bool
}

// ImportCSVResponse is returned by POST /import/csv.
type ImportCSVResponse struct {
	JobID  string `json:"jobId"  validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=started processing completed failed"`
}

// ImportStatusResponse is returned by GET /import/{jobId}/status.
type ImportStatusResponse struct {
	JobID         string   `json:"jobId"         validate:"required,uuid"`
	Status        string   `json:"status"        validate:"required,oneof=processing completed failed"`
	ImportedCount *int     `json:"importedCount" validate:"required"`
	TotalCount    *int     `json:"totalCount"    validate:"required"`
	Errors        []string `json:"errors"        validate:"required"`
}

// Done reports whether the job reached a terminal status.
func (s *ImportStatusResponse) Done() bool {
	return s.Status == ImportCompleted || s.Status == ImportFailed
}

// ClearCardsResponse is returned by DELETE /admin/cards.
type ClearCardsResponse struct {
	ClearedCount *int `json:"clearedCount" validate:"required"`
}

// ServiceHealth is the health of one backing service.
type ServiceHealth struct {
	Status string `json:"status"           validate:"required,oneof=ok degraded error"`
	Uptime string `json:"uptime,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string                   `json:"status"   validate:"required,oneof=ok degraded error"`
	Services map[string]ServiceHealth `json:"services" validate:"required,dive"`
}
