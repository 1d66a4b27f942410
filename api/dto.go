/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  domain types in ledger, catalog and requisition.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry `validate` tags checked with validation.Struct
  before the domain call. Domain services validate again on their own
  inputs.

SEE ALSO:
  - handlers.go: Uses these types
  - validation/validator.go: Custom tags
*/
package api

import (
	"time"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/requisition"
	"github.com/warp/supply-ledger/validation"
)

// =============================================================================
// SESSION
// =============================================================================

type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

// ParticipantDTO never carries the password.
type ParticipantDTO struct {
	ID       string       `json:"id"`
	Username string       `json:"username"`
	Name     string       `json:"name"`
	Role     catalog.Role `json:"role"`
}

func toParticipantDTO(p catalog.Participant) ParticipantDTO {
	return ParticipantDTO{ID: p.ID, Username: p.Username, Name: p.Name, Role: p.Role}
}

// =============================================================================
// CATALOG
// =============================================================================

type ProductRequest struct {
	Name     string   `json:"name"`
	Unit     string   `json:"unit"`
	Variants []string `json:"variants"`
}

func (r ProductRequest) input() catalog.ProductInput {
	return catalog.ProductInput{Name: r.Name, Unit: r.Unit, Variants: r.Variants}
}

type OrganizationRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r OrganizationRequest) input() catalog.OrganizationInput {
	return catalog.OrganizationInput{Name: r.Name, Username: r.Username, Password: r.Password}
}

// =============================================================================
// REQUISITIONS
// =============================================================================

type CreateRequisitionRequest struct {
	ProductID  string `json:"product_id"`
	Variant    string `json:"variant"`
	BloodGroup string `json:"blood_group"`
	Quantity   int    `json:"quantity"`
	Comment    string `json:"comment"`
}

func (r CreateRequisitionRequest) draft() requisition.Draft {
	return requisition.Draft{
		ProductID:  ledger.ProductID(r.ProductID),
		Variant:    r.Variant,
		BloodGroup: r.BloodGroup,
		Quantity:   r.Quantity,
		Comment:    r.Comment,
	}
}

// EditRequisitionRequest is a partial update; omitted fields stay.
type EditRequisitionRequest struct {
	ProductID  *string `json:"product_id"`
	Variant    *string `json:"variant"`
	BloodGroup *string `json:"blood_group"`
	Quantity   *int    `json:"quantity"`
	Comment    *string `json:"comment"`
}

func (r EditRequisitionRequest) patch() requisition.Patch {
	p := requisition.Patch{
		Variant:    r.Variant,
		BloodGroup: r.BloodGroup,
		Quantity:   r.Quantity,
		Comment:    r.Comment,
	}
	if r.ProductID != nil {
		id := ledger.ProductID(*r.ProductID)
		p.ProductID = &id
	}
	return p
}

type StatusRequest struct {
	Status string `json:"status" validate:"oneof=pending approved rejected"`
}

// StatusChangeDTO is the result of a status change with the ledger
// entries it wrote (empty when the transition had no effect).
type StatusChangeDTO struct {
	Requisition  requisition.Requisition   `json:"requisition"`
	Effect       requisition.Effect        `json:"effect"`
	Transactions []ledger.StockTransaction `json:"transactions"`
}

// =============================================================================
// STOCK
// =============================================================================

type StockEntryRequest struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
	Comment   string `json:"comment"`
}

// StockEntryDTO reports whether an entry was written. Recorded=false means
// the request was a no-op (non-positive quantity or unknown product).
type StockEntryDTO struct {
	Recorded    bool                     `json:"recorded"`
	Transaction *ledger.StockTransaction `json:"transaction,omitempty"`
}

type WarehouseDTO struct {
	Owner    ledger.OwnerID   `json:"owner"`
	Balances []ledger.Balance `json:"balances"`
}

// =============================================================================
// REPORTS / SETTINGS
// =============================================================================

type AnalysisDTO struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

type NotifierSettingsDTO struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
	Enabled  bool   `json:"enabled"`
}

type NotifierSettingsRequest struct {
	BotToken string `json:"bot_token" validate:"max=200"`
	ChatID   string `json:"chat_id" validate:"max=100"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Details string                  `json:"details,omitempty"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}
