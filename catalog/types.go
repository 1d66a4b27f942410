/*
Package catalog holds the reference data: products, participants and the
notifier settings.

PURPOSE:
  Products and participants are referenced by id from requisitions and
  ledger entries. Those records copy the names they need at creation time,
  so edits and deletes here never alter history.

KEY TYPES:
  Product:        Named product with a unit and optional variants
  Participant:    The Authority (central warehouse) or an Organization
  NotifierConfig: Chat-bot credentials used by the notify package

SEE ALSO:
  - service.go: Catalog and directory operations, login lookup
  - seed.go: Built-in dataset installed on first start
*/
package catalog

import (
	"github.com/warp/supply-ledger/ledger"
)

// =============================================================================
// PRODUCTS
// =============================================================================

type Product struct {
	ID       ledger.ProductID `json:"id"`
	Name     string           `json:"name"`
	Unit     string           `json:"unit"`
	Variants []string         `json:"variants"`
}

// HasVariants reports whether the product is sold in enumerated variants.
func (p Product) HasVariants() bool { return len(p.Variants) > 0 }

// HasVariant reports whether v is one of the product's variants.
func (p Product) HasVariant(v string) bool {
	for _, known := range p.Variants {
		if known == v {
			return true
		}
	}
	return false
}

// Ref returns the view the ledger uses for full warehouse listings.
func (p Product) Ref() ledger.ProductRef {
	return ledger.ProductRef{ID: p.ID, Name: p.Name, Variants: p.Variants}
}

// =============================================================================
// PARTICIPANTS
// =============================================================================

type Role string

const (
	RoleAuthority    Role = "admin"
	RoleOrganization Role = "org"
)

// Participant is a directory entry. Password is compared in plain text;
// credential security is out of scope for this tracker.
type Participant struct {
	ID       string
	Username string
	Password string
	Name     string
	Role     Role
}

func (p Participant) IsAuthority() bool    { return p.Role == RoleAuthority }
func (p Participant) IsOrganization() bool { return p.Role == RoleOrganization }

// Owner returns the ledger this participant owns.
func (p Participant) Owner() ledger.OwnerID {
	if p.IsAuthority() {
		return ledger.AuthorityID
	}
	return ledger.OwnerID(p.ID)
}

// =============================================================================
// NOTIFIER SETTINGS
// =============================================================================

type NotifierConfig struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

// Enabled reports whether both credentials are set.
func (c NotifierConfig) Enabled() bool { return c.BotToken != "" && c.ChatID != "" }
