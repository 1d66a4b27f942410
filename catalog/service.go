/*
service.go - Catalog, directory and session lookups

PURPOSE:
  Thin operations over the reference data: product CRUD, organization
  CRUD with username uniqueness, login lookup, and notifier settings.

VALIDATION:
  Inputs carry validator tags; failures are returned as validator errors
  (see validation.Fields). Nothing is written on a failed validation.

SEE ALSO:
  - seed.go: Built-in dataset
  - api/handlers.go: HTTP endpoints using this service
*/
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/validation"
)

// AuthorityParticipantID is the directory id of the central account. It is
// the same string as the Authority's ledger owner.
const AuthorityParticipantID = string(ledger.AuthorityID)

type Service struct {
	Store Store
	NewID func(prefix string) string
	Log   logrus.FieldLogger
}

func NewService(store Store) *Service {
	return &Service{
		Store: store,
		NewID: func(prefix string) string { return prefix + "-" + uuid.NewString() },
		Log:   logrus.StandardLogger(),
	}
}

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductInput struct {
	Name     string   `validate:"notblank,max=120"`
	Unit     string   `validate:"notblank,max=40"`
	Variants []string `validate:"dive,max=40"`
}

// normalizeVariants trims, drops blanks and removes duplicates, keeping order.
func normalizeVariants(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool)
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.Store.ListProducts(ctx)
}

// Product returns the product or ErrProductNotFound.
func (s *Service) Product(ctx context.Context, id ledger.ProductID) (Product, error) {
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if p == nil {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return *p, nil
}

// ProductRefs lists the catalog in the form the ledger needs.
func (s *Service) ProductRefs(ctx context.Context) ([]ledger.ProductRef, error) {
	products, err := s.Store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]ledger.ProductRef, len(products))
	for i, p := range products {
		refs[i] = p.Ref()
	}
	return refs, nil
}

func (s *Service) AddProduct(ctx context.Context, in ProductInput) (Product, error) {
	if err := validation.Struct(in); err != nil {
		return Product{}, err
	}
	p := Product{
		ID:       ledger.ProductID(s.NewID("prod")),
		Name:     strings.TrimSpace(in.Name),
		Unit:     strings.TrimSpace(in.Unit),
		Variants: normalizeVariants(in.Variants),
	}
	if err := s.Store.SaveProduct(ctx, p); err != nil {
		return Product{}, fmt.Errorf("failed to save product: %w", err)
	}
	return p, nil
}

// UpdateProduct rewrites a product. Requisitions and transactions keep the
// name/unit they captured.
func (s *Service) UpdateProduct(ctx context.Context, id ledger.ProductID, in ProductInput) (Product, error) {
	if err := validation.Struct(in); err != nil {
		return Product{}, err
	}
	if _, err := s.Product(ctx, id); err != nil {
		return Product{}, err
	}
	p := Product{
		ID:       id,
		Name:     strings.TrimSpace(in.Name),
		Unit:     strings.TrimSpace(in.Unit),
		Variants: normalizeVariants(in.Variants),
	}
	if err := s.Store.SaveProduct(ctx, p); err != nil {
		return Product{}, fmt.Errorf("failed to save product: %w", err)
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id ledger.ProductID) error {
	if _, err := s.Product(ctx, id); err != nil {
		return err
	}
	return s.Store.DeleteProduct(ctx, id)
}

// ResolveVariant applies the variant rules of a product: an empty variant
// selects the first one, an unknown one is rejected, and products without
// variants accept only "".
func ResolveVariant(p Product, variant string) (string, error) {
	variant = strings.TrimSpace(variant)
	if !p.HasVariants() {
		if variant != "" && variant != ledger.NoVariant {
			return "", &VariantError{Product: string(p.ID), Variant: variant}
		}
		return "", nil
	}
	if variant == "" {
		return p.Variants[0], nil
	}
	if !p.HasVariant(variant) {
		return "", &VariantError{Product: string(p.ID), Variant: variant, Allowed: p.Variants}
	}
	return variant, nil
}

// =============================================================================
// PARTICIPANTS
// =============================================================================

type OrganizationInput struct {
	Name     string `validate:"notblank,max=200"`
	Username string `validate:"notblank,max=80"`
	Password string `validate:"notblank,max=200"`
}

// Participant returns a participant or ErrParticipantNotFound.
func (s *Service) Participant(ctx context.Context, id string) (Participant, error) {
	p, err := s.Store.GetParticipant(ctx, id)
	if err != nil {
		return Participant{}, err
	}
	if p == nil {
		return Participant{}, fmt.Errorf("%w: %s", ErrParticipantNotFound, id)
	}
	return *p, nil
}

func (s *Service) ListOrganizations(ctx context.Context) ([]Participant, error) {
	all, err := s.Store.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}
	orgs := make([]Participant, 0, len(all))
	for _, p := range all {
		if p.IsOrganization() {
			orgs = append(orgs, p)
		}
	}
	return orgs, nil
}

// usernameTaken reports whether another participant (not exceptID) uses username.
func (s *Service) usernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	existing, err := s.Store.FindParticipantByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return existing != nil && existing.ID != exceptID, nil
}

func (s *Service) AddOrganization(ctx context.Context, in OrganizationInput) (Participant, error) {
	if err := validation.Struct(in); err != nil {
		return Participant{}, err
	}
	username := strings.TrimSpace(in.Username)
	taken, err := s.usernameTaken(ctx, username, "")
	if err != nil {
		return Participant{}, err
	}
	if taken {
		return Participant{}, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
	}

	org := Participant{
		ID:       s.NewID("org"),
		Username: username,
		Password: in.Password,
		Name:     strings.TrimSpace(in.Name),
		Role:     RoleOrganization,
	}
	if err := s.Store.SaveParticipant(ctx, org); err != nil {
		return Participant{}, fmt.Errorf("failed to save organization: %w", err)
	}
	s.Log.WithFields(logrus.Fields{"org_id": org.ID, "username": org.Username}).Info("organization registered")
	return org, nil
}

func (s *Service) UpdateOrganization(ctx context.Context, id string, in OrganizationInput) (Participant, error) {
	if err := validation.Struct(in); err != nil {
		return Participant{}, err
	}
	current, err := s.Participant(ctx, id)
	if err != nil {
		return Participant{}, err
	}
	if !current.IsOrganization() {
		return Participant{}, ErrAuthorityImmutable
	}
	username := strings.TrimSpace(in.Username)
	taken, err := s.usernameTaken(ctx, username, id)
	if err != nil {
		return Participant{}, err
	}
	if taken {
		return Participant{}, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
	}

	current.Name = strings.TrimSpace(in.Name)
	current.Username = username
	current.Password = in.Password
	if err := s.Store.SaveParticipant(ctx, current); err != nil {
		return Participant{}, fmt.Errorf("failed to save organization: %w", err)
	}
	return current, nil
}

// DeleteOrganization removes an organization from the directory. Its
// requisitions and ledger entries are kept.
func (s *Service) DeleteOrganization(ctx context.Context, id string) error {
	current, err := s.Participant(ctx, id)
	if err != nil {
		return err
	}
	if !current.IsOrganization() {
		return ErrAuthorityImmutable
	}
	return s.Store.DeleteParticipant(ctx, id)
}

// =============================================================================
// SESSION
// =============================================================================

// Authenticate resolves a login to a participant. Plain-text compare.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Participant, error) {
	p, err := s.Store.FindParticipantByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return Participant{}, err
	}
	if p == nil || p.Password != password {
		return Participant{}, ErrInvalidCredentials
	}
	return *p, nil
}

// =============================================================================
// NOTIFIER SETTINGS
// =============================================================================

func (s *Service) NotifierConfig(ctx context.Context) (NotifierConfig, error) {
	return s.Store.LoadNotifierConfig(ctx)
}

func (s *Service) SaveNotifierConfig(ctx context.Context, cfg NotifierConfig) error {
	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	cfg.ChatID = strings.TrimSpace(cfg.ChatID)
	return s.Store.SaveNotifierConfig(ctx, cfg)
}
