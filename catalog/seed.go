package catalog

import (
	"context"
	"fmt"
)

// SeedProducts is the built-in catalog installed when the store has none.
var SeedProducts = []Product{
	{ID: "p1", Name: "СЗП", Unit: "litr", Variants: []string{"0.200", "0.250"}},
	{ID: "p2", Name: "Ermassa", Unit: "litr", Variants: []string{"0.199", "0.263"}},
	{ID: "p3", Name: "Ermassa (2A)", Unit: "litr", Variants: []string{"0.199L", "0.263L"}},
	{ID: "p4", Name: "Ermassa (2B - Yuvilgan qon)", Unit: "litr", Variants: []string{"0.199", "0.263"}},
	{ID: "p5", Name: "Tromba", Unit: "litr", Variants: []string{"0.140", "0.400"}},
	{ID: "p6", Name: "Krio", Unit: "Doza", Variants: []string{}},
}

// AuthoritySeed holds the credentials of the central account created on
// first start.
type AuthoritySeed struct {
	Username string
	Password string
	Name     string
}

// EnsureSeed installs the seed products when the catalog is empty and the
// Authority participant when none exists. Existing data is left alone.
func (s *Service) EnsureSeed(ctx context.Context, admin AuthoritySeed) error {
	products, err := s.Store.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	if len(products) == 0 {
		for _, p := range SeedProducts {
			if err := s.Store.SaveProduct(ctx, p); err != nil {
				return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
			}
		}
		s.Log.WithField("count", len(SeedProducts)).Info("seeded product catalog")
	}

	existing, err := s.Store.GetParticipant(ctx, AuthorityParticipantID)
	if err != nil {
		return fmt.Errorf("failed to load authority: %w", err)
	}
	if existing == nil {
		name := admin.Name
		if name == "" {
			name = "Bosh Administrator"
		}
		authority := Participant{
			ID:       AuthorityParticipantID,
			Username: admin.Username,
			Password: admin.Password,
			Name:     name,
			Role:     RoleAuthority,
		}
		if err := s.Store.SaveParticipant(ctx, authority); err != nil {
			return fmt.Errorf("failed to seed authority: %w", err)
		}
		s.Log.WithField("username", admin.Username).Info("seeded central authority account")
	}
	return nil
}
