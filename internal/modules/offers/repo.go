package offers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("offer not found")

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) FindByCode(ctx context.Context, code string) (Offer, error) {
	var o Offer
	err := r.db.WithContext(ctx).
		First(&o, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Offer{}, ErrNotFound
	}
	return o, err
}

// AppliesTo reports whether the offer covers at least one of the given
// product ids. Offers without scoping apply to everything.
func (o Offer) AppliesTo(productIDs []string) bool {
	if len(o.ProductIDs) == 0 {
		return true
	}
	var scoped []string
	if err := json.Unmarshal(o.ProductIDs, &scoped); err != nil || len(scoped) == 0 {
		return true
	}
	in := make(map[string]bool, len(scoped))
	for _, id := range scoped {
		in[id] = true
	}
	for _, id := range productIDs {
		if in[id] {
			return true
		}
	}
	return false
}
