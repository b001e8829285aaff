package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/markwave/liveservices/internal/domain"
)

// Dataset contains the generated catalog products and onboarding users.
type Dataset struct {
	Products []domain.Product `json:"products"`
	Users    []domain.NewUser `json:"users"`
}

// Generator produces synthetic catalog and referral data aligned with the
// graph schema.
type Generator struct {
	cfg   Config
	rand  *rand.Rand
	pools namePools
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	if cfg.NumProducts <= 0 {
		cfg.NumProducts = DefaultConfig().NumProducts
	}
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = DefaultConfig().NumUsers
	}
	if cfg.ReferralChance <= 0 {
		cfg.ReferralChance = DefaultConfig().ReferralChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(cfg.Seed)),
		pools: defaultNamePools(),
	}
}

// Generate synthesises products and users. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	products := make([]domain.Product, g.cfg.NumProducts)
	for i := 0; i < g.cfg.NumProducts; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		id := fmt.Sprintf("PRD-%04d", i+1)
		breed := g.pools.breeds[g.rand.Intn(len(g.pools.breeds))]
		ageMonths := 24 + g.rand.Intn(96)
		milkYield := 6 + g.rand.Float64()*12

		products[i] = domain.Product{
			ID: id,
			Props: map[string]any{
				"id":          id,
				"name":        fmt.Sprintf("%s #%d", breed, i+1),
				"breed":       breed,
				"age_months":  ageMonths,
				"price":       float64(40000 + g.rand.Intn(160000)),
				"milk_yield":  milkYield,
				"location":    g.pools.cities[g.rand.Intn(len(g.pools.cities))],
				"image_url":   fmt.Sprintf("https://cdn.markwave.in/catalog/%s.jpg", id),
				"description": g.pools.notes[g.rand.Intn(len(g.pools.notes))],
			},
		}
	}

	users := make([]domain.NewUser, g.cfg.NumUsers)
	for i := 0; i < g.cfg.NumUsers; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		first := g.pools.firstNames[g.rand.Intn(len(g.pools.firstNames))]
		last := g.pools.lastNames[g.rand.Intn(len(g.pools.lastNames))]
		user := domain.NewUser{
			Mobile:    g.randomMobile(),
			FirstName: first,
			LastName:  last,
		}

		// Later users may be referred by an earlier one; the rest fall back
		// to the campaign desk number.
		if i > 0 && g.rand.Float64() < g.cfg.ReferralChance {
			referrer := users[g.rand.Intn(i)]
			user.ReferredByMobile = referrer.Mobile
			user.ReferredByName = fmt.Sprintf("%s %s", referrer.FirstName, referrer.LastName)
		} else {
			user.ReferredByMobile = "9000000000"
			user.ReferredByName = "Markwave Desk"
		}

		users[i] = user
	}

	return Dataset{Products: products, Users: users}, nil
}

func (g *Generator) randomMobile() string {
	return fmt.Sprintf("9%09d", g.rand.Intn(1000000000))
}

type namePools struct {
	firstNames []string
	lastNames  []string
	breeds     []string
	cities     []string
	notes      []string
}

func defaultNamePools() namePools {
	return namePools{
		firstNames: []string{"Ramesh", "Suresh", "Priya", "Anita", "Vikram", "Kavita", "Arjun", "Meena", "Sanjay", "Pooja", "Rahul", "Deepa"},
		lastNames:  []string{"Patel", "Sharma", "Reddy", "Yadav", "Singh", "Kumar", "Desai", "Chauhan", "Naik", "Joshi"},
		breeds:     []string{"Murrah", "Jaffarabadi", "Mehsana", "Nili-Ravi", "Surti", "Bhadawari", "Pandharpuri", "Banni"},
		cities:     []string{"Ahmedabad", "Pune", "Nagpur", "Hyderabad", "Indore", "Jaipur", "Lucknow", "Coimbatore"},
		notes:      []string{"Healthy and vaccinated", "Second lactation", "High daily yield", "Calm temperament", "Recently calved"},
	}
}
