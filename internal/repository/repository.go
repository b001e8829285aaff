package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/markwave/liveservices/internal/domain"
	"github.com/markwave/liveservices/internal/graph"
)

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// FindUserByMobile fetches the full property bag of the user with the given
// mobile number.
func (r *Repository) FindUserByMobile(ctx context.Context, mobile string) (domain.UserProps, error) {
	return r.findUser(ctx, findUserByMobileCypher, map[string]any{"mobile": mobile})
}

// FindUserByID fetches the full property bag of the user with the given
// generated identifier.
func (r *Repository) FindUserByID(ctx context.Context, id string) (domain.UserProps, error) {
	return r.findUser(ctx, findUserByIDCypher, map[string]any{"id": id})
}

func (r *Repository) findUser(ctx context.Context, cypher string, params map[string]any) (domain.UserProps, error) {
	res, err := r.client.ExecuteRead(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	record, ok := res.Single()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	props, ok := nodeProps(record["u"])
	if !ok {
		return nil, fmt.Errorf("unexpected record shape for user lookup: %T", record["u"])
	}
	return props, nil
}

// CreateUser merges a user node keyed on mobile. The generated identifier is
// assigned inside the ON CREATE branch, so concurrent onboarding calls for
// the same mobile cannot mint two ids; that guarantee is the store's, not
// ours. The initial profile fields are set on both branches, matching the
// merge-or-update behaviour of the onboarding endpoint.
func (r *Repository) CreateUser(ctx context.Context, user domain.NewUser) (domain.UserProps, error) {
	params := map[string]any{
		"mobile":            user.Mobile,
		"first_name":        user.FirstName,
		"last_name":         user.LastName,
		"refered_by_mobile": user.ReferredByMobile,
		"refered_by_name":   user.ReferredByName,
	}

	res, err := r.client.ExecuteWrite(ctx, createUserCypher, params)
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Mobile, err)
	}
	record, ok := res.Single()
	if !ok {
		return nil, fmt.Errorf("create user %s: merge returned no record", user.Mobile)
	}

	return domain.UserProps{
		"id":                toString(record["id"]),
		"mobile":            toString(record["mobile"]),
		"first_name":        toString(record["first_name"]),
		"last_name":         toString(record["last_name"]),
		"refered_by_mobile": toString(record["refered_by_mobile"]),
		"refered_by_name":   toString(record["refered_by_name"]),
	}, nil
}

// UpdateUserByMobile applies a partial update to the user with the given
// mobile number. It returns the updated property bag and the number of
// assignment clauses applied; a vacuous update touches nothing and returns a
// nil bag. Absence of the user is an error, reported before anything is sent
// to the store.
func (r *Repository) UpdateUserByMobile(ctx context.Context, mobile string, update domain.UserUpdate) (domain.UserProps, int, error) {
	return r.updateUser(ctx, findUserByMobileCypher, updateUserByMobileTemplate, "mobile", mobile, update)
}

// UpdateUserByID is UpdateUserByMobile keyed on the generated identifier.
func (r *Repository) UpdateUserByID(ctx context.Context, id string, update domain.UserUpdate) (domain.UserProps, int, error) {
	return r.updateUser(ctx, findUserByIDCypher, updateUserByIDTemplate, "id", id, update)
}

func (r *Repository) updateUser(ctx context.Context, lookupCypher, template, keyName, keyValue string, update domain.UserUpdate) (domain.UserProps, int, error) {
	if _, err := r.findUser(ctx, lookupCypher, map[string]any{keyName: keyValue}); err != nil {
		return nil, 0, err
	}

	clauses, params := BuildUserUpdate(update)
	if len(clauses) == 0 {
		return nil, 0, nil
	}
	params[keyName] = keyValue

	query := fmt.Sprintf(template, strings.Join(clauses, ", "))
	res, err := r.client.ExecuteWrite(ctx, query, params)
	if err != nil {
		return nil, 0, fmt.Errorf("update user %s: %w", keyValue, err)
	}

	record, ok := res.Single()
	if !ok {
		return nil, len(clauses), nil
	}
	props, ok := nodeProps(record["u"])
	if !ok {
		return nil, len(clauses), nil
	}
	return props, len(clauses), nil
}

// FetchVerificationState returns the verified flag and full property bag for
// the user with the given mobile, for the verification endpoint.
func (r *Repository) FetchVerificationState(ctx context.Context, mobile string) (bool, domain.UserProps, error) {
	res, err := r.client.ExecuteRead(ctx, verificationStateCypher, map[string]any{"mobile": mobile})
	if err != nil {
		return false, nil, fmt.Errorf("fetch verification state: %w", err)
	}
	record, ok := res.Single()
	if !ok {
		return false, nil, domain.ErrUserNotFound
	}

	props, _ := nodeProps(record["props"])
	verified, _ := record["verified"].(bool)
	return verified, props, nil
}

// ListReferrals returns users who were referred but are not yet verified.
// An absent verified flag counts as unverified.
func (r *Repository) ListReferrals(ctx context.Context) ([]domain.ReferralSummary, error) {
	res, err := r.client.ExecuteRead(ctx, listReferralsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list referrals query: %w", err)
	}

	users := make([]domain.ReferralSummary, 0, len(res.Records))
	for _, record := range res.Records {
		users = append(users, domain.ReferralSummary{
			ID:               toString(record["id"]),
			Mobile:           toString(record["mobile"]),
			FirstName:        toString(record["first_name"]),
			LastName:         toString(record["last_name"]),
			ReferredByName:   toString(record["refered_by_name"]),
			ReferredByMobile: toString(record["refered_by_mobile"]),
		})
	}
	return users, nil
}

// ListCustomers returns all users carrying verified = true.
func (r *Repository) ListCustomers(ctx context.Context) ([]domain.ReferralSummary, error) {
	res, err := r.client.ExecuteRead(ctx, listCustomersCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list customers query: %w", err)
	}

	users := make([]domain.ReferralSummary, 0, len(res.Records))
	for _, record := range res.Records {
		users = append(users, domain.ReferralSummary{
			ID:               toString(record["id"]),
			Mobile:           toString(record["mobile"]),
			FirstName:        toString(record["first_name"]),
			LastName:         toString(record["last_name"]),
			ReferredByName:   toString(record["refered_by_name"]),
			ReferredByMobile: toString(record["refered_by_mobile"]),
			IsFormFilled:     toBoolPtr(record["isFormFilled"]),
			Verified:         toBoolPtr(record["verified"]),
		})
	}
	return users, nil
}

// GetProduct fetches a single catalog node by id.
func (r *Repository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	res, err := r.client.ExecuteRead(ctx, getProductCypher, map[string]any{"productId": id})
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	record, ok := res.Single()
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	props, ok := nodeProps(record["p"])
	if !ok {
		return domain.Product{}, fmt.Errorf("unexpected record shape for product lookup: %T", record["p"])
	}
	return domain.Product{ID: id, Props: props}, nil
}

// ListProducts returns every catalog node as a property bag.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	res, err := r.client.ExecuteRead(ctx, listProductsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list products query: %w", err)
	}

	products := make([]domain.Product, 0, len(res.Records))
	for _, record := range res.Records {
		props, ok := nodeProps(record["p"])
		if !ok {
			continue
		}
		products = append(products, domain.Product{
			ID:    toString(props["id"]),
			Props: props,
		})
	}
	return products, nil
}

// UpsertProduct merges a catalog node keyed on id, used by the seeding tool.
func (r *Repository) UpsertProduct(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return fmt.Errorf("product id is required")
	}
	props := make(map[string]any, len(product.Props))
	for k, v := range product.Props {
		props[k] = v
	}
	props["id"] = product.ID

	_, err := r.client.ExecuteWrite(ctx, upsertProductCypher, map[string]any{
		"productId": product.ID,
		"props":     props,
	})
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", product.ID, err)
	}
	return nil
}

// RecordPurchase attaches a purchase node to the user with the given mobile.
// When no such user exists the statement matches nothing and the call is a
// no-op, mirroring the append-only, fire-and-forget nature of purchase facts.
func (r *Repository) RecordPurchase(ctx context.Context, purchase domain.Purchase) error {
	params := map[string]any{
		"mobile":     purchase.UserMobile,
		"item":       purchase.Item,
		"details":    purchase.Details,
		"purchaseId": purchase.ID,
	}
	if _, err := r.client.ExecuteWrite(ctx, recordPurchaseCypher, params); err != nil {
		return fmt.Errorf("record purchase for %s: %w", purchase.UserMobile, err)
	}
	return nil
}

func nodeProps(val any) (map[string]any, bool) {
	switch v := val.(type) {
	case dbtype.Node:
		return v.Props, true
	case map[string]any:
		return v, true
	}
	return nil, false
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toBoolPtr(val any) *bool {
	if b, ok := val.(bool); ok {
		return &b
	}
	return nil
}

const findUserByMobileCypher = `
MATCH (u:User {mobile: $mobile})
RETURN u
`

const findUserByIDCypher = `
MATCH (u:User {id: $id})
RETURN u
`

const createUserCypher = `
MERGE (u:User {mobile: $mobile})
ON CREATE SET u.id = randomUUID()
SET u.first_name = $first_name,
    u.last_name = $last_name,
    u.mobile = $mobile,
    u.refered_by_mobile = $refered_by_mobile,
    u.refered_by_name = $refered_by_name
RETURN u.id AS id,
       u.mobile AS mobile,
       u.first_name AS first_name,
       u.last_name AS last_name,
       u.refered_by_mobile AS refered_by_mobile,
       u.refered_by_name AS refered_by_name
`

const updateUserByMobileTemplate = `
MATCH (u:User {mobile: $mobile})
SET %s
RETURN u
`

const updateUserByIDTemplate = `
MATCH (u:User {id: $id})
SET %s
RETURN u
`

const verificationStateCypher = `
MATCH (u:User {mobile: $mobile})
RETURN u.verified AS verified, properties(u) AS props
`

const listReferralsCypher = `
MATCH (u:User)
WHERE u.verified = false OR u.verified IS NULL
RETURN u.id AS id,
       u.mobile AS mobile,
       u.first_name AS first_name,
       u.last_name AS last_name,
       u.refered_by_name AS refered_by_name,
       u.refered_by_mobile AS refered_by_mobile
`

const listCustomersCypher = `
MATCH (u:User {verified: true})
RETURN u.id AS id,
       u.mobile AS mobile,
       u.first_name AS first_name,
       u.last_name AS last_name,
       u.isFormFilled AS isFormFilled,
       u.refered_by_name AS refered_by_name,
       u.refered_by_mobile AS refered_by_mobile,
       u.verified AS verified
`

const getProductCypher = `
MATCH (p:BUFFALO)
WHERE p.id = $productId
RETURN p
`

const listProductsCypher = `
MATCH (p:PRODUCT:BUFFALO)
RETURN p
`

const upsertProductCypher = `
MERGE (p:PRODUCT:BUFFALO {id: $productId})
SET p += $props
`

const recordPurchaseCypher = `
MATCH (u:User {mobile: $mobile})
CREATE (u)-[:PURCHASED {item: $item, details: $details}]->(p:Purchase {id: $purchaseId})
`
