package tenant

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default document field names used for tenant ownership
const (
	DefaultCompanyField = "companyId"
	DefaultGroupField   = "companyGroupId"
)

// RepositoryHelper builds tenant-aware MongoDB filters from an explicit Scope.
type RepositoryHelper struct {
	CompanyField string
	GroupField   string
}

// NewRepositoryHelper creates a helper using the default field names
func NewRepositoryHelper() *RepositoryHelper {
	return &RepositoryHelper{
		CompanyField: DefaultCompanyField,
		GroupField:   DefaultGroupField,
	}
}

// WithScopeFilter returns a copy of filter narrowed to the scope.
func (h *RepositoryHelper) WithScopeFilter(scope Scope, filter bson.M) (bson.M, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	scoped := bson.M{}
	for k, v := range filter {
		scoped[k] = v
	}

	if scope.HasGroup() {
		clause := bson.M{"$or": []bson.M{
			{h.CompanyField: scope.CompanyID},
			{h.GroupField: scope.GroupID},
		}}
		// $and keeps a caller-supplied $or intact.
		if existing, ok := scoped["$and"].([]bson.M); ok {
			scoped["$and"] = append(existing, clause)
		} else {
			scoped["$and"] = []bson.M{clause}
		}
	} else {
		scoped[h.CompanyField] = scope.CompanyID
	}

	return scoped, nil
}

// ScopeIndexes returns the indexes every tenant-owned collection needs
func (h *RepositoryHelper) ScopeIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: h.CompanyField, Value: 1}},
			Options: options.Index().SetName("idx_company"),
		},
		{
			Keys:    bson.D{{Key: h.GroupField, Value: 1}},
			Options: options.Index().SetName("idx_company_group").SetSparse(true),
		},
	}
}
