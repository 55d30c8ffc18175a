package mongodb

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mantenix/inventory-service/internal/domain"
)

// ToFilter translates a predicate tree into a query document
func ToFilter(p domain.Predicate) bson.M {
	switch {
	case len(p.And) > 0:
		return bson.M{"$and": toFilters(p.And)}
	case len(p.Or) > 0:
		return bson.M{"$or": toFilters(p.Or)}
	case !p.IsLeaf():
		return bson.M{}
	}

	switch p.Op {
	case domain.OpIn:
		return bson.M{p.Field: bson.M{"$in": p.Value}}
	case domain.OpGte:
		return bson.M{p.Field: bson.M{"$gte": p.Value}}
	case domain.OpLte:
		return bson.M{p.Field: bson.M{"$lte": p.Value}}
	case domain.OpContains:
		text, _ := p.Value.(string)
		return bson.M{p.Field: primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}}
	default:
		return bson.M{p.Field: p.Value}
	}
}

func toFilters(ps []domain.Predicate) []bson.M {
	out := make([]bson.M, len(ps))
	for i, p := range ps {
		out[i] = ToFilter(p)
	}
	return out
}
