package db

import (
	"go.mongodb.org/mongo-driver/bson"
)

// FilterBuilder helps build MongoDB filters fluently
type FilterBuilder struct {
	filter bson.M
}

// NewFilter creates a new FilterBuilder
func NewFilter() *FilterBuilder {
	return &FilterBuilder{filter: bson.M{}}
}

// Eq adds an equality condition
func (f *FilterBuilder) Eq(field string, value interface{}) *FilterBuilder {
	f.filter[field] = value
	return f
}

// Ne adds a not-equal condition
func (f *FilterBuilder) Ne(field string, value interface{}) *FilterBuilder {
	f.filter[field] = bson.M{"$ne": value}
	return f
}

// In adds an $in condition (value in array)
func (f *FilterBuilder) In(field string, values interface{}) *FilterBuilder {
	f.filter[field] = bson.M{"$in": values}
	return f
}

// Or combines multiple filters with OR
func (f *FilterBuilder) Or(filters ...bson.M) *FilterBuilder {
	if len(filters) > 0 {
		f.filter["$or"] = filters
	}
	return f
}

// Between matches documents where (fromField, toField) is (a, b) in either direction
func (f *FilterBuilder) Between(fromField, toField string, a, b interface{}) *FilterBuilder {
	return f.Or(
		bson.M{fromField: a, toField: b},
		bson.M{fromField: b, toField: a},
	)
}

// Involving matches documents where either field equals id
func (f *FilterBuilder) Involving(fieldA, fieldB string, id interface{}) *FilterBuilder {
	return f.Or(
		bson.M{fieldA: id},
		bson.M{fieldB: id},
	)
}

// Build returns the final bson.M filter
func (f *FilterBuilder) Build() bson.M {
	return f.filter
}
