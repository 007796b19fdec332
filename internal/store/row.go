package store

import "time"

// String returns the text value of col, or "" when null
func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}

// Float returns the numeric value of col, or 0 when null
func (r Row) Float(col string) float64 {
	f, _ := r[col].(float64)
	return f
}

// Time returns the timestamp value of col, or the zero time when null
func (r Row) Time(col string) time.Time {
	t, _ := r[col].(time.Time)
	return t
}

// TimePtr returns the timestamp value of col, or nil when null
func (r Row) TimePtr(col string) *time.Time {
	t, ok := r[col].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

// One returns an expanded to-one relation, or nil
func (r Row) One(rel string) Row {
	one, _ := r[rel].(Row)
	return one
}

// Many returns an expanded to-many relation
func (r Row) Many(rel string) []Row {
	many, _ := r[rel].([]Row)
	return many
}
