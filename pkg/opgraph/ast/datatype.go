package ast

import "fmt"

// Datatype is the semantic type a node claims to produce or compare. The set
// is closed; unknown names are rejected when a tree is decoded.
type Datatype string

const (
	DatatypeBoolean   Datatype = "Boolean"
	DatatypeInteger   Datatype = "Integer"
	DatatypeNumber    Datatype = "Number"
	DatatypeString    Datatype = "String"
	DatatypeDate      Datatype = "Date"      // 2006-01-02
	DatatypeDateTime  Datatype = "DateTime"  // RFC 3339
	DatatypeTime      Datatype = "Time"      // 15:04[:05]
	DatatypeDuration  Datatype = "Duration"  // ISO 8601 duration, e.g. P1DT2H
	DatatypeYearWeek  Datatype = "YearWeek"  // ISO week, e.g. 2024-W07
	DatatypeYearMonth Datatype = "YearMonth" // 2024-02
	DatatypeEmail     Datatype = "Email"
	DatatypeURL       Datatype = "URL"
	DatatypeUUID      Datatype = "UUID"
	DatatypeSet       Datatype = "Set"
	DatatypeList      Datatype = "List"
	DatatypeObject    Datatype = "Object"
	DatatypeAny       Datatype = "Any"
)

var datatypes = map[Datatype]struct{}{
	DatatypeBoolean:   {},
	DatatypeInteger:   {},
	DatatypeNumber:    {},
	DatatypeString:    {},
	DatatypeDate:      {},
	DatatypeDateTime:  {},
	DatatypeTime:      {},
	DatatypeDuration:  {},
	DatatypeYearWeek:  {},
	DatatypeYearMonth: {},
	DatatypeEmail:     {},
	DatatypeURL:       {},
	DatatypeUUID:      {},
	DatatypeSet:       {},
	DatatypeList:      {},
	DatatypeObject:    {},
	DatatypeAny:       {},
}

// IsValid reports whether d is one of the known datatypes.
func (d Datatype) IsValid() bool {
	_, ok := datatypes[d]
	return ok
}

// ParseDatatype converts a string into a known datatype.
func ParseDatatype(s string) (Datatype, error) {
	d := Datatype(s)
	if !d.IsValid() {
		return "", fmt.Errorf("unknown datatype %q", s)
	}
	return d, nil
}

// IsNumeric returns true for Integer and Number.
func (d Datatype) IsNumeric() bool {
	return d == DatatypeInteger || d == DatatypeNumber
}

// IsTemporal returns true for datatypes with a chronological ordering.
func (d Datatype) IsTemporal() bool {
	switch d {
	case DatatypeDate, DatatypeDateTime, DatatypeTime, DatatypeYearWeek, DatatypeYearMonth:
		return true
	}
	return false
}

// IsCollection returns true for Set and List.
func (d Datatype) IsCollection() bool {
	return d == DatatypeSet || d == DatatypeList
}

// IsTextual returns true for datatypes whose values are carried as strings.
func (d Datatype) IsTextual() bool {
	switch d {
	case DatatypeString, DatatypeDate, DatatypeDateTime, DatatypeTime, DatatypeDuration,
		DatatypeYearWeek, DatatypeYearMonth, DatatypeEmail, DatatypeURL, DatatypeUUID:
		return true
	}
	return false
}

// IsOrdered returns true for datatypes that Max and Min can fold.
func (d Datatype) IsOrdered() bool {
	return d.IsNumeric() || d.IsTemporal() || d == DatatypeString || d == DatatypeDuration
}
