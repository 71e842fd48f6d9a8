package ast

import (
	"fmt"
	"sort"
)

// Tag names a node kind. A tag uniquely determines the field shape and the
// evaluation semantics of a node.
type Tag string

// Kind groups tags that share a field shape. Every Kind maps to exactly one
// concrete Node type.
type Kind string

const (
	KindConstant   Kind = "constant"   // *Constant
	KindFromAPI    Kind = "from_api"   // *FromAPI
	KindFromLocal  Kind = "from_local" // *FromLocal
	KindOperator   Kind = "operator"   // *Operator
	KindComparator Kind = "comparator" // *Comparator (binary)
	KindCheck      Kind = "check"      // *Check (unary)
	KindMatch      Kind = "match"      // *Match
	KindPolicy     Kind = "policy"     // *Policy
	KindLogical    Kind = "logical"    // *Logical
)

// Injectors
const (
	TagConstant  Tag = "Constant"
	TagFromAPI   Tag = "FromAPI"
	TagFromLocal Tag = "FromLocal"
)

// Operators
const (
	TagMax            Tag = "Max"
	TagMin            Tag = "Min"
	TagMode           Tag = "Mode"
	TagMean           Tag = "Mean"
	TagRootMeanSquare Tag = "RootMeanSquare"
	TagMedian         Tag = "Median"
	TagSum            Tag = "Sum"
)

// Binary comparators
const (
	TagIsAfterDate       Tag = "IsAfterDate"
	TagIsBeforeDate      Tag = "IsBeforeDate"
	TagIsOnOrAfterDate   Tag = "IsOnOrAfterDate"
	TagIsOnOrBeforeDate  Tag = "IsOnOrBeforeDate"
	TagIsSameDate        Tag = "IsSameDate"
	TagIsNotSameDate     Tag = "IsNotSameDate"
	TagIsAfterDateTime   Tag = "IsAfterDateTime"
	TagIsBeforeDateTime  Tag = "IsBeforeDateTime"
	TagIsSameDateTime    Tag = "IsSameDateTime"
	TagIsNotSameDateTime Tag = "IsNotSameDateTime"
	TagIsAfterTime       Tag = "IsAfterTime"
	TagIsBeforeTime      Tag = "IsBeforeTime"
	TagIsSameTime        Tag = "IsSameTime"

	TagIsMoreThan   Tag = "IsMoreThan"
	TagIsLessThan   Tag = "IsLessThan"
	TagIsAtLeast    Tag = "IsAtLeast"
	TagIsAtMost     Tag = "IsAtMost"
	TagIsEqualTo    Tag = "IsEqualTo"
	TagIsNotEqualTo Tag = "IsNotEqualTo"

	TagIsSame    Tag = "IsSame"
	TagIsNotSame Tag = "IsNotSame"

	TagIsAfterAlphabetically  Tag = "IsAfterAlphabetically"
	TagIsBeforeAlphabetically Tag = "IsBeforeAlphabetically"
	TagIsSameAlphabetically   Tag = "IsSameAlphabetically"

	TagIsLongerThan   Tag = "IsLongerThan"
	TagIsShorterThan  Tag = "IsShorterThan"
	TagIsSameDuration Tag = "IsSameDuration"

	TagIsSubset      Tag = "IsSubset"
	TagIsSuperset    Tag = "IsSuperset"
	TagIsDisjointSet Tag = "IsDisjointSet"
	TagIsSameSet     Tag = "IsSameSet"
	TagIsNotSameSet  Tag = "IsNotSameSet"

	TagIsMemberOf    Tag = "IsMemberOf"
	TagIsNotMemberOf Tag = "IsNotMemberOf"
)

// Unary checks
const (
	TagIsRealNumber     Tag = "IsRealNumber"
	TagIsInteger        Tag = "IsInteger"
	TagIsBoolean        Tag = "IsBoolean"
	TagIsString         Tag = "IsString"
	TagIsValidDate      Tag = "IsValidDate"
	TagIsValidDateTime  Tag = "IsValidDateTime"
	TagIsValidTime      Tag = "IsValidTime"
	TagIsValidDuration  Tag = "IsValidDuration"
	TagIsValidYearWeek  Tag = "IsValidYearWeek"
	TagIsValidYearMonth Tag = "IsValidYearMonth"
	TagIsEmailAddress   Tag = "IsEmailAddress"
	TagIsURL            Tag = "IsURL"
	TagIsUUID           Tag = "IsUUID"
	TagIsEmpty          Tag = "IsEmpty"
	TagIsNotEmpty       Tag = "IsNotEmpty"
)

// Pattern comparators
const (
	TagMatches      Tag = "Matches"
	TagDoesNotMatch Tag = "DoesNotMatch"
)

// Policy comparators
const (
	TagHasRole     Tag = "HasRole"
	TagHasAnyRole  Tag = "HasAnyRole"
	TagHasAllRoles Tag = "HasAllRoles"
)

// Logical combinators
const (
	TagAnd Tag = "And"
	TagOr  Tag = "Or"
	TagNot Tag = "Not"
)

type tagInfo struct {
	kind     Kind
	datatype Datatype // natural datatype, used when a node omits one
}

var tags = map[Tag]tagInfo{
	TagConstant:  {KindConstant, ""},
	TagFromAPI:   {KindFromAPI, DatatypeAny},
	TagFromLocal: {KindFromLocal, DatatypeAny},

	TagMax:            {KindOperator, DatatypeNumber},
	TagMin:            {KindOperator, DatatypeNumber},
	TagMode:           {KindOperator, DatatypeAny},
	TagMean:           {KindOperator, DatatypeNumber},
	TagRootMeanSquare: {KindOperator, DatatypeNumber},
	TagMedian:         {KindOperator, DatatypeNumber},
	TagSum:            {KindOperator, DatatypeNumber},

	TagIsAfterDate:       {KindComparator, DatatypeDate},
	TagIsBeforeDate:      {KindComparator, DatatypeDate},
	TagIsOnOrAfterDate:   {KindComparator, DatatypeDate},
	TagIsOnOrBeforeDate:  {KindComparator, DatatypeDate},
	TagIsSameDate:        {KindComparator, DatatypeDate},
	TagIsNotSameDate:     {KindComparator, DatatypeDate},
	TagIsAfterDateTime:   {KindComparator, DatatypeDateTime},
	TagIsBeforeDateTime:  {KindComparator, DatatypeDateTime},
	TagIsSameDateTime:    {KindComparator, DatatypeDateTime},
	TagIsNotSameDateTime: {KindComparator, DatatypeDateTime},
	TagIsAfterTime:       {KindComparator, DatatypeTime},
	TagIsBeforeTime:      {KindComparator, DatatypeTime},
	TagIsSameTime:        {KindComparator, DatatypeTime},

	TagIsMoreThan:   {KindComparator, DatatypeNumber},
	TagIsLessThan:   {KindComparator, DatatypeNumber},
	TagIsAtLeast:    {KindComparator, DatatypeNumber},
	TagIsAtMost:     {KindComparator, DatatypeNumber},
	TagIsEqualTo:    {KindComparator, DatatypeNumber},
	TagIsNotEqualTo: {KindComparator, DatatypeNumber},

	TagIsSame:    {KindComparator, DatatypeAny},
	TagIsNotSame: {KindComparator, DatatypeAny},

	TagIsAfterAlphabetically:  {KindComparator, DatatypeString},
	TagIsBeforeAlphabetically: {KindComparator, DatatypeString},
	TagIsSameAlphabetically:   {KindComparator, DatatypeString},

	TagIsLongerThan:   {KindComparator, DatatypeDuration},
	TagIsShorterThan:  {KindComparator, DatatypeDuration},
	TagIsSameDuration: {KindComparator, DatatypeDuration},

	TagIsSubset:      {KindComparator, DatatypeSet},
	TagIsSuperset:    {KindComparator, DatatypeSet},
	TagIsDisjointSet: {KindComparator, DatatypeSet},
	TagIsSameSet:     {KindComparator, DatatypeSet},
	TagIsNotSameSet:  {KindComparator, DatatypeSet},

	TagIsMemberOf:    {KindComparator, DatatypeAny},
	TagIsNotMemberOf: {KindComparator, DatatypeAny},

	TagIsRealNumber:     {KindCheck, DatatypeNumber},
	TagIsInteger:        {KindCheck, DatatypeInteger},
	TagIsBoolean:        {KindCheck, DatatypeBoolean},
	TagIsString:         {KindCheck, DatatypeString},
	TagIsValidDate:      {KindCheck, DatatypeDate},
	TagIsValidDateTime:  {KindCheck, DatatypeDateTime},
	TagIsValidTime:      {KindCheck, DatatypeTime},
	TagIsValidDuration:  {KindCheck, DatatypeDuration},
	TagIsValidYearWeek:  {KindCheck, DatatypeYearWeek},
	TagIsValidYearMonth: {KindCheck, DatatypeYearMonth},
	TagIsEmailAddress:   {KindCheck, DatatypeEmail},
	TagIsURL:            {KindCheck, DatatypeURL},
	TagIsUUID:           {KindCheck, DatatypeUUID},
	TagIsEmpty:          {KindCheck, DatatypeAny},
	TagIsNotEmpty:       {KindCheck, DatatypeAny},

	TagMatches:      {KindMatch, DatatypeString},
	TagDoesNotMatch: {KindMatch, DatatypeString},

	TagHasRole:     {KindPolicy, DatatypeAny},
	TagHasAnyRole:  {KindPolicy, DatatypeAny},
	TagHasAllRoles: {KindPolicy, DatatypeAny},

	TagAnd: {KindLogical, DatatypeBoolean},
	TagOr:  {KindLogical, DatatypeBoolean},
	TagNot: {KindLogical, DatatypeBoolean},
}

// IsValid reports whether the tag names a known node kind.
func (t Tag) IsValid() bool {
	_, ok := tags[t]
	return ok
}

// Kind returns the field-shape family of the tag, or "" for unknown tags.
func (t Tag) Kind() Kind {
	return tags[t].kind
}

// DefaultDatatype returns the datatype a node of this tag produces or
// compares when the node does not declare one.
func (t Tag) DefaultDatatype() Datatype {
	return tags[t].datatype
}

// ParseTag converts a string into a known tag.
func ParseTag(s string) (Tag, error) {
	t := Tag(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown operation tag %q", s)
	}
	return t, nil
}

// Tags returns every known tag in sorted order.
func Tags() []string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

// TagsOfKind returns the known tags of one family in sorted order.
func TagsOfKind(k Kind) []Tag {
	var out []Tag
	for t, info := range tags {
		if info.kind == k {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
