package eval

import "mercator-hq/opgraph/pkg/opgraph/ast"

// phrases holds the failure phrase of every predicate tag. A failed binary
// comparison reads "<subject> <phrase> <test>.", a failed check reads
// "<subject> <phrase>.".
var phrases = map[ast.Tag]string{
	ast.TagIsAfterDate:       "is not after",
	ast.TagIsBeforeDate:      "is not before",
	ast.TagIsOnOrAfterDate:   "is not on or after",
	ast.TagIsOnOrBeforeDate:  "is not on or before",
	ast.TagIsSameDate:        "is not the same as",
	ast.TagIsNotSameDate:     "is the same as",
	ast.TagIsAfterDateTime:   "is not after",
	ast.TagIsBeforeDateTime:  "is not before",
	ast.TagIsSameDateTime:    "is not the same as",
	ast.TagIsNotSameDateTime: "is the same as",
	ast.TagIsAfterTime:       "is not after",
	ast.TagIsBeforeTime:      "is not before",
	ast.TagIsSameTime:        "is not the same as",

	ast.TagIsMoreThan:   "is not more than",
	ast.TagIsLessThan:   "is not less than",
	ast.TagIsAtLeast:    "is less than",
	ast.TagIsAtMost:     "is more than",
	ast.TagIsEqualTo:    "is not equal to",
	ast.TagIsNotEqualTo: "is equal to",

	ast.TagIsSame:    "is not the same as",
	ast.TagIsNotSame: "is the same as",

	ast.TagIsAfterAlphabetically:  "is not after alphabetically",
	ast.TagIsBeforeAlphabetically: "is not before alphabetically",
	ast.TagIsSameAlphabetically:   "is not the same alphabetically as",

	ast.TagIsLongerThan:   "is not longer than",
	ast.TagIsShorterThan:  "is not shorter than",
	ast.TagIsSameDuration: "is not the same duration as",

	ast.TagIsSubset:      "is not a subset of",
	ast.TagIsSuperset:    "is not a superset of",
	ast.TagIsDisjointSet: "is not disjoint from",
	ast.TagIsSameSet:     "is not the same set as",
	ast.TagIsNotSameSet:  "is the same set as",

	ast.TagIsMemberOf:    "is not a member of",
	ast.TagIsNotMemberOf: "is a member of",

	ast.TagIsRealNumber:     "is not a real number",
	ast.TagIsInteger:        "is not an integer",
	ast.TagIsBoolean:        "is not a boolean",
	ast.TagIsString:         "is not a string",
	ast.TagIsValidDate:      "is not a valid date",
	ast.TagIsValidDateTime:  "is not a valid date and time",
	ast.TagIsValidTime:      "is not a valid time",
	ast.TagIsValidDuration:  "is not a valid duration",
	ast.TagIsValidYearWeek:  "is not a valid year-week",
	ast.TagIsValidYearMonth: "is not a valid year-month",
	ast.TagIsEmailAddress:   "is not an email address",
	ast.TagIsURL:            "is not a URL",
	ast.TagIsUUID:           "is not a UUID",
	ast.TagIsEmpty:          "is not empty",
	ast.TagIsNotEmpty:       "is empty",

	ast.TagHasRole:     "does not have role",
	ast.TagHasAnyRole:  "does not have any of the roles",
	ast.TagHasAllRoles: "does not have all of the roles",
}

// Phrase returns the failure phrase of a predicate tag.
func Phrase(tag ast.Tag) (string, bool) {
	p, ok := phrases[tag]
	return p, ok
}
