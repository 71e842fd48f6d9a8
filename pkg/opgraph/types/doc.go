// Package types reads evaluated values as the datatypes operation nodes
// declare: numbers, calendar dates, times of day, ISO 8601 durations and
// week dates, sets and locale-aware strings.
//
// Every parse failure is returned as an error whose text names the offending
// value, so callers can fold it into a human-readable evaluation message.
package types
