// Package isbn implements ISBN-13 normalization, check-digit validation, and
// composition of ISBNs from block parts.
//
// All functions are pure; callers own persistence and uniqueness concerns.
package isbn
