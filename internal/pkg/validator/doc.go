// Package validator validates dependency and input structs through struct
// tags, returning field errors keyed in snake_case.
package validator
