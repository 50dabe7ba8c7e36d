// Package render substitutes literal placeholder tokens in config and asset
// files with values taken from an explicit environment snapshot.
//
// Values for every target are resolved before the first file is touched, so
// a missing required variable leaves all files as they were. Files are then
// processed one at a time and each is rewritten in a single pass.
package render
