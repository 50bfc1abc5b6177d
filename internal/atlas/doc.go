// Package atlas reads spine atlas headers and normalizes downloaded spine
// groups to the identity the atlas declares.
//
// A spine group arrives as three sibling files named after the remote URL.
// The atlas names the texture it expects and the texture's pixel size; Parse
// extracts that descriptor and Normalizer renames the group and resizes the
// texture so the files agree with each other.
package atlas
