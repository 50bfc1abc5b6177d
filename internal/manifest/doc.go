// Package manifest models the nested JSON manifests that map agents to asset
// paths, and reconciles the vendor manifests shipped with a resource bundle
// against user-authored overrides.
//
// Values are a closed set of variants: Leaf holds a path, List holds the skin
// names of a brand, and Node nests further keys. Merge and FindConflicts
// switch over these variants instead of inspecting decoded JSON at runtime.
//
// Engine owns the four resource files (saves, user_saves, brands and
// user_brands) and keeps three cached views: the combined asset manifest, the
// brand list and the brand to skin map. Saving user data takes an
// inter-process file lock, rejects conflicting writes unless told to
// overwrite, and refreshes the views afterwards.
package manifest
