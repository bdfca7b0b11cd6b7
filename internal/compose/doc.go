// Package compose merges a base configuration with a set of user overrides.
// The merge is shallow at the top level and one level deep for nested
// mappings, so a base such as {coverageThreshold: {global: {...}}} can have
// its "global" block replaced without restating the rest of the document.
// Dotted keys in an override set address individual leaves. Every call
// allocates a fresh result, so composing is safe from concurrent callers.
package compose
