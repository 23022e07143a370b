// Package domain holds the persisted record shapes for notes and categories.
//
// Attribute names are part of the storage contract: existing tables hold items
// with exactly these names, so they must not change.
package domain
