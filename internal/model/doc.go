// Package model defines the entities of the shopping data layer.
//
// The entity kinds form a hierarchy rooted at a Store:
//   - Aisle: ordered within a store
//   - Section: ordered within an aisle
//   - Item: the store's catalog, optionally placed in an aisle/section
//   - ShoppingList: a store's lists, usually one active at a time
//   - ListItem: one entry on a list, with a snapshot of its location
//
// Every entity carries Timestamps. A non-nil DeletedAt marks a soft-deleted
// row; default reads never return those.
//
// Input and patch types (NewAisle, ItemPatch, ...) describe mutations. Patch
// fields left nil are not changed. Nullable references use RefUpdate so that
// "leave alone" and "clear" can be told apart.
package model
