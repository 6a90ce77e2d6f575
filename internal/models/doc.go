// Package models defines the domain records persisted by the point-of-sale backend.
//
// # Tenancy
//
// Every record belongs to exactly one Business. Services read the business id
// from the authenticated session and pass it to every storage call, so one
// business never sees another's catalog, sales or sequences.
//
// # Money
//
// Amounts are shopspring decimals and are stored as exact decimal text, never
// as floating point.
//
// # Relationships
//
// Records reference each other by ID string rather than by pointer. A Sale
// embeds its items because they are always read and written together.
package models
