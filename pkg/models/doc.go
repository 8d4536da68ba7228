// Package models defines the notefolio domain entities and their typed IDs.
//
// Entities are stored in SurrealDB as documents in the "notes" and "folders"
// tables. Typed IDs wrap UUIDs and marshal to SurrealDB RecordIDs in CBOR
// (tag 8) and to plain UUID strings in JSON, so the same structs serve both
// the store layer and the HTTP API.
package models
