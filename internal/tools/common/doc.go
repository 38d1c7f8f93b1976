// Package common holds the argument pipeline shared by all MCP tools.
//
// Arguments pass through two stages before a handler runs. The first stage
// validates surface shape against a declarative ArgumentSchema: types,
// required fields, and pattern constraints. The second stage normalizes
// flexible-list-capable fields, which may carry either a single value or a
// JSON-array-encoded list within a string; see NormalizeFlexibleList for the
// parsing and policy rules. Schemas deliberately accept only strings for
// flexible fields so that shape validation stays uniform and every list
// decision lives in one place.
package common
