// Package migrations embeds the schema files for the history backends.
package migrations

import "embed"

// Oracle holds numbered .up.sql/.down.sql files under oracle/, one statement
// per file.
//
//go:embed oracle/*.sql
var Oracle embed.FS

// Mongo holds golang-migrate mongodb command files under mongo/.
//
//go:embed mongo/*.json
var Mongo embed.FS

const (
	OracleDir = "oracle"
	MongoDir  = "mongo"
)
