// Package migrations holds the goose migrations of the users and questions
// tables. SQL files are embedded; Go migrations register themselves on import.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
