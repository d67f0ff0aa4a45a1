// Package scripts embeds the built-in Risor check scripts. Each file under
// checks/ runs once per `lineage check` and reports findings through note().
package scripts

import "embed"

//go:embed checks/*.risor
var FS embed.FS
