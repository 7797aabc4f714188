// Command myh2o is a hydration tracker: it logs drinks, adjusts the daily
// water goal for dehydrating beverages and keeps reminders in step with the
// user's sleep schedule.
package main

import (
	"os"

	// Embedded zone database for --tz.
	_ "time/tzdata"

	"github.com/roach88/myh2o/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
