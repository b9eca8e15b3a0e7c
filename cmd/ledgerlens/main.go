// Command ledgerlens resolves marketplace project records from a ledger.
package main

import (
	"os"

	"github.com/roach88/ledgerlens/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
