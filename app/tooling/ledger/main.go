// This program is the command line tool for appending to and reading the
// ledger stored on local disk.
package main

import "github.com/ardanlabs/powledger/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
