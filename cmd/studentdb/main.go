// studentdb is the entry point of the student records service.
//
// RUNNING THE SERVER:
//
//	go run ./cmd/studentdb serve --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/studentdb serve
//
// Every other subcommand (student, import, export, account, chat) opens the
// same storage directly; see `studentdb --help`.
package main

import (
	"os"

	"github.com/aanand-mishra/studentdb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
