// cfgtool inspects and edits config files from the command line
package main

import (
	"fmt"
	"os"

	"github.com/kjk/configfile/log"
)

func main() {
	app := newApp()
	err := newRootCmd(app).Execute()
	log.Close()
	if err != nil {
		fmt.Fprintf(app.Err, "error: %s\n", err)
		os.Exit(1)
	}
}
