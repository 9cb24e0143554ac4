package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/repcue-sync/internal/client"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	root := client.NewRootCommand(nil)
	root.Version = versionString()

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func versionString() string {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	return fmt.Sprintf("%s (date %s, commit %s)", buildVersion, buildDate, buildCommit)
}
