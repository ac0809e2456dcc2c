package main

import (
	"github.com/alecthomas/kong"

	"github.com/sellertools/feedreport/cmd"
	"github.com/sellertools/feedreport/model"
	"github.com/sellertools/feedreport/version"
)

// CLI is the top level command tree.
type CLI struct {
	model.Globals

	Fetch   cmd.FetchCmd   `cmd:"" help:"Fetch processing reports for feed submissions."`
	Archive cmd.ArchiveCmd `cmd:"" help:"Fetch reports and archive the raw documents."`
	List    cmd.ListCmd    `cmd:"" help:"List previously archived reports."`
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("feedreport"),
		kong.Description("Client for marketplace feed submission processing reports."),
		kong.UsageOnError(),
		kong.Vars{"version": version.GetFullVersion()},
	)

	if cli.Debug {
		model.SetDebugMode(true)
	}

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
