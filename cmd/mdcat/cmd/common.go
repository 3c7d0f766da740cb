package cmd

var (
	flagConfig  string
	flagFail    bool
	flagDetect  bool
	flagNoPager bool
)

var GitCommit string
var Version string
