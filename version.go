package tendril

// Version is the release of the library and of the tendril CLI.
var Version = "0.3.0"
