package ir

// Version constants reported by the capabilities endpoint and the CLI.
const (
	// NDCVersion is the NDC protocol version range this connector speaks.
	NDCVersion = "^0.1.0"

	// ConnectorVersion is the ndcsqlite release version.
	ConnectorVersion = "0.1.0"
)
