package version

// Version identifies the running gateway build. It is sent to Confirmo in the
// X-Payment-Module-Version header and stamped on every audit log entry.
const Version = "1.2.0"

// ModuleName is the caller-identifying value sent in the X-Payment-Module header.
const ModuleName = "confirmo-gateway"
