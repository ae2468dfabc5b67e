package internal

// Version is the application version reported by the CLI and window title
const Version = "0.3.0"
