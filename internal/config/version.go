package config

// Version is the agent build version reported in the User-Agent header and
// on the status endpoint.
const Version = "0.1.0"
