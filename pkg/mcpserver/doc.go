// Package mcpserver exposes webprobe as Model Context Protocol tools so
// an agent can drive scans and severity estimates.
//
// Tools:
//   - scan: crawl a target, probe every page, return the annotated report
//   - crawl: crawl only and return the discovered URLs
//   - classify_finding: estimate the severity of one finding
//
// Resources:
//   - webprobe://version: server version and tool inventory
//   - webprobe://model: the trained classifier weights
//
// Transports are stdio (RunStdio) and streamable HTTP (HTTPHandler).
package mcpserver
