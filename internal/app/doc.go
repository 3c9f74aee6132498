// Package app contains the core application logic. It defines the App
// struct, its validated configuration, and one method per toolchain command,
// decoupled from any specific entrypoint like a CLI or a test harness.
//
// An App owns the process-wide concerns of a run: the logger tagged with a
// run id, the telemetry providers and the optional health check server.
// Every command builds its own module graph, so one App can serve several
// commands in a row.
package app
