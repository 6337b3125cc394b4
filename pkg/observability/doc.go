/*
Package observability provides Prometheus metrics for a running emulator.

Metrics are fed by the engine's lifecycle hooks (frames, commands, status
transitions) and by a slog handler that counts generation warnings emitted by
scenarios. Collectors live in their own registry so several emulators can run
in one process.
*/
package observability
