// Package prometheus renders goGate metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts a [goGate.Engine] and exposes an
// [http.Handler] for mounting on a /metrics route. Counter names are
// prefixed gogate_*_total; the single histogram is
// gogate_flow_duration_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
