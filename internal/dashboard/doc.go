// Package dashboard owns the dashboard's control state and is the single
// place where it changes.
//
// Every user action (a slider release, a hazard checkbox, a metric
// dropdown, a brush gesture, a zoom button, an animation tick) is a method
// on Synchronizer. Each method mutates State under one lock, resolves the
// effective record set once, rebuilds markers and all three aggregations
// from that same set, and hands the finished Snapshot to every registered
// Renderer before returning. No renderer can observe a snapshot older than
// another renderer's.
//
// Two drivers may move the year range: the user and the animator. Each
// animation run owns a cancellation token; any manual year change, drag or
// brush activation cancels the token before it touches State, and ticks that
// arrive after cancellation are discarded.
package dashboard
