// Package shutdown coordinates graceful process termination.
//
// Components register named hooks; Wait blocks until SIGINT, SIGTERM,
// context cancellation or an explicit Trigger, then runs the hooks in
// reverse registration order under one shared timeout.
//
//	h := shutdown.NewHandler(30*time.Second, shutdown.WithLogger(log))
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
