// Package health provides liveness and readiness probes.
//
// A Checker holds named component checks. Liveness always succeeds while the
// process runs; readiness runs every check concurrently, each bounded by the
// checker's timeout, and reports 503 if any of them fails.
//
//	checker := health.New(2 * time.Second)
//	checker.Register("library", func(ctx context.Context) error {
//	    if lib.Len() == 0 {
//	        return errors.New("no trees loaded")
//	    }
//	    return nil
//	})
//	r.Get("/healthz", checker.LivenessHandler())
//	r.Get("/readyz", checker.ReadinessHandler())
package health
