package async

// Loop calls task again and again, each call starting only after the previous
// one returned. It does not pace the calls and does not watch any context
// itself: it returns nil on the first cancellation error (see IsAbort) and
// returns any other error unchanged.
func Loop(task func() error) error {
	for {
		if err := task(); err != nil {
			if IsAbort(err) {
				return nil
			}
			return err
		}
	}
}
