package payments

import "time"

// SetNow overrides the service clock for tests in package payments_test.
func SetNow(s *Service, now func() time.Time) { s.now = now }
