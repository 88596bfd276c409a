package post

import "time"

func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) SetIDGenerator(fn func() (string, error)) { s.newID = fn }
