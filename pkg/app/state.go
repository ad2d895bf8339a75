package app

// State is the observable part of the service.
type State struct {
	Authenticated bool
	CurrentEmail  string
	Loading       bool
	Syncing       bool
	ErrorMessage  string
}

// State returns a copy of the current state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every state change. The returned func removes it.
func (s *Service) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// update applies change and notifies subscribers outside the lock.
func (s *Service) update(change func(*State)) {
	s.mu.Lock()
	before := s.state
	change(&s.state)
	after := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if before == after {
		return
	}
	for _, fn := range subs {
		fn(after)
	}
}

// finish records the outcome of an operation in the state and passes err on.
func (s *Service) finish(err error) error {
	msg := Message(err, s.language())
	s.update(func(st *State) {
		st.ErrorMessage = msg
	})
	return err
}
