package handlers

import "sync"

const (
	menuMain       = "main"
	menuConcept    = "concept"
	menuCharacters = "characters"
	menuVectors    = "vectors"
	menuTypography = "typography"
	menuWishes     = "wishes"
	menuUploads    = "uploads"
)

type awaitKind int

const (
	awaitNothing awaitKind = iota
	awaitGreeting
	awaitLogo
	awaitPhoto
)

// wizardState is chat UI bookkeeping only; the design itself lives in the
// studio session.
type wizardState struct {
	Menu      string
	MessageID int
	Awaiting  awaitKind
}

type wizardStore struct {
	mu     sync.Mutex
	states map[string]wizardState
}

func newWizardStore() *wizardStore {
	return &wizardStore{states: make(map[string]wizardState)}
}

func (s *wizardStore) Get(id string) wizardState {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.states[id]
	if !ok || w.Menu == "" {
		w.Menu = menuMain
	}
	return w
}

func (s *wizardStore) Update(id string, fn func(*wizardState)) wizardState {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.states[id]
	if w.Menu == "" {
		w.Menu = menuMain
	}
	fn(&w)
	s.states[id] = w
	return w
}
