package envelope

import (
	"fmt"
	"strings"
)

type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

func Sides() []Side { return []Side{SideFront, SideBack} }

func ParseSide(value string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(value))) {
	case SideFront:
		return SideFront, nil
	case SideBack:
		return SideBack, nil
	}
	return "", fmt.Errorf("unknown side %q", value)
}

// State is the selection model of one session. Fields are exported for
// serialization only; mutate through the methods so the invariants hold:
// exactly one concept, side and typography, and non-empty character and
// vector sets.
type State struct {
	ActiveConcept      string                    `json:"activeConcept"`
	Side               Side                      `json:"side"`
	SelectedCharacters []string                  `json:"selectedCharacters"`
	SelectedVectors    []string                  `json:"selectedVectors"`
	SelectedTypography string                    `json:"selectedTypography"`
	GreetingText       string                    `json:"greetingText"`
	Logo               *Image                    `json:"logo,omitempty"`
	PersonalPhoto      *Image                    `json:"personalPhoto,omitempty"`
	Results            map[string]map[Side]Image `json:"results"`
}

func NewState(cat *Catalog) State {
	st := State{
		Side:    SideFront,
		Results: make(map[string]map[Side]Image),
	}
	if len(cat.concepts) > 0 {
		st.ActiveConcept = cat.concepts[0].ID
	}
	if len(cat.characters) > 0 {
		st.SelectedCharacters = []string{cat.characters[0].ID}
	}
	if len(cat.vectors) > 0 {
		st.SelectedVectors = []string{cat.vectors[0].ID}
	}
	if len(cat.typography) > 0 {
		st.SelectedTypography = cat.typography[0].ID
	}
	return st
}

// Clone returns a deep copy safe to hand outside of the owning session.
func (s State) Clone() State {
	out := s
	out.SelectedCharacters = append([]string(nil), s.SelectedCharacters...)
	out.SelectedVectors = append([]string(nil), s.SelectedVectors...)
	if s.Logo != nil {
		logo := cloneImage(*s.Logo)
		out.Logo = &logo
	}
	if s.PersonalPhoto != nil {
		photo := cloneImage(*s.PersonalPhoto)
		out.PersonalPhoto = &photo
	}
	out.Results = make(map[string]map[Side]Image, len(s.Results))
	for concept, bySide := range s.Results {
		m := make(map[Side]Image, len(bySide))
		for side, img := range bySide {
			m[side] = cloneImage(img)
		}
		out.Results[concept] = m
	}
	return out
}

// SelectConcept switches the active concept and resets the side to front.
// Other selections carry over.
func (s *State) SelectConcept(cat *Catalog, id string) bool {
	if _, ok := cat.Concept(id); !ok {
		return false
	}
	s.ActiveConcept = id
	s.Side = SideFront
	return true
}

func (s *State) SetSide(side Side) bool {
	if side != SideFront && side != SideBack {
		return false
	}
	s.Side = side
	return true
}

// ToggleCharacter adds an absent id or removes a present one. Removal is
// refused for the last plain character; custom can always be removed, and
// when it was the only member the first catalog character takes its place.
func (s *State) ToggleCharacter(cat *Catalog, id string) bool {
	if id != CustomCharacterID {
		if _, ok := cat.Character(id); !ok {
			return false
		}
	}

	if !containsString(s.SelectedCharacters, id) {
		s.SelectedCharacters = append(s.SelectedCharacters, id)
		return true
	}

	if len(s.SelectedCharacters) > 1 {
		s.SelectedCharacters = removeString(s.SelectedCharacters, id)
		return true
	}
	if id != CustomCharacterID || len(cat.characters) == 0 {
		return false
	}
	s.SelectedCharacters = []string{cat.characters[0].ID}
	return true
}

func (s *State) ToggleVector(cat *Catalog, id string) bool {
	if _, ok := cat.Vector(id); !ok {
		return false
	}

	if !containsString(s.SelectedVectors, id) {
		s.SelectedVectors = append(s.SelectedVectors, id)
		return true
	}
	if len(s.SelectedVectors) <= 1 {
		return false
	}
	s.SelectedVectors = removeString(s.SelectedVectors, id)
	return true
}

func (s *State) SelectTypography(cat *Catalog, id string) bool {
	if _, ok := cat.Typography(id); !ok {
		return false
	}
	s.SelectedTypography = id
	return true
}

func (s *State) SetGreeting(text string) {
	s.GreetingText = strings.TrimSpace(text)
}

func (s *State) SelectWish(cat *Catalog, idx int) bool {
	wish, ok := cat.Wish(idx)
	if !ok {
		return false
	}
	s.GreetingText = wish
	return true
}

func (s *State) SetLogo(img Image) {
	logo := cloneImage(img)
	s.Logo = &logo
}

func (s *State) ClearLogo() {
	s.Logo = nil
}

// SetPersonalPhoto stores the photo and selects the custom character.
func (s *State) SetPersonalPhoto(img Image) {
	photo := cloneImage(img)
	s.PersonalPhoto = &photo
	if !containsString(s.SelectedCharacters, CustomCharacterID) {
		s.SelectedCharacters = append(s.SelectedCharacters, CustomCharacterID)
	}
}

func (s *State) ClearPersonalPhoto(cat *Catalog) {
	s.PersonalPhoto = nil
	if containsString(s.SelectedCharacters, CustomCharacterID) {
		s.ToggleCharacter(cat, CustomCharacterID)
	}
}

func (s *State) HasCharacter(id string) bool {
	return containsString(s.SelectedCharacters, id)
}

func (s *State) HasVector(id string) bool {
	return containsString(s.SelectedVectors, id)
}

// StoreResult records a generated image for (concept, side), replacing any
// earlier image for the same key only.
func (s *State) StoreResult(concept string, side Side, img Image) {
	if s.Results == nil {
		s.Results = make(map[string]map[Side]Image)
	}
	bySide, ok := s.Results[concept]
	if !ok {
		bySide = make(map[Side]Image, 2)
		s.Results[concept] = bySide
	}
	bySide[side] = cloneImage(img)
}

func (s State) Result(concept string, side Side) (Image, bool) {
	img, ok := s.Results[concept][side]
	if !ok || img.IsZero() {
		return Image{}, false
	}
	return img, true
}

// Preview is the image shown for the active concept and side.
func (s State) Preview() (Image, bool) {
	return s.Result(s.ActiveConcept, s.Side)
}

// DownloadName follows <brand>_<edition>_<concept>_<side>.png.
func DownloadName(brand Brand, concept string, side Side) string {
	parts := []string{brand.FileTag, brand.EditionTag, concept, string(side)}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, strings.ReplaceAll(p, " ", ""))
	}
	return strings.Join(out, "_") + ".png"
}

func cloneImage(img Image) Image {
	img.Data = append([]byte(nil), img.Data...)
	return img
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func removeString(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		if x == v {
			continue
		}
		out = append(out, x)
	}
	return out
}
