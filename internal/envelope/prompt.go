package envelope

import (
	"fmt"
	"strings"
)

const (
	// AspectRatio matches the printed envelope form factor.
	AspectRatio = "9:16"

	DefaultGreeting = "Chúc Mừng Năm Mới 2026"

	customCharacterSnippet = "a custom character based on the provided photo"
)

// Request is everything the image backend needs for one envelope face.
type Request struct {
	Side          Side
	ThemePrompt   string
	Characters    []string
	Decorations   string
	Typography    string
	Greeting      string
	Logo          *Image
	PersonalPhoto *Image
	Brand         Brand
	AspectRatio   string
}

// ReferenceImages returns the optional inputs in wire order: logo first,
// then the personal photo.
func (r Request) ReferenceImages() []Image {
	var out []Image
	if r.Logo != nil && !r.Logo.IsZero() {
		out = append(out, *r.Logo)
	}
	if r.PersonalPhoto != nil && !r.PersonalPhoto.IsZero() {
		out = append(out, *r.PersonalPhoto)
	}
	return out
}

// Assemble maps the selection to a request for the given side. Lookups walk
// the catalog, so joined snippets follow catalog order rather than the order
// of selection; the custom character always comes last. Unknown ids are
// skipped.
func Assemble(st State, cat *Catalog, brand Brand, side Side) Request {
	req := Request{
		Side:        side,
		Brand:       brand,
		AspectRatio: AspectRatio,
	}

	if concept, ok := cat.Concept(st.ActiveConcept); ok {
		req.ThemePrompt = concept.Prompt
	}

	for _, c := range cat.characters {
		if st.HasCharacter(c.ID) {
			req.Characters = append(req.Characters, c.PromptSnippet)
		}
	}
	hasCustom := st.HasCharacter(CustomCharacterID)
	if hasCustom {
		req.Characters = append(req.Characters, customCharacterSnippet)
	}

	var decorations []string
	for _, v := range cat.vectors {
		if st.HasVector(v.ID) {
			decorations = append(decorations, v.PromptSnippet)
		}
	}
	req.Decorations = strings.Join(decorations, " ")

	if typo, ok := cat.Typography(st.SelectedTypography); ok {
		req.Typography = typo.PromptSnippet
	}

	req.Greeting = strings.TrimSpace(st.GreetingText)
	if req.Greeting == "" {
		req.Greeting = DefaultGreeting
	}

	if st.Logo != nil && !st.Logo.IsZero() {
		logo := cloneImage(*st.Logo)
		req.Logo = &logo
	}
	if hasCustom && st.PersonalPhoto != nil && !st.PersonalPhoto.IsZero() {
		photo := cloneImage(*st.PersonalPhoto)
		req.PersonalPhoto = &photo
	}

	return req
}

// Instruction renders the natural-language prompt. Section order is fixed;
// optional clauses disappear when their input is absent.
func (r Request) Instruction() string {
	var b strings.Builder
	b.Grow(2048)

	b.WriteString("ROLE: Senior Graphic Designer.\n")
	b.WriteString("TASK: Create a professional 2026 Vietnamese Lunar New Year (Bao Li Xi) envelope design.\n\n")

	b.WriteString("TEXT RENDERING RULES (EXTREMELY IMPORTANT):\n")
	for _, line := range []string{
		"You MUST render Vietnamese text with 100% accuracy.",
		"DO NOT skip any diacritics (dấu).",
		`Words like "Chúc", "Mừng", "Mới", "Đức", "Phương", "Chánh", "Hưng" must have correct marks.`,
		"If you are unsure about a character, use a clean, bold sans-serif or calligraphy font that supports UTF-8.",
	} {
		b.WriteString("- " + line + "\n")
	}
	b.WriteString("\n")

	b.WriteString("VISUAL THEME: " + r.ThemePrompt + "\n\n")

	b.WriteString("CHARACTERS TO COMBINE IN ONE SCENE:\n")
	b.WriteString(strings.Join(r.Characters, " AND ") + "\n")
	if r.PersonalPhoto != nil {
		b.WriteString("ALSO: Incorporate the person from the uploaded photo into the scene, stylized as a matching 3D Chibi character.\n")
	}
	b.WriteString("\n")

	b.WriteString("DECORATIONS: " + r.Decorations + "\n")
	b.WriteString("TYPOGRAPHY STYLE: " + r.Typography + "\n\n")

	b.WriteString("LAYOUT REQUIREMENTS:\n")
	b.WriteString(r.layout())
	b.WriteString("\n")

	if r.Logo != nil {
		b.WriteString("Use the colors and style from the uploaded logo.\n\n")
	}

	b.WriteString("AESTHETIC: High-end 3D render, vibrant festive red and gold, luxury gold foil, professional print quality.")

	return b.String()
}

func (r Request) layout() string {
	var b strings.Builder
	if r.Side == SideBack {
		b.WriteString("Mặt sau bao lì xì.\n")
		b.WriteString("THÔNG TIN LIÊN HỆ BẮT BUỘC (VIẾT ĐÚNG DẤU TIẾNG VIỆT):\n")
		b.WriteString(fmt.Sprintf("- \"%s\"\n", r.Brand.Name))
		b.WriteString(fmt.Sprintf("- Địa chỉ: \"%s\"\n", r.Brand.Address))
		b.WriteString(fmt.Sprintf("- SĐT: \"%s\"\n", r.Brand.Phone))
		b.WriteString(fmt.Sprintf("- Email: \"%s\"\n", r.Brand.Email))
		b.WriteString("Phong cách phải đồng bộ hoàn toàn với mặt trước.\n")
		return b.String()
	}

	b.WriteString("Mặt trước bao lì xì.\n")
	b.WriteString(fmt.Sprintf("CHỮ BẮT BUỘC PHẢI HIỂN THỊ (VIẾT ĐÚNG DẤU TIẾNG VIỆT): \"%s\"\n", r.Greeting))
	b.WriteString(fmt.Sprintf("Tên thương hiệu: \"%s\"\n", r.Brand.Name))
	return b.String()
}
