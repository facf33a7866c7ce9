package envelope

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleDefaults(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)

	req := Assemble(st, cat, DefaultBrand(), SideFront)

	assert.Equal(t, "Chúc Mừng Năm Mới 2026", req.Greeting)
	assert.Equal(t, SideFront, req.Side)
	assert.Equal(t, "9:16", req.AspectRatio)
	assert.Equal(t, []string{"Cute Chibi God of Wealth holding a medical kit and a gold ingot."}, req.Characters)
	assert.Equal(t, "Decorated with beautiful yellow apricot blossoms and pink peach flowers.", req.Decorations)
	assert.True(t, strings.HasPrefix(req.Typography, "Traditional elegant brush calligraphy"))
	assert.True(t, strings.HasPrefix(req.ThemePrompt, "High-end Chibi style."))
	assert.Nil(t, req.Logo)
	assert.Nil(t, req.PersonalPhoto)
	assert.Empty(t, req.ReferenceImages())

	text := req.Instruction()
	assert.Contains(t, text, `CHỮ BẮT BUỘC PHẢI HIỂN THỊ (VIẾT ĐÚNG DẤU TIẾNG VIỆT): "Chúc Mừng Năm Mới 2026"`)
	assert.NotContains(t, text, "uploaded photo")
	assert.NotContains(t, text, "uploaded logo")
	assert.True(t, strings.HasSuffix(text, "professional print quality."))
}

func TestAssembleIsDeterministic(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	st.ToggleCharacter(cat, "cute_child")
	st.ToggleVector(cat, "wave")
	st.SetLogo(Image{MimeType: "image/png", Data: []byte{1}})

	a := Assemble(st, cat, DefaultBrand(), SideBack)
	b := Assemble(st, cat, DefaultBrand(), SideBack)

	assert.Equal(t, a, b)
	assert.Equal(t, a.Instruction(), b.Instruction())
}

func TestAssembleUsesCatalogOrder(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	st.ToggleVector(cat, "wave")
	st.ToggleVector(cat, "coins")
	st.ToggleVector(cat, "blossoms")
	st.ToggleCharacter(cat, CustomCharacterID)
	st.ToggleCharacter(cat, "lucky_cat")

	req := Assemble(st, cat, DefaultBrand(), SideFront)

	assert.Equal(t,
		"Surrounded by overflowing pots of gold coins and ancient golden currency. Classic Vietnamese wavy water patterns at the bottom.",
		req.Decorations,
	)
	require.Len(t, req.Characters, 3)
	assert.Contains(t, req.Characters[0], "God of Wealth")
	assert.Contains(t, req.Characters[1], "Maneki-neko")
	assert.Equal(t, "a custom character based on the provided photo", req.Characters[2])
	assert.Contains(t, req.Instruction(), strings.Join(req.Characters, " AND "))
}

func TestAssembleDropsUnknownIDs(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	st.SelectedCharacters = append(st.SelectedCharacters, "ghost")
	st.SelectedVectors = []string{"ghost"}
	st.SelectedTypography = "ghost"
	st.ActiveConcept = "ghost"

	req := Assemble(st, cat, DefaultBrand(), SideFront)

	assert.Len(t, req.Characters, 1)
	assert.Empty(t, req.Decorations)
	assert.Empty(t, req.Typography)
	assert.Empty(t, req.ThemePrompt)
	assert.NotEmpty(t, req.Instruction())
}

func TestAssemblePhotoRequiresCustom(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	photo := Image{MimeType: "image/jpeg", Data: []byte{7}}
	st.SetPersonalPhoto(photo)

	req := Assemble(st, cat, DefaultBrand(), SideFront)
	require.NotNil(t, req.PersonalPhoto)
	assert.Equal(t, photo, *req.PersonalPhoto)
	assert.Contains(t, req.Instruction(), "Incorporate the person from the uploaded photo")

	st.ToggleCharacter(cat, CustomCharacterID)
	req = Assemble(st, cat, DefaultBrand(), SideFront)
	assert.Nil(t, req.PersonalPhoto)
	assert.NotContains(t, req.Instruction(), "uploaded photo")
}

func TestAssembleCustomWithoutPhoto(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	st.ToggleCharacter(cat, CustomCharacterID)

	req := Assemble(st, cat, DefaultBrand(), SideFront)

	assert.Nil(t, req.PersonalPhoto)
	assert.Contains(t, req.Characters, "a custom character based on the provided photo")
	assert.NotContains(t, req.Instruction(), "ALSO:")
}

func TestReferenceImagesOrder(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	logo := Image{MimeType: "image/png", Data: []byte("logo")}
	photo := Image{MimeType: "image/jpeg", Data: []byte("photo")}
	st.SetPersonalPhoto(photo)
	st.SetLogo(logo)

	req := Assemble(st, cat, DefaultBrand(), SideFront)

	assert.Equal(t, []Image{logo, photo}, req.ReferenceImages())
	assert.Contains(t, req.Instruction(), "Use the colors and style from the uploaded logo.")
}

func TestInstructionSideLayout(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	st.SetGreeting("Vạn sự như ý")
	brand := Brand{
		Name:    "CÔNG TY ĐỨC PHƯƠNG",
		Address: "340 Âu Dương Lân",
		Phone:   "0903 162 808",
		Email:   "a@b.vn",
	}

	front := Assemble(st, cat, brand, SideFront).Instruction()
	assert.Contains(t, front, "Mặt trước bao lì xì.")
	assert.Contains(t, front, `"Vạn sự như ý"`)
	assert.Contains(t, front, `Tên thương hiệu: "CÔNG TY ĐỨC PHƯƠNG"`)
	assert.NotContains(t, front, "SĐT")

	back := Assemble(st, cat, brand, SideBack).Instruction()
	assert.Contains(t, back, "Mặt sau bao lì xì.")
	assert.Contains(t, back, `- "CÔNG TY ĐỨC PHƯƠNG"`)
	assert.Contains(t, back, `- Địa chỉ: "340 Âu Dương Lân"`)
	assert.Contains(t, back, `- SĐT: "0903 162 808"`)
	assert.Contains(t, back, `- Email: "a@b.vn"`)
	assert.NotContains(t, back, "Vạn sự như ý")
}

func TestInstructionSectionOrder(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	st.SetPersonalPhoto(Image{MimeType: "image/png", Data: []byte{1}})
	st.SetLogo(Image{MimeType: "image/png", Data: []byte{2}})

	text := Assemble(st, cat, DefaultBrand(), SideFront).Instruction()

	markers := []string{
		"ROLE:",
		"TEXT RENDERING RULES",
		"VISUAL THEME:",
		"CHARACTERS TO COMBINE IN ONE SCENE:",
		"ALSO: Incorporate",
		"DECORATIONS:",
		"TYPOGRAPHY STYLE:",
		"LAYOUT REQUIREMENTS:",
		"Use the colors and style from the uploaded logo.",
		"AESTHETIC:",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(text, m)
		require.GreaterOrEqual(t, idx, 0, m)
		assert.Greater(t, idx, last, m)
		last = idx
	}
}
