package envelope

import (
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateDefaults(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)

	assert.Equal(t, "THAN_TAI", st.ActiveConcept)
	assert.Equal(t, SideFront, st.Side)
	assert.Equal(t, []string{"god_wealth"}, st.SelectedCharacters)
	assert.Equal(t, []string{"blossoms"}, st.SelectedVectors)
	assert.Equal(t, "calligraphy", st.SelectedTypography)
	assert.Empty(t, st.GreetingText)
	assert.Nil(t, st.Logo)
	assert.Nil(t, st.PersonalPhoto)
	assert.Empty(t, st.Results)
}

func TestToggleCharacter(t *testing.T) {
	cat := DefaultCatalog()

	t.Run("sole character cannot be removed", func(t *testing.T) {
		st := NewState(cat)
		assert.False(t, st.ToggleCharacter(cat, "god_wealth"))
		assert.Equal(t, []string{"god_wealth"}, st.SelectedCharacters)
	})

	t.Run("add second then remove first", func(t *testing.T) {
		st := NewState(cat)
		require.True(t, st.ToggleCharacter(cat, "lucky_cat"))
		require.True(t, st.ToggleCharacter(cat, "god_wealth"))
		assert.Equal(t, []string{"lucky_cat"}, st.SelectedCharacters)
	})

	t.Run("unknown id is ignored", func(t *testing.T) {
		st := NewState(cat)
		assert.False(t, st.ToggleCharacter(cat, "dragon"))
		assert.Equal(t, []string{"god_wealth"}, st.SelectedCharacters)
	})

	t.Run("custom is removable next to a plain character", func(t *testing.T) {
		st := NewState(cat)
		require.True(t, st.ToggleCharacter(cat, CustomCharacterID))
		require.True(t, st.ToggleCharacter(cat, CustomCharacterID))
		assert.Equal(t, []string{"god_wealth"}, st.SelectedCharacters)
	})

	t.Run("removing a sole custom falls back to the first character", func(t *testing.T) {
		st := NewState(cat)
		require.True(t, st.ToggleCharacter(cat, CustomCharacterID))
		require.True(t, st.ToggleCharacter(cat, "god_wealth"))
		require.Equal(t, []string{CustomCharacterID}, st.SelectedCharacters)

		assert.True(t, st.ToggleCharacter(cat, CustomCharacterID))
		assert.Equal(t, []string{"god_wealth"}, st.SelectedCharacters)
	})
}

func TestToggleVector(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)

	assert.False(t, st.ToggleVector(cat, "blossoms"))
	assert.Equal(t, []string{"blossoms"}, st.SelectedVectors)

	require.True(t, st.ToggleVector(cat, "lanterns"))
	require.True(t, st.ToggleVector(cat, "blossoms"))
	assert.Equal(t, []string{"lanterns"}, st.SelectedVectors)

	assert.False(t, st.ToggleVector(cat, "nope"))
}

func TestRandomTogglesKeepSetsNonEmpty(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)

	charIDs := []string{CustomCharacterID, "dragon"}
	for _, c := range cat.Characters() {
		charIDs = append(charIDs, c.ID)
	}
	vecIDs := []string{"nope"}
	for _, v := range cat.Vectors() {
		vecIDs = append(vecIDs, v.ID)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		st.ToggleCharacter(cat, charIDs[rng.Intn(len(charIDs))])
		st.ToggleVector(cat, vecIDs[rng.Intn(len(vecIDs))])
		if rng.Intn(10) == 0 {
			st.ClearPersonalPhoto(cat)
		}

		require.NotEmpty(t, st.SelectedCharacters, "step %d", i)
		require.NotEmpty(t, st.SelectedVectors, "step %d", i)
		assert.NotContains(t, st.SelectedCharacters, "dragon")
		assert.NotContains(t, st.SelectedVectors, "nope")
	}
}

func TestSelectConcept(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	st.ToggleCharacter(cat, "horse_2026")
	st.SetGreeting("Xin chào")
	st.SetSide(SideBack)

	require.True(t, st.SelectConcept(cat, "MA_DAO"))
	assert.Equal(t, "MA_DAO", st.ActiveConcept)
	assert.Equal(t, SideFront, st.Side)
	assert.Equal(t, []string{"god_wealth", "horse_2026"}, st.SelectedCharacters)
	assert.Equal(t, "Xin chào", st.GreetingText)

	st.SetSide(SideBack)
	assert.False(t, st.SelectConcept(cat, "UNKNOWN"))
	assert.Equal(t, "MA_DAO", st.ActiveConcept)
	assert.Equal(t, SideBack, st.Side)
}

func TestSideAndTypographyStayValid(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)

	assert.False(t, st.SetSide(Side("top")))
	assert.Equal(t, SideFront, st.Side)

	assert.False(t, st.SelectTypography(cat, "comic_sans"))
	assert.Equal(t, "calligraphy", st.SelectedTypography)

	assert.True(t, st.SelectTypography(cat, "minimal"))
	assert.Equal(t, "minimal", st.SelectedTypography)
}

func TestParseSide(t *testing.T) {
	side, err := ParseSide(" Back ")
	require.NoError(t, err)
	assert.Equal(t, SideBack, side)

	_, err = ParseSide("inside")
	assert.Error(t, err)
}

func TestSetPersonalPhotoSelectsCustom(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)

	st.SetPersonalPhoto(Image{MimeType: "image/png", Data: []byte{1, 2, 3}})
	assert.Equal(t, []string{"god_wealth", CustomCharacterID}, st.SelectedCharacters)

	st.SetPersonalPhoto(Image{MimeType: "image/png", Data: []byte{4}})
	assert.Equal(t, []string{"god_wealth", CustomCharacterID}, st.SelectedCharacters)

	st.ClearPersonalPhoto(cat)
	assert.Nil(t, st.PersonalPhoto)
	assert.Equal(t, []string{"god_wealth"}, st.SelectedCharacters)
}

func TestUploadRoundTrip(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	raw := pngBytes(t)
	want := append([]byte(nil), raw...)

	img, err := NewImage(raw, "image/png")
	require.NoError(t, err)
	st.SetLogo(img)
	st.SetPersonalPhoto(img)
	raw[0] = 0

	require.NotNil(t, st.Logo)
	assert.Equal(t, want, st.Logo.Data)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(want), st.PersonalPhoto.DataURL())
}

func TestSelectWish(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)

	require.True(t, st.SelectWish(cat, 3))
	assert.Equal(t, "Năm mới thắng lợi mới, mã đáo thành công.", st.GreetingText)
	assert.False(t, st.SelectWish(cat, 99))
}

func TestStoreResultIsPerSide(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	front := Image{MimeType: "image/png", Data: []byte("front")}
	back := Image{MimeType: "image/png", Data: []byte("back")}

	st.StoreResult("THAN_TAI", SideFront, front)
	st.StoreResult("THAN_TAI", SideBack, back)

	got, ok := st.Result("THAN_TAI", SideFront)
	require.True(t, ok)
	assert.Equal(t, front, got)

	st.StoreResult("THAN_TAI", SideBack, Image{MimeType: "image/png", Data: []byte("back2")})
	got, _ = st.Result("THAN_TAI", SideFront)
	assert.Equal(t, front, got)
	got, _ = st.Result("THAN_TAI", SideBack)
	assert.Equal(t, []byte("back2"), got.Data)

	_, ok = st.Result("MA_DAO", SideFront)
	assert.False(t, ok)

	preview, ok := st.Preview()
	require.True(t, ok)
	assert.Equal(t, front, preview)
}

func TestCloneIsDeep(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	st.SetLogo(Image{MimeType: "image/png", Data: []byte{1}})
	st.StoreResult("THAN_TAI", SideFront, Image{MimeType: "image/png", Data: []byte{2}})

	cp := st.Clone()
	cp.SelectedCharacters[0] = "x"
	cp.Logo.Data[0] = 9
	cp.Results["THAN_TAI"][SideFront] = Image{}

	assert.Equal(t, "god_wealth", st.SelectedCharacters[0])
	assert.Equal(t, byte(1), st.Logo.Data[0])
	_, ok := st.Result("THAN_TAI", SideFront)
	assert.True(t, ok)
}

func TestStateJSON(t *testing.T) {
	cat := DefaultCatalog()
	st := NewState(cat)
	st.StoreResult("MA_DAO", SideBack, Image{MimeType: "image/png", Data: []byte("x")})

	raw, err := json.Marshal(st)
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, st, decoded)
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "DucPhuong_Lixi2026_THAN_TAI_front.png", DownloadName(DefaultBrand(), "THAN_TAI", SideFront))
	assert.Equal(t, "Acme_MA_DAO_back.png", DownloadName(Brand{FileTag: "Ac me"}, "MA_DAO", SideBack))
}
