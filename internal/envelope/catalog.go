package envelope

// CustomCharacterID marks "use the uploaded personal photo" inside the
// character selection.
const CustomCharacterID = "custom"

type Palette struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

type Concept struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Tagline     string  `json:"tagline"`
	Description string  `json:"description"`
	Colors      Palette `json:"colors"`
	Prompt      string  `json:"prompt"`
}

type SelectionOption struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	PromptSnippet string `json:"promptSnippet"`
}

// Brand holds the rendering-critical contact block printed on the envelope.
// FileTag and EditionTag only feed download file names.
type Brand struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Showroom   string `json:"showroom"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	FileTag    string `json:"fileTag"`
	EditionTag string `json:"editionTag"`
}

// Catalog is immutable after construction; accessors hand out copies.
type Catalog struct {
	concepts   []Concept
	characters []SelectionOption
	vectors    []SelectionOption
	typography []SelectionOption
	wishes     []string
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		concepts:   append([]Concept(nil), concepts...),
		characters: append([]SelectionOption(nil), characters...),
		vectors:    append([]SelectionOption(nil), vectors...),
		typography: append([]SelectionOption(nil), typography...),
		wishes:     append([]string(nil), wishes...),
	}
}

func DefaultBrand() Brand {
	return Brand{
		Name:       "CÔNG TY TNHH THIẾT BỊ Y TẾ ĐỨC PHƯƠNG",
		Address:    "340 Âu Dương Lân, Phường Chánh Hưng, TP.HCM",
		Showroom:   "12 Đông Hồ, Phường Tân Hòa, TP.HCM",
		Phone:      "0903162808",
		Email:      "ducphuongmedical@gmail.com",
		FileTag:    "DucPhuong",
		EditionTag: "Lixi2026",
	}
}

func (c *Catalog) Concepts() []Concept { return append([]Concept(nil), c.concepts...) }
func (c *Catalog) Characters() []SelectionOption { return append([]SelectionOption(nil), c.characters...) }
func (c *Catalog) Vectors() []SelectionOption { return append([]SelectionOption(nil), c.vectors...) }
func (c *Catalog) Typographies() []SelectionOption { return append([]SelectionOption(nil), c.typography...) }
func (c *Catalog) Wishes() []string { return append([]string(nil), c.wishes...) }

func (c *Catalog) Concept(id string) (Concept, bool) {
	for _, v := range c.concepts {
		if v.ID == id {
			return v, true
		}
	}
	return Concept{}, false
}

func (c *Catalog) Character(id string) (SelectionOption, bool) {
	return findOption(c.characters, id)
}

func (c *Catalog) Vector(id string) (SelectionOption, bool) {
	return findOption(c.vectors, id)
}

func (c *Catalog) Typography(id string) (SelectionOption, bool) {
	return findOption(c.typography, id)
}

func (c *Catalog) Wish(idx int) (string, bool) {
	if idx < 0 || idx >= len(c.wishes) {
		return "", false
	}
	return c.wishes[idx], true
}

func findOption(list []SelectionOption, id string) (SelectionOption, bool) {
	for _, o := range list {
		if o.ID == id {
			return o, true
		}
	}
	return SelectionOption{}, false
}

var concepts = []Concept{
	{
		ID:          "THAN_TAI",
		Name:        "Thần Tài Y Đức",
		Tagline:     "Vui nhộn - Chibi - Rực rỡ",
		Description: "Hình ảnh Ông Thần Tài Chibi cười tít mắt, tay cầm thỏi vàng và túi y tế chữ thập đỏ. Phù hợp phong cách gần gũi, may mắn.",
		Colors:      Palette{Primary: "#e63946", Secondary: "#ffb703", Accent: "#2a9d8f"},
		Prompt:      "High-end Chibi style. Background is festive bright red with gold sparkles. Vibrant colors, luxury finish.",
	},
	{
		ID:          "MA_DAO",
		Name:        "Mã Đáo Thành Công",
		Tagline:     "Sang trọng - Hiện đại - 2026",
		Description: "Hình ảnh chú Ngựa Chibi 2026 thồ quà Tết và trang thiết bị y tế. Nền đỏ nhung họa tiết đồng xu cổ sang trọng.",
		Colors:      Palette{Primary: "#9a031e", Secondary: "#fb8500", Accent: "#f4a261"},
		Prompt:      "A luxury 2026 Year of the Horse theme. Modern Chibi aesthetic. Deep red velvet texture background with subtle golden patterns.",
	},
}

var characters = []SelectionOption{
	{ID: "god_wealth", Label: "Ông Thần Tài", PromptSnippet: "Cute Chibi God of Wealth holding a medical kit and a gold ingot."},
	{ID: "horse_2026", Label: "Chú Ngựa 2026", PromptSnippet: "Playful Chibi Horse with a golden mane, carrying medical equipment baskets."},
	{ID: "lucky_cat", Label: "Mèo Chiêu Tài", PromptSnippet: "Lucky Maneki-neko cat wearing a doctor stethoscope and holding a red envelope."},
	{ID: "cute_child", Label: "Em Bé Chúc Tết", PromptSnippet: "A cute child in a traditional Ao Dai holding a first-aid kit and a blossom branch."},
}

var vectors = []SelectionOption{
	{ID: "blossoms", Label: "Hoa Mai & Đào", PromptSnippet: "Decorated with beautiful yellow apricot blossoms and pink peach flowers."},
	{ID: "coins", Label: "Tiền Vàng & Hũ Vàng", PromptSnippet: "Surrounded by overflowing pots of gold coins and ancient golden currency."},
	{ID: "clouds", Label: "Mây Ngũ Sắc", PromptSnippet: "Stylized traditional colorful Vietnamese clouds and auspicious patterns."},
	{ID: "fireworks", Label: "Pháo Hoa Rực Rỡ", PromptSnippet: "Bursting vibrant fireworks in the background to celebrate the New Year."},
	{ID: "lanterns", Label: "Đèn Lồng Đỏ", PromptSnippet: "Hanging traditional red lanterns with gold tassels."},
	{ID: "drum", Label: "Trống Đồng", PromptSnippet: "Subtle ancient Vietnamese Dong Son drum patterns."},
	{ID: "gold_bars", Label: "Thỏi Vàng", PromptSnippet: "Scattered solid gold bars and ingots."},
	{ID: "swallow", Label: "Chim Én", PromptSnippet: "Graceful spring swallow birds flying in the sky."},
	{ID: "knot", Label: "Nút Thắt May Mắn", PromptSnippet: "Traditional red and gold mystic knots for luck."},
	{ID: "wave", Label: "Sóng Thủy Ba", PromptSnippet: "Classic Vietnamese wavy water patterns at the bottom."},
}

var typography = []SelectionOption{
	{ID: "calligraphy", Label: "Thư Pháp Cổ Điển", PromptSnippet: "Traditional elegant brush calligraphy style. Ensure all Vietnamese accents and diacritics are rendered perfectly."},
	{ID: "modern_bold", Label: "Hiện Đại & Bold", PromptSnippet: "Modern, thick, bold typography with a gold-foil 3D effect. Text must have precise Vietnamese characters and tones."},
	{ID: "playful_chibi", Label: "Vui Nhộn Chibi", PromptSnippet: "Rounded, playful, bubbly font. Must display Vietnamese text accurately with all marks."},
	{ID: "minimal", Label: "Tối Giản Sang Trọng", PromptSnippet: "Clean, thin, minimalist serif font for a high-end luxury feel. Accurate Vietnamese letterforms."},
}

var wishes = []string{
	"Chúc mừng năm mới, vạn sự như ý!",
	"Sức khỏe dồi dào, an khang thịnh vượng.",
	"Cung chúc tân xuân, phát tài phát lộc.",
	"Năm mới thắng lợi mới, mã đáo thành công.",
	"Xuân sang hy vọng, đời thêm vui tươi.",
	"Tấn tài tấn lộc, công danh rạng rỡ.",
	"Vạn sự hanh thông, gia đạo bình an.",
	"Tiền vào như nước, tiền ra nhỏ giọt.",
	"Đong cho đầy hạnh phúc, gói cho trọn lộc tài.",
	"Năm mới bình an, sức khỏe vàng ngàn.",
	"Phúc lộc thọ toàn, vạn sự cát tường.",
	"Ngũ phúc lâm môn, vạn điều như ý.",
	"Xuân ý cát tường, tài lộc đầy nhà.",
	"Tân niên vạn phúc, đắc lộc đắc tài.",
	"Chúc Tết sum vầy, tràn đầy hạnh phúc.",
	"Năm mới giàu sang, bình an vô sự.",
	"Sự nghiệp thăng hoa, công danh toại nguyện.",
	"Sống khỏe, sống vui, sống có ích.",
	"Gặt hái thành công, rực rỡ Bính Ngọ.",
	"Đức Phương Medical chúc mừng năm mới!",
}
