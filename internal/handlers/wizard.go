package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lixi-studio/internal/envelope"
	"lixi-studio/internal/session"
)

const wizardCallbackPrefix = "lx"

type callbackData struct {
	OwnerID int64
	Action  string
	Args    []string
}

func parseCallback(data string) (callbackData, bool) {
	data = strings.TrimSpace(data)
	if !strings.HasPrefix(data, wizardCallbackPrefix+":") {
		return callbackData{}, false
	}

	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return callbackData{}, false
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return callbackData{}, false
	}
	return callbackData{OwnerID: ownerID, Action: parts[2], Args: parts[3:]}, true
}

func (c callbackData) arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}
	cbd, ok := parseCallback(q.Data)
	if !ok {
		return nil
	}
	if cbd.OwnerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "Menu này không dành cho bạn.", true)
		return nil
	}

	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID
	id := sessionID(chatID, cbd.OwnerID)

	h.wizards.Update(id, func(w *wizardState) { w.MessageID = msgID })

	switch cbd.Action {
	case "menu":
		h.setMenu(id, cbd.arg(0))
	case "concept":
		h.studio.Apply(id, func(st *envelope.State, cat *envelope.Catalog) { st.SelectConcept(cat, cbd.arg(0)) })
		h.setMenu(id, menuMain)
	case "char":
		h.studio.Apply(id, func(st *envelope.State, cat *envelope.Catalog) { st.ToggleCharacter(cat, cbd.arg(0)) })
	case "vec":
		h.studio.Apply(id, func(st *envelope.State, cat *envelope.Catalog) { st.ToggleVector(cat, cbd.arg(0)) })
	case "typo":
		h.studio.Apply(id, func(st *envelope.State, cat *envelope.Catalog) { st.SelectTypography(cat, cbd.arg(0)) })
		h.setMenu(id, menuMain)
	case "wish":
		if idx, err := strconv.Atoi(cbd.arg(0)); err == nil {
			h.studio.Apply(id, func(st *envelope.State, cat *envelope.Catalog) { st.SelectWish(cat, idx) })
		}
		h.setMenu(id, menuMain)
	case "side":
		if side, err := envelope.ParseSide(cbd.arg(0)); err == nil {
			h.studio.Apply(id, func(st *envelope.State, _ *envelope.Catalog) { st.SetSide(side) })
		}
	case "greeting":
		h.wizards.Update(id, func(w *wizardState) { w.Awaiting = awaitGreeting })
		_ = h.tg.AnswerCallback(q.ID, "Gửi lời chúc (hủy: /cancel).", false)
		_ = h.tg.SendText(chatID, "✍️ Gửi lời chúc bạn muốn in lên mặt trước (hủy: /cancel).")
		return h.renderWizard(chatID, cbd.OwnerID, msgID, true)
	case "upload":
		await := awaitPhoto
		prompt := "📷 Gửi ảnh cá nhân của bạn."
		if cbd.arg(0) == "logo" {
			await = awaitLogo
			prompt = "🏷 Gửi ảnh logo thương hiệu."
		}
		h.wizards.Update(id, func(w *wizardState) { w.Awaiting = await })
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		_ = h.tg.SendText(chatID, prompt+" (hủy: /cancel)")
		return h.renderWizard(chatID, cbd.OwnerID, msgID, true)
	case "clear":
		if cbd.arg(0) == "logo" {
			h.studio.ClearLogo(id)
		} else {
			h.studio.ClearPhoto(id)
		}
	case "prompt":
		side, err := envelope.ParseSide(cbd.arg(0))
		if err != nil {
			side = h.studio.Session(id).State.Side
		}
		_ = h.tg.AnswerCallback(q.ID, "Đang gửi prompt…", false)
		_ = h.tg.SendText(chatID, h.studio.Prompt(id, side))
		return nil
	case "gen":
		sides := envelope.Sides()
		if side, err := envelope.ParseSide(cbd.arg(0)); err == nil {
			sides = []envelope.Side{side}
		}
		if inFlight(h.studio.Session(id), sides) {
			_ = h.tg.AnswerCallback(q.ID, "Đang tạo ảnh, vui lòng đợi.", true)
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, "Đang tạo…", false)
		if err := h.generate(ctx, chatID, cbd.OwnerID, sides); err != nil {
			return err
		}
		return h.renderWizard(chatID, cbd.OwnerID, 0, false)
	case "dl":
		_ = h.tg.AnswerCallback(q.ID, "Đang gửi file…", false)
		return h.download(chatID, cbd.OwnerID)
	case "reset":
		h.studio.Reset(id)
		h.wizards.Update(id, func(w *wizardState) {
			w.Menu = menuMain
			w.Awaiting = awaitNothing
		})
	case "close":
		h.wizards.Update(id, func(w *wizardState) {
			w.Menu = menuMain
			w.Awaiting = awaitNothing
		})
	}

	_ = h.tg.AnswerCallback(q.ID, "OK", false)
	return h.renderWizard(chatID, cbd.OwnerID, msgID, true)
}

func inFlight(sess session.Session, sides []envelope.Side) bool {
	for _, side := range sides {
		if sess.IsGenerating(side) {
			return true
		}
	}
	return false
}

func (h *Handler) setMenu(id, menu string) {
	switch menu {
	case menuMain, menuConcept, menuCharacters, menuVectors, menuTypography, menuWishes, menuUploads:
	default:
		menu = menuMain
	}
	h.wizards.Update(id, func(w *wizardState) { w.Menu = menu })
}

func (h *Handler) renderWizard(chatID, userID int64, messageID int, edit bool) error {
	id := sessionID(chatID, userID)
	w := h.wizards.Get(id)
	if messageID == 0 {
		messageID = w.MessageID
	}

	sess := h.studio.Session(id)
	text := wizardText(h.studio.Catalog(), sess, w)
	kb := wizardKeyboard(h.studio.Catalog(), userID, sess.State, w)

	if edit && messageID != 0 {
		if err := h.tg.EditTextWithKeyboard(chatID, messageID, text, kb); err == nil {
			return nil
		}
	}

	msgID, err := h.tg.SendTextWithKeyboard(chatID, text, kb)
	if err != nil {
		return err
	}
	h.wizards.Update(id, func(w *wizardState) { w.MessageID = msgID })
	return nil
}

func wizardText(cat *envelope.Catalog, sess session.Session, w wizardState) string {
	st := sess.State

	concept := st.ActiveConcept
	if c, ok := cat.Concept(st.ActiveConcept); ok {
		concept = c.Name
	}

	var chars []string
	for _, c := range cat.Characters() {
		if st.HasCharacter(c.ID) {
			chars = append(chars, c.Label)
		}
	}
	if st.HasCharacter(envelope.CustomCharacterID) {
		chars = append(chars, "Nhân vật tùy chỉnh")
	}

	var vecs []string
	for _, v := range cat.Vectors() {
		if st.HasVector(v.ID) {
			vecs = append(vecs, v.Label)
		}
	}

	typo := st.SelectedTypography
	if t, ok := cat.Typography(st.SelectedTypography); ok {
		typo = t.Label
	}

	greeting := strings.TrimSpace(st.GreetingText)
	if greeting == "" {
		greeting = envelope.DefaultGreeting + " (mặc định)"
	}

	var b strings.Builder
	b.WriteString("🧧 Lì Xì Studio 2026\n\n")
	b.WriteString(fmt.Sprintf("Chủ đề: %s\n", concept))
	b.WriteString(fmt.Sprintf("Nhân vật: %s\n", strings.Join(chars, ", ")))
	b.WriteString(fmt.Sprintf("Họa tiết: %s\n", strings.Join(vecs, ", ")))
	b.WriteString(fmt.Sprintf("Kiểu chữ: %s\n", typo))
	b.WriteString(fmt.Sprintf("Lời chúc: %s\n", truncateLine(greeting, 80)))
	b.WriteString(fmt.Sprintf("Logo: %s, Ảnh cá nhân: %s\n", mark(st.Logo != nil), mark(st.PersonalPhoto != nil)))
	b.WriteString(fmt.Sprintf("Đang xem: %s\n", sideLabel(st.Side)))

	for _, side := range envelope.Sides() {
		status := "chưa tạo"
		if _, ok := st.Result(st.ActiveConcept, side); ok {
			status = "đã có ảnh ✅"
		}
		if sess.IsGenerating(side) {
			status = "đang tạo ⏳"
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", sideLabel(side), status))
	}

	if sess.Error != "" {
		b.WriteString("\n⚠️ " + sess.Error + "\n")
	}

	switch w.Awaiting {
	case awaitGreeting:
		b.WriteString("\n✍️ Đang chờ lời chúc (hủy: /cancel).\n")
	case awaitLogo:
		b.WriteString("\n🏷 Đang chờ ảnh logo (hủy: /cancel).\n")
	case awaitPhoto:
		b.WriteString("\n📷 Đang chờ ảnh cá nhân (hủy: /cancel).\n")
	}

	if w.Menu == menuConcept {
		b.WriteString("\n")
		for _, c := range cat.Concepts() {
			b.WriteString(fmt.Sprintf("• %s: %s\n", c.Name, c.Tagline))
		}
	}

	return strings.TrimSpace(b.String())
}

func wizardKeyboard(cat *envelope.Catalog, ownerID int64, st envelope.State, w wizardState) tgbotapi.InlineKeyboardMarkup {
	switch w.Menu {
	case menuConcept:
		return conceptKeyboard(cat, ownerID, st)
	case menuCharacters:
		return optionKeyboard(ownerID, "char", cat.Characters(), st.HasCharacter, true)
	case menuVectors:
		return optionKeyboard(ownerID, "vec", cat.Vectors(), st.HasVector, true)
	case menuTypography:
		return optionKeyboard(ownerID, "typo", cat.Typographies(), func(id string) bool { return id == st.SelectedTypography }, false)
	case menuWishes:
		return wishKeyboard(cat, ownerID)
	case menuUploads:
		return uploadsKeyboard(ownerID, st)
	default:
		return mainKeyboard(ownerID, st)
	}
}

func mainKeyboard(ownerID int64, st envelope.State) tgbotapi.InlineKeyboardMarkup {
	frontText := sideLabel(envelope.SideFront)
	backText := sideLabel(envelope.SideBack)
	if st.Side == envelope.SideBack {
		backText = "✅ " + backText
	} else {
		frontText = "✅ " + frontText
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🎎 Chủ đề", cb(ownerID, "menu", menuConcept)),
			tgbotapi.NewInlineKeyboardButtonData("🐉 Nhân vật", cb(ownerID, "menu", menuCharacters)),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🌸 Họa tiết", cb(ownerID, "menu", menuVectors)),
			tgbotapi.NewInlineKeyboardButtonData("🖋 Kiểu chữ", cb(ownerID, "menu", menuTypography)),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✍️ Lời chúc", cb(ownerID, "greeting")),
			tgbotapi.NewInlineKeyboardButtonData("💬 Mẫu lời chúc", cb(ownerID, "menu", menuWishes)),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🖼 Logo & ảnh", cb(ownerID, "menu", menuUploads)),
			tgbotapi.NewInlineKeyboardButtonData("📄 Prompt", cb(ownerID, "prompt", string(st.Side))),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(frontText, cb(ownerID, "side", string(envelope.SideFront))),
			tgbotapi.NewInlineKeyboardButtonData(backText, cb(ownerID, "side", string(envelope.SideBack))),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🎨 Tạo mặt trước", cb(ownerID, "gen", string(envelope.SideFront))),
			tgbotapi.NewInlineKeyboardButtonData("🎨 Tạo mặt sau", cb(ownerID, "gen", string(envelope.SideBack))),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🎨 Tạo cả hai", cb(ownerID, "gen", "both")),
			tgbotapi.NewInlineKeyboardButtonData("⬇️ Tải về", cb(ownerID, "dl")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Làm lại", cb(ownerID, "reset")),
			tgbotapi.NewInlineKeyboardButtonData("Đóng", cb(ownerID, "close")),
		},
	)
}

func conceptKeyboard(cat *envelope.Catalog, ownerID int64, st envelope.State) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range cat.Concepts() {
		label := c.Name
		if c.ID == st.ActiveConcept {
			label = "✅ " + label
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "concept", c.ID)),
		})
	}
	rows = append(rows, backRow(ownerID))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func optionKeyboard(ownerID int64, action string, opts []envelope.SelectionOption, selected func(string) bool, multi bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, opt := range opts {
		label := opt.Label
		switch {
		case selected(opt.ID):
			label = "✅ " + label
		case multi:
			label = "⬜ " + label
		}

		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, action, opt.ID)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, backRow(ownerID))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func wishKeyboard(cat *envelope.Catalog, ownerID int64) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, wish := range cat.Wishes() {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(truncateLine(wish, 48), cb(ownerID, "wish", strconv.Itoa(i))),
		})
	}
	rows = append(rows, backRow(ownerID))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func uploadsKeyboard(ownerID int64, st envelope.State) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("🏷 Gửi logo", cb(ownerID, "upload", "logo")),
			tgbotapi.NewInlineKeyboardButtonData("📷 Gửi ảnh cá nhân", cb(ownerID, "upload", "photo")),
		},
	}

	var clearRow []tgbotapi.InlineKeyboardButton
	if st.Logo != nil {
		clearRow = append(clearRow, tgbotapi.NewInlineKeyboardButtonData("🗑 Xóa logo", cb(ownerID, "clear", "logo")))
	}
	if st.PersonalPhoto != nil {
		clearRow = append(clearRow, tgbotapi.NewInlineKeyboardButtonData("🗑 Xóa ảnh", cb(ownerID, "clear", "photo")))
	}
	if len(clearRow) > 0 {
		rows = append(rows, clearRow)
	}

	rows = append(rows, backRow(ownerID))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backRow(ownerID int64) []tgbotapi.InlineKeyboardButton {
	return []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅ Quay lại", cb(ownerID, "menu", menuMain)),
	}
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", wizardCallbackPrefix, ownerID, strings.Join(parts, ":"))
}

func sideLabel(side envelope.Side) string {
	if side == envelope.SideBack {
		return "Mặt sau"
	}
	return "Mặt trước"
}

func mark(v bool) string {
	if v {
		return "✅"
	}
	return "—"
}

func truncateLine(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
