package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"lixi-studio/internal/envelope"
	"lixi-studio/internal/mediagroup"
	"lixi-studio/internal/studio"
	"lixi-studio/internal/telegram"
)

// Messenger is the part of the Telegram client the wizard talks to.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTyping(chatID int64)
	SendTextWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) error
	AnswerCallback(callbackID, text string, alert bool) error
	SendPhoto(chatID int64, img envelope.Image, caption string) error
	SendDocument(chatID int64, name string, img envelope.Image, caption string) error
	DownloadImage(ctx context.Context, fileID string) (envelope.Image, error)
}

type Options struct {
	Telegram Messenger
	Studio   *studio.Service
	Logger   *slog.Logger
}

type Handler struct {
	tg         Messenger
	studio     *studio.Service
	wizards    *wizardStore
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:      opts.Telegram,
		studio:  opts.Studio,
		wizards: newWizardStore(),
		logger:  logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func sessionID(chatID, userID int64) string {
	return fmt.Sprintf("tg:%d:%d", chatID, userID)
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(chatID, userID, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, userID, msg)
	}

	if msg.Text != "" {
		return h.handleText(chatID, userID, msg.Text)
	}

	return nil
}

func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if err := h.processAlbum(ctx, group); err != nil {
		h.logger.Error("media group processing failed", "chat_id", group.ChatID, "err", err)
	}
}

func (h *Handler) handleCommand(chatID, userID int64, msg *tgbotapi.Message) error {
	id := sessionID(chatID, userID)

	switch msg.Command() {
	case "start":
		h.wizards.Update(id, func(w *wizardState) { *w = wizardState{Menu: menuMain} })
		if err := h.tg.SendText(chatID,
			"🧧 Lì Xì Studio 2026\n\n"+
				"Thiết kế bao lì xì Tết theo phong cách riêng của bạn.\n"+
				"Chọn chủ đề, nhân vật, họa tiết rồi bấm 🎨 để tạo ảnh.\n\n"+
				"/help - Hướng dẫn",
		); err != nil {
			return err
		}
		return h.renderWizard(chatID, userID, 0, false)
	case "help":
		return h.tg.SendText(chatID,
			"🧧 Hướng dẫn\n\n"+
				"• Gửi ảnh kèm chú thích \"logo\" để đặt logo thương hiệu.\n"+
				"• Gửi ảnh không chú thích để thêm ảnh cá nhân (nhân vật tùy chỉnh).\n"+
				"• Gửi album 2 ảnh: ảnh đầu là logo, ảnh sau là ảnh cá nhân.\n"+
				"• /greeting <lời chúc> - đổi lời chúc mặt trước.\n"+
				"• /reset - làm lại từ đầu.\n"+
				"• /cancel - hủy thao tác đang chờ.",
		)
	case "reset":
		h.studio.Reset(id)
		h.wizards.Update(id, func(w *wizardState) {
			w.Menu = menuMain
			w.Awaiting = awaitNothing
		})
		_ = h.tg.SendText(chatID, "✅ Đã đặt lại thiết kế.")
		return h.renderWizard(chatID, userID, 0, true)
	case "greeting":
		text := strings.TrimSpace(msg.CommandArguments())
		if text == "" {
			h.wizards.Update(id, func(w *wizardState) { w.Awaiting = awaitGreeting })
			return h.tg.SendText(chatID, "✍️ Gửi lời chúc bạn muốn in lên bao (hủy: /cancel).")
		}
		h.studio.Apply(id, func(st *envelope.State, _ *envelope.Catalog) { st.SetGreeting(text) })
		return h.renderWizard(chatID, userID, 0, true)
	case "cancel":
		h.wizards.Update(id, func(w *wizardState) { w.Awaiting = awaitNothing })
		_ = h.tg.SendText(chatID, "❎ Đã hủy.")
		return h.renderWizard(chatID, userID, 0, true)
	default:
		return h.tg.SendText(chatID, "❌ Lệnh không hợp lệ. Dùng /help.")
	}
}

func (h *Handler) handleText(chatID, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	id := sessionID(chatID, userID)
	w := h.wizards.Get(id)
	if w.Awaiting != awaitGreeting {
		return h.tg.SendText(chatID, "ℹ️ Dùng các nút bên dưới hoặc /greeting <lời chúc> để đổi lời chúc.")
	}

	h.studio.Apply(id, func(st *envelope.State, _ *envelope.Catalog) { st.SetGreeting(text) })
	h.wizards.Update(id, func(w *wizardState) { w.Awaiting = awaitNothing })
	return h.renderWizard(chatID, userID, 0, true)
}

func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	photo := msg.Photo[len(msg.Photo)-1]

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			MediaGroupID: msg.MediaGroupID,
			MessageID:    msg.MessageID,
			Caption:      msg.Caption,
			FileID:       photo.FileID,
		})
		return nil
	}

	id := sessionID(chatID, userID)
	kind := uploadKindFor(msg.Caption, h.wizards.Get(id).Awaiting)

	h.tg.SendTyping(chatID)
	img, err := h.tg.DownloadImage(ctx, photo.FileID)
	if err != nil {
		h.logger.Error("photo download failed", "chat_id", chatID, "err", err)
		return h.tg.SendText(chatID, "❌ Không tải được ảnh. Vui lòng gửi lại.")
	}

	h.applyUpload(id, kind, img)
	h.wizards.Update(id, func(w *wizardState) { w.Awaiting = awaitNothing })
	_ = h.tg.SendText(chatID, uploadAck(kind))
	return h.renderWizard(chatID, userID, 0, true)
}

func (h *Handler) processAlbum(ctx context.Context, group mediagroup.Group) error {
	kinds := albumKinds(group.Photos)
	if len(kinds) == 0 {
		return nil
	}

	h.tg.SendTyping(group.ChatID)

	images := make([]envelope.Image, len(kinds))
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range kinds {
		i := i
		fileID := group.Photos[i].FileID
		eg.Go(func() error {
			img, err := h.tg.DownloadImage(egCtx, fileID)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		_ = h.tg.SendText(group.ChatID, "❌ Không tải được ảnh. Vui lòng gửi lại.")
		return err
	}

	id := sessionID(group.ChatID, group.UserID)
	for i, kind := range kinds {
		h.applyUpload(id, kind, images[i])
		_ = h.tg.SendText(group.ChatID, uploadAck(kind))
	}
	if len(group.Photos) > len(kinds) {
		_ = h.tg.SendText(group.ChatID, "ℹ️ Chỉ dùng 2 ảnh đầu tiên của album.")
	}
	h.wizards.Update(id, func(w *wizardState) { w.Awaiting = awaitNothing })
	return h.renderWizard(group.ChatID, group.UserID, 0, true)
}

func (h *Handler) applyUpload(id string, kind uploadKind, img envelope.Image) {
	h.studio.Apply(id, func(st *envelope.State, _ *envelope.Catalog) {
		if kind == uploadLogo {
			st.SetLogo(img)
			return
		}
		st.SetPersonalPhoto(img)
	})
}

func uploadAck(kind uploadKind) string {
	if kind == uploadLogo {
		return "✅ Đã lưu logo."
	}
	return "✅ Đã lưu ảnh cá nhân, nhân vật tùy chỉnh đã được chọn."
}

func (h *Handler) generate(ctx context.Context, chatID, userID int64, sides []envelope.Side) error {
	id := sessionID(chatID, userID)
	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "🎨 Đang tạo bao lì xì, vui lòng đợi…")

	results := make([]envelope.Image, len(sides))
	errs := make([]error, len(sides))
	var eg errgroup.Group
	for i, side := range sides {
		i, side := i, side
		eg.Go(func() error {
			results[i], errs[i] = h.studio.Generate(ctx, id, side)
			return nil
		})
	}
	_ = eg.Wait()

	for i, side := range sides {
		if err := errs[i]; err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if err := h.tg.SendText(chatID, fmt.Sprintf("❌ %s: %s", sideLabel(side), studio.UserMessage(err))); err != nil {
				return err
			}
			continue
		}
		if err := h.tg.SendPhoto(chatID, results[i], "✅ "+sideLabel(side)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) download(chatID, userID int64) error {
	name, img, err := h.studio.Download(sessionID(chatID, userID))
	if err != nil {
		return h.tg.SendText(chatID, "ℹ️ Chưa có ảnh cho mặt này. Bấm 🎨 để tạo.")
	}
	return h.tg.SendDocument(chatID, name, img, name)
}
