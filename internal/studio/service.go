package studio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"lixi-studio/internal/envelope"
	"lixi-studio/internal/gemini"
	"lixi-studio/internal/session"
)

const (
	MsgNoImage      = "Không tìm thấy dữ liệu ảnh từ AI."
	MsgGenerateFail = "Lỗi tạo ảnh. Vui lòng thử lại."
	MsgInFlight     = "Đang tạo ảnh cho mặt này, vui lòng đợi."
)

var ErrNoPreview = errors.New("no preview for the current side")

type Generator interface {
	Generate(ctx context.Context, req envelope.Request) (envelope.Image, error)
}

type Options struct {
	Sessions      *session.Store
	Generator     Generator
	Brand         envelope.Brand
	MaxConcurrent int
	Logger        *slog.Logger

	// MinInterval paces calls to the generator. Zero disables pacing.
	MinInterval time.Duration
}

// Service runs the design workflow on top of the session store. Every
// front-end goes through it.
type Service struct {
	sessions *session.Store
	gen      Generator
	brand    envelope.Brand
	sem      chan struct{}
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.Options{})
	}
	brand := opts.Brand
	if brand == (envelope.Brand{}) {
		brand = envelope.DefaultBrand()
	}
	limit := opts.MaxConcurrent
	if limit < 1 {
		limit = 4
	}

	var limiter *rate.Limiter
	if opts.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MinInterval), limit)
	}

	return &Service{
		sessions: sessions,
		gen:      opts.Generator,
		brand:    brand,
		sem:      make(chan struct{}, limit),
		limiter:  limiter,
		logger:   logger,
	}
}

func (s *Service) Catalog() *envelope.Catalog { return s.sessions.Catalog() }

func (s *Service) Brand() envelope.Brand { return s.brand }

func (s *Service) Session(id string) session.Session {
	return s.sessions.Snapshot(id)
}

// Apply runs a selection change. Methods on envelope.State that reject
// their input leave the state untouched, so fn needs no error path.
func (s *Service) Apply(id string, fn func(st *envelope.State, cat *envelope.Catalog)) session.Session {
	cat := s.Catalog()
	return s.sessions.Update(id, func(st *envelope.State) { fn(st, cat) })
}

func (s *Service) Reset(id string) session.Session {
	return s.sessions.Reset(id)
}

func (s *Service) UploadLogo(id string, r io.Reader, contentType string) (session.Session, error) {
	img, err := envelope.ReadUpload(r, contentType)
	if err != nil {
		return session.Session{}, err
	}
	return s.sessions.Update(id, func(st *envelope.State) { st.SetLogo(img) }), nil
}

func (s *Service) UploadPhoto(id string, r io.Reader, contentType string) (session.Session, error) {
	img, err := envelope.ReadUpload(r, contentType)
	if err != nil {
		return session.Session{}, err
	}
	return s.sessions.Update(id, func(st *envelope.State) { st.SetPersonalPhoto(img) }), nil
}

func (s *Service) ClearLogo(id string) session.Session {
	return s.sessions.Update(id, func(st *envelope.State) { st.ClearLogo() })
}

func (s *Service) ClearPhoto(id string) session.Session {
	cat := s.Catalog()
	return s.sessions.Update(id, func(st *envelope.State) { st.ClearPersonalPhoto(cat) })
}

// Request assembles what would be sent for side without calling the API.
func (s *Service) Request(id string, side envelope.Side) envelope.Request {
	sess := s.sessions.Snapshot(id)
	return envelope.Assemble(sess.State, s.Catalog(), s.brand, side)
}

func (s *Service) Prompt(id string, side envelope.Side) string {
	return s.Request(id, side).Instruction()
}

// Generate produces one envelope face. The selection is captured when the
// call starts; the result is stored under that concept and side even if the
// user changes the selection meanwhile.
func (s *Service) Generate(ctx context.Context, id string, side envelope.Side) (envelope.Image, error) {
	if s.gen == nil {
		return envelope.Image{}, errors.New("studio generator is nil")
	}

	release, err := s.sessions.BeginGeneration(id, side)
	if err != nil {
		return envelope.Image{}, err
	}
	defer release()

	s.sessions.SetError(id, "")
	sess := s.sessions.Snapshot(id)
	concept := sess.State.ActiveConcept
	req := envelope.Assemble(sess.State, s.Catalog(), s.brand, side)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return envelope.Image{}, ctx.Err()
	}
	defer func() { <-s.sem }()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return envelope.Image{}, err
		}
	}

	img, err := s.gen.Generate(ctx, req)
	if err != nil {
		kind := "transport"
		if errors.Is(err, gemini.ErrNoImageReturned) {
			kind = "no_image"
		}
		s.logger.Error("envelope generation failed",
			"session", id,
			"concept", concept,
			"side", side,
			"kind", kind,
			"err", err,
		)
		s.sessions.SetError(id, UserMessage(err))
		return envelope.Image{}, err
	}

	s.sessions.Update(id, func(st *envelope.State) {
		st.StoreResult(concept, side, img)
		st.SetSide(side)
	})
	s.logger.Info("envelope generated",
		"session", id,
		"concept", concept,
		"side", side,
		"bytes", len(img.Data),
	)
	return img, nil
}

// GenerateBoth runs front and back concurrently. One side failing does not
// cancel the other; the first error is returned.
func (s *Service) GenerateBoth(ctx context.Context, id string) error {
	var g errgroup.Group
	for _, side := range envelope.Sides() {
		side := side
		g.Go(func() error {
			_, err := s.Generate(ctx, id, side)
			return err
		})
	}
	return g.Wait()
}

// Download returns the preview of the current side with its file name.
func (s *Service) Download(id string) (string, envelope.Image, error) {
	sess := s.sessions.Snapshot(id)
	img, ok := sess.State.Preview()
	if !ok {
		return "", envelope.Image{}, ErrNoPreview
	}
	return envelope.DownloadName(s.brand, sess.State.ActiveConcept, sess.State.Side), img, nil
}

// UserMessage maps a generation error to the short text shown to users.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrGenerationInFlight):
		return MsgInFlight
	case errors.Is(err, gemini.ErrNoImageReturned):
		return MsgNoImage
	default:
		return MsgGenerateFail
	}
}
