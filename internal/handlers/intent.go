package handlers

import (
	"strings"

	"lixi-studio/internal/mediagroup"
)

type uploadKind int

const (
	uploadPhoto uploadKind = iota
	uploadLogo
)

var (
	logoKeywords  = []string{"logo", "thương hiệu", "thuong hieu", "brand"}
	photoKeywords = []string{"ảnh cá nhân", "anh ca nhan", "chân dung", "chan dung", "photo", "selfie", "portrait"}
)

// captionKind reports an explicit upload kind named in a caption.
func captionKind(caption string) (uploadKind, bool) {
	c := strings.ToLower(strings.TrimSpace(caption))
	if c == "" {
		return uploadPhoto, false
	}
	for _, kw := range logoKeywords {
		if strings.Contains(c, kw) {
			return uploadLogo, true
		}
	}
	for _, kw := range photoKeywords {
		if strings.Contains(c, kw) {
			return uploadPhoto, true
		}
	}
	return uploadPhoto, false
}

// uploadKindFor picks the slot for a single photo: caption first, then the
// slot the wizard asked for, otherwise the personal photo.
func uploadKindFor(caption string, awaiting awaitKind) uploadKind {
	if kind, ok := captionKind(caption); ok {
		return kind
	}
	if awaiting == awaitLogo {
		return uploadLogo
	}
	return uploadPhoto
}

// albumKinds assigns at most two album photos. Captioned photos keep their
// kind; the rest fill logo then photo in arrival order.
func albumKinds(photos []mediagroup.Photo) []uploadKind {
	n := len(photos)
	if n > 2 {
		n = 2
	}
	if n == 0 {
		return nil
	}
	if n == 1 {
		kind, _ := captionKind(photos[0].Caption)
		return []uploadKind{kind}
	}

	kinds := make([]uploadKind, n)
	assigned := make([]bool, n)
	taken := map[uploadKind]bool{}
	for i := 0; i < n; i++ {
		if kind, ok := captionKind(photos[i].Caption); ok && !taken[kind] {
			kinds[i] = kind
			assigned[i] = true
			taken[kind] = true
		}
	}

	free := []uploadKind{uploadLogo, uploadPhoto}
	for i := 0; i < n; i++ {
		if assigned[i] {
			continue
		}
		for len(free) > 0 && taken[free[0]] {
			free = free[1:]
		}
		kinds[i] = free[0]
		taken[free[0]] = true
		free = free[1:]
	}
	return kinds
}
