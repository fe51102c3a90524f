package hud

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// glyph is one shaped glyph of a label, positioned in pixels from the
// label origin.
type glyph struct {
	id      font.GID
	x       float64
	advance float64
}

// shaper shapes HUD labels with the Go Regular face.
//
// The parsed font is shared. A face and a HarfbuzzShaper are not safe for
// concurrent use, so shaper serializes Shape calls.
type shaper struct {
	mu   sync.Mutex
	face *font.Face
	hb   shaping.HarfbuzzShaper
}

var (
	goRegularOnce sync.Once
	goRegular     *font.Font
	goRegularErr  error
)

func loadGoRegular() (*font.Font, error) {
	goRegularOnce.Do(func() {
		face, err := font.ParseTTF(bytes.NewReader(goregular.TTF))
		if err != nil {
			goRegularErr = fmt.Errorf("hud: parse Go Regular: %w", err)
			return
		}
		goRegular = face.Font
	})
	return goRegular, goRegularErr
}

func newShaper() (*shaper, error) {
	f, err := loadGoRegular()
	if err != nil {
		return nil, err
	}
	return &shaper{face: font.NewFace(f)}, nil
}

// shape lays out s on one line at size pixels.
func (s *shaper) shape(text string, size float64) (glyphs []glyph, width float64) {
	if text == "" {
		return nil, 0
	}
	runes := []rune(text)

	s.mu.Lock()
	out := s.hb.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      s.face,
		Size:      fixed.Int26_6(size * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})
	s.mu.Unlock()

	glyphs = make([]glyph, len(out.Glyphs))
	var x float64
	for i, g := range out.Glyphs {
		adv := float64(g.Advance) / 64
		glyphs[i] = glyph{id: g.GlyphID, x: x + float64(g.XOffset)/64, advance: adv}
		x += adv
	}
	return glyphs, x
}
