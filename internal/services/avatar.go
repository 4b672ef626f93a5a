package services

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

const avatarSize = 256

var defaultAvatarColors = []string{
	"#1ABC9C", "#2ECC71", "#3498DB", "#9B59B6", "#34495E",
	"#16A085", "#27AE60", "#2980B9", "#8E44AD", "#2C3E50",
	"#F39C12", "#E67E22", "#E74C3C", "#D35400", "#C0392B",
}

type AvatarConfig struct {
	// FontPath is a TTF file; the embedded Go font is used when empty.
	FontPath string
	// Colors are "#RRGGBB" background choices.
	Colors []string
}

type AvatarService interface {
	// PickColor returns a palette color derived from seed, stable across calls.
	PickColor(seed string) string
	// ValidColor normalizes hex and reports whether it is in the palette.
	ValidColor(hex string) (string, bool)
	Render(user *types.User) ([]byte, error)
}

type avatarService struct {
	log *logger.Logger

	bgColors   []color.NRGBA
	colorByHex map[string]color.NRGBA
	colorHexes []string

	// truetype faces keep a glyph cache and are not safe for concurrent use.
	mu       sync.Mutex
	fontFace font.Face
}

func NewAvatarService(log *logger.Logger, cfg AvatarConfig) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	hexes := cfg.Colors
	if len(hexes) == 0 {
		hexes = defaultAvatarColors
	}
	colorByHex := make(map[string]color.NRGBA, len(hexes))
	colorHexes := make([]string, 0, len(hexes))
	bgColors := make([]color.NRGBA, 0, len(hexes))
	for _, h := range hexes {
		n := normalizeHex(h)
		if n == "" {
			return nil, fmt.Errorf("invalid avatar color %q", h)
		}
		if _, dup := colorByHex[n]; dup {
			continue
		}
		r, g, b, _ := parseHexRGB(n)
		c := color.NRGBA{R: r, G: g, B: b, A: 255}
		colorByHex[n] = c
		colorHexes = append(colorHexes, n)
		bgColors = append(bgColors, c)
	}

	fontBytes := goregular.TTF
	if strings.TrimSpace(cfg.FontPath) != "" {
		serviceLog.Info("Loading avatar font", "font", cfg.FontPath)
		raw, err := os.ReadFile(cfg.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		fontBytes = raw
	}
	face, err := loadFontFace(fontBytes, avatarSize*0.4)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:        serviceLog,
		bgColors:   bgColors,
		colorByHex: colorByHex,
		colorHexes: colorHexes,
		fontFace:   face,
	}, nil
}

func (as *avatarService) PickColor(seed string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return as.colorHexes[int(h.Sum32()%uint32(len(as.colorHexes)))]
}

func (as *avatarService) ValidColor(hexStr string) (string, bool) {
	n := normalizeHex(hexStr)
	if n == "" {
		return "", false
	}
	_, ok := as.colorByHex[n]
	return n, ok
}

func (as *avatarService) Render(user *types.User) ([]byte, error) {
	if user == nil {
		return nil, fmt.Errorf("user required")
	}
	dc := gg.NewContext(avatarSize, avatarSize)

	dc.DrawCircle(avatarSize/2, avatarSize/2, avatarSize/2)
	dc.Clip()

	base, ok := as.colorByHex[normalizeHex(user.AvatarColor)]
	if !ok {
		base = as.colorByHex[as.PickColor(user.ID.String())]
	}
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, avatarSize, avatarSize)
	dc.Fill()

	initials := computeInitials(user.FirstName, user.LastName)

	as.mu.Lock()
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, avatarSize/2, avatarSize/2, 0.5, 0.35)
	as.mu.Unlock()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	s = strings.ToUpper(s)
	if len(s) != 7 {
		return ""
	}
	if _, _, _, err := parseHexRGB(s); err != nil {
		return ""
	}
	return s
}

func parseHexRGB(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid hex")
	}
	return raw[0], raw[1], raw[2], nil
}

func computeInitials(first, last string) string {
	initial := func(s string) string {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
		if r == utf8.RuneError {
			return "?"
		}
		return string(unicode.ToUpper(r))
	}
	return initial(first) + initial(last)
}

func loadFontFace(fontBytes []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
