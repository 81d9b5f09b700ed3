package canvasrenderer

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/h2non/filetype"
	"github.com/tdewolff/canvas"
	"go.uber.org/zap"

	"github.com/ByLCY/folio/fonts"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/typesetter"
)

const fallbackFamily = "Go"

// FontFile registers one font file under a family, weight and slant.
type FontFile struct {
	Family string
	Weight string
	Italic bool
	Resource
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

type faceKey struct {
	family string
	style  canvas.FontStyle
}

// FontSet resolves layout fonts to canvas font faces. It implements
// typesetter.Measurer; all values it reports are in points.
type FontSet struct {
	baseDir string
	log     *zap.Logger

	mu       sync.Mutex
	families map[faceKey]*canvas.FontFamily
	faces    map[layout.Font]*canvas.FontFace
}

var _ typesetter.Measurer = (*FontSet)(nil)

// NewFontSet creates a font set with the built-in Go fonts registered.
func NewFontSet(baseDir string, log *zap.Logger) *FontSet {
	if log == nil {
		log = zap.NewNop()
	}
	s := &FontSet{
		baseDir:  baseDir,
		log:      log.Named("fonts"),
		families: map[faceKey]*canvas.FontFamily{},
		faces:    map[layout.Font]*canvas.FontFace{},
	}
	for _, f := range fonts.Faces() {
		data, err := fonts.Load(f.Name)
		if err != nil {
			continue
		}
		if err := s.Register(f.Family, f.Weight, f.Italic, data); err != nil {
			s.log.Warn("内置字体注册失败", zap.String("font", f.Name), zap.Error(err))
		}
	}
	return s
}

// Register adds font data to family. Later registrations replace earlier ones.
func (s *FontSet) Register(family, weight string, italic bool, data []byte) error {
	if family == "" {
		return fmt.Errorf("%w: 字体缺少 family", layout.ErrInvalidArgument)
	}
	if !isFont(data) {
		return fmt.Errorf("%w: 字体 %s 不是 ttf/otf/woff 数据", layout.ErrResourceUnreadable, family)
	}
	style := parseFontStyle(weight, italic)
	ff := canvas.NewFontFamily(family)
	if err := ff.LoadFont(data, 0, style); err != nil {
		return fmt.Errorf("%w: 加载字体 %s 失败: %v", layout.ErrResourceUnreadable, family, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[faceKey{strings.ToLower(family), style}] = ff
	for font := range s.faces {
		if strings.EqualFold(font.Family, family) {
			delete(s.faces, font)
		}
	}
	s.log.Debug("注册字体", zap.String("family", family), zap.String("weight", weight), zap.Bool("italic", italic))
	return nil
}

// RegisterFile loads a FontFile from bytes, an embed: name or a path relative
// to the base directory.
func (s *FontSet) RegisterFile(f FontFile) error {
	data, err := s.loadBytes(f.Resource)
	if err != nil {
		return err
	}
	return s.Register(f.Family, f.Weight, f.Italic, data)
}

func (s *FontSet) loadBytes(res Resource) ([]byte, error) {
	if len(res.Bytes) > 0 {
		return res.Bytes, nil
	}
	if res.Path == "" {
		return nil, fmt.Errorf("%w: 字体缺少 src", layout.ErrInvalidArgument)
	}
	if strings.HasPrefix(res.Path, "embed:") {
		return fonts.Load(res.Path)
	}
	path := res.Path
	if !filepath.IsAbs(path) {
		if s.baseDir == "" {
			return nil, fmt.Errorf("%w: 未指定资源目录时不允许直接使用字体路径：%s", layout.ErrInvalidArgument, res.Path)
		}
		path = filepath.Join(s.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取字体 %s 失败: %v", layout.ErrResourceUnreadable, res.Path, err)
	}
	return data, nil
}

func isFont(data []byte) bool {
	for _, ext := range []string{"ttf", "otf", "woff", "woff2"} {
		if filetype.Is(data, ext) {
			return true
		}
	}
	return false
}

// Has reports whether family has at least one registered face.
func (s *FontSet) Has(family string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.families {
		if k.family == strings.ToLower(family) {
			return true
		}
	}
	return false
}

// face returns a canvas face for font, substituting the closest registered
// style and finally the built-in Go family.
func (s *FontSet) face(font layout.Font) (*canvas.FontFace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.faces[font]; ok {
		return f, nil
	}
	style := parseFontStyle(font.Weight, font.Italic)
	slant := style & canvas.FontItalic
	candidates := []faceKey{
		{strings.ToLower(font.Family), style},
		{strings.ToLower(font.Family), canvas.FontRegular | slant},
		{strings.ToLower(font.Family), canvas.FontRegular},
		{strings.ToLower(fallbackFamily), nearestGoStyle(style)},
		{strings.ToLower(fallbackFamily), canvas.FontRegular},
	}
	for i, k := range candidates {
		ff, ok := s.families[k]
		if !ok {
			continue
		}
		if i > 0 {
			s.log.Debug("字体替换", zap.Stringer("font", font), zap.String("family", k.family))
		}
		face := ff.Face(font.Size, color.Black, k.style, canvas.FontNormal)
		s.faces[font] = face
		return face, nil
	}
	return nil, fmt.Errorf("%w: 找不到字体 %s", layout.ErrInvalidStyle, font)
}

func nearestGoStyle(style canvas.FontStyle) canvas.FontStyle {
	slant := style & canvas.FontItalic
	switch style &^ canvas.FontItalic {
	case canvas.FontSemiBold, canvas.FontBold, canvas.FontExtraBold, canvas.FontBlack:
		return canvas.FontBold | slant
	case canvas.FontMedium:
		return canvas.FontMedium | slant
	default:
		return canvas.FontRegular | slant
	}
}

// Metrics implements typesetter.Measurer.
func (s *FontSet) Metrics(font layout.Font) (layout.FontMetrics, error) {
	face, err := s.face(font)
	if err != nil {
		return layout.FontMetrics{}, err
	}
	m := face.Metrics()
	return layout.FontMetrics{
		Ascent:     toPt(math.Abs(m.Ascent)),
		Descent:    toPt(math.Abs(m.Descent)),
		LineHeight: toPt(m.LineHeight),
	}, nil
}

// Advance implements typesetter.Measurer.
func (s *FontSet) Advance(font layout.Font, text string) float64 {
	face, err := s.face(font)
	if err != nil {
		return 0
	}
	return toPt(face.TextWidth(text))
}

// Outline implements typesetter.Measurer. Glyph paths are flipped to y-down.
func (s *FontSet) Outline(font layout.Font, text string) (*canvas.Path, error) {
	face, err := s.face(font)
	if err != nil {
		return nil, err
	}
	p, _, err := face.ToPath(text)
	if err != nil {
		return nil, fmt.Errorf("生成字形轮廓失败: %w", err)
	}
	return p.Transform(canvas.Identity.Scale(layout.MmToPt, -layout.MmToPt)), nil
}

func parseFontStyle(weight string, italic bool) canvas.FontStyle {
	var result canvas.FontStyle
	switch strings.ToLower(weight) {
	case "thin":
		result = canvas.FontThin
	case "extralight":
		result = canvas.FontExtraLight
	case "light":
		result = canvas.FontLight
	case "medium":
		result = canvas.FontMedium
	case "semibold":
		result = canvas.FontSemiBold
	case "bold":
		result = canvas.FontBold
	case "extrabold":
		result = canvas.FontExtraBold
	case "black":
		result = canvas.FontBlack
	default:
		result = canvas.FontRegular
	}
	if italic {
		result |= canvas.FontItalic
	}
	return result
}

// toPt converts millimeters to points.
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm converts points to millimeters.
func toMm(pt float64) float64 { return pt * layout.PtToMm }
