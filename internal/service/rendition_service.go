package service

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrInvalidFilter 表示无法解析的 rendition 规格
	ErrInvalidFilter = errors.New("invalid rendition filter")
	// ErrImageNotFound 表示源图片不在上传目录中
	ErrImageNotFound = errors.New("source image not found")
)

// ThumbFilter is the rendition used for person thumbnails.
const ThumbFilter = "fill-50x50"

const (
	filterFill = "fill"
	filterMax  = "max"
)

// Filter is a parsed rendition filter such as "fill-50x50".
type Filter struct {
	Mode   string
	Width  int
	Height int
}

// String renders the filter in its "mode-WxH" form.
func (f Filter) String() string {
	return fmt.Sprintf("%s-%dx%d", f.Mode, f.Width, f.Height)
}

// Rendition 描述一张已生成的缩略图
type Rendition struct {
	URL    string
	Width  int
	Height int
}

// RenditionService 负责把上传的图片按规格裁剪缩放并缓存到磁盘
type RenditionService struct {
	sourceDir string
	sourceURL string
	cacheDir  string
	cacheURL  string
}

// NewRenditionService maps images under sourceURL to files in sourceDir and
// writes renditions to cacheDir, served from cacheURL.
func NewRenditionService(sourceDir, sourceURL, cacheDir, cacheURL string) *RenditionService {
	return &RenditionService{
		sourceDir: sourceDir,
		sourceURL: strings.TrimSuffix(sourceURL, "/"),
		cacheDir:  cacheDir,
		cacheURL:  strings.TrimSuffix(cacheURL, "/"),
	}
}

// ParseFilter parses "fill-WxH" or "max-WxH".
func ParseFilter(raw string) (Filter, error) {
	mode, size, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok || (mode != filterFill && mode != filterMax) {
		return Filter{}, ErrInvalidFilter
	}
	rawW, rawH, ok := strings.Cut(size, "x")
	if !ok {
		return Filter{}, ErrInvalidFilter
	}
	width, err := strconv.Atoi(rawW)
	if err != nil || width < 1 {
		return Filter{}, ErrInvalidFilter
	}
	height, err := strconv.Atoi(rawH)
	if err != nil || height < 1 {
		return Filter{}, ErrInvalidFilter
	}
	return Filter{Mode: mode, Width: width, Height: height}, nil
}

// Get returns the rendition of imageURL for a filter string, generating it on first use.
func (s *RenditionService) Get(imageURL, rawFilter string) (Rendition, error) {
	filter, err := ParseFilter(rawFilter)
	if err != nil {
		return Rendition{}, err
	}

	source, err := s.sourcePath(imageURL)
	if err != nil {
		return Rendition{}, err
	}
	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return Rendition{}, ErrImageNotFound
		}
		return Rendition{}, err
	}

	ext := strings.ToLower(filepath.Ext(source))
	outExt := ".png"
	if ext == ".jpg" || ext == ".jpeg" {
		outExt = ".jpg"
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%d|%s", source, info.Size(), info.ModTime().UnixNano(), filter)))
	name := hex.EncodeToString(sum[:])[:20] + "." + filter.String() + outExt
	target := filepath.Join(s.cacheDir, name)

	if cached, err := readImageSize(target); err == nil {
		return Rendition{URL: s.cacheURL + "/" + name, Width: cached.X, Height: cached.Y}, nil
	}

	img, err := decodeImage(source)
	if err != nil {
		return Rendition{}, err
	}
	out := resize(img, filter)
	if err := writeImageAtomic(target, out, outExt); err != nil {
		return Rendition{}, err
	}

	bounds := out.Bounds()
	return Rendition{URL: s.cacheURL + "/" + name, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// ThumbImage 返回 fill-50x50 缩略图的 img 标签，任何失败都返回空字符串。
func (s *RenditionService) ThumbImage(imageURL, alt string) template.HTML {
	if strings.TrimSpace(imageURL) == "" {
		return ""
	}
	rendition, err := s.Get(imageURL, ThumbFilter)
	if err != nil {
		return ""
	}
	return template.HTML(fmt.Sprintf(`<img src="%s" width="%d" height="%d" alt="%s">`,
		template.HTMLEscapeString(rendition.URL), rendition.Width, rendition.Height, template.HTMLEscapeString(alt)))
}

func (s *RenditionService) sourcePath(imageURL string) (string, error) {
	trimmed := strings.TrimSpace(imageURL)
	prefix := s.sourceURL + "/"
	if !strings.HasPrefix(trimmed, prefix) {
		return "", ErrImageNotFound
	}
	rel := path.Clean("/" + strings.TrimPrefix(trimmed, prefix))
	if rel == "/" {
		return "", ErrImageNotFound
	}
	return filepath.Join(s.sourceDir, filepath.FromSlash(strings.TrimPrefix(rel, "/"))), nil
}

// resize 按规格缩放：fill 先按比例裁剪中心区域再缩放，max 等比缩放到框内且不放大
func resize(src image.Image, filter Filter) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	crop := bounds
	width, height := filter.Width, filter.Height
	switch filter.Mode {
	case filterFill:
		// 以较小的缩放比例为准裁出目标宽高比
		if srcW*filter.Height > srcH*filter.Width {
			cropW := srcH * filter.Width / filter.Height
			offset := (srcW - cropW) / 2
			crop = image.Rect(bounds.Min.X+offset, bounds.Min.Y, bounds.Min.X+offset+cropW, bounds.Max.Y)
		} else {
			cropH := srcW * filter.Height / filter.Width
			offset := (srcH - cropH) / 2
			crop = image.Rect(bounds.Min.X, bounds.Min.Y+offset, bounds.Max.X, bounds.Min.Y+offset+cropH)
		}
		if crop.Dx() < width {
			width, height = crop.Dx(), crop.Dy()
		}
	case filterMax:
		width, height = srcW, srcH
		if width > filter.Width {
			height = height * filter.Width / width
			width = filter.Width
		}
		if height > filter.Height {
			width = width * filter.Height / height
			height = filter.Height
		}
		width, height = max(width, 1), max(height, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func readImageSize(path string) (image.Point, error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Point{}, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return image.Point{}, err
	}
	return image.Point{X: cfg.Width, Y: cfg.Height}, nil
}

// writeImageAtomic 编码后原子替换目标文件，并发生成同一张图时互不干扰
func writeImageAtomic(target string, img image.Image, ext string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	var err error
	if ext == ".jpg" {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return fmt.Errorf("encode rendition: %w", err)
	}
	if err := atomic.WriteFile(target, &buf); err != nil {
		return fmt.Errorf("write rendition: %w", err)
	}
	return nil
}
