package model

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const ThumbnailSize = 96

// DeriveThumbnail 从原图生成缩略图：居中裁剪为正方形后缩放到 ThumbnailSize
// 无法解码时原样返回 photo
func DeriveThumbnail(photo []byte) []byte {
	if len(photo) == 0 {
		return nil
	}
	src, _, err := image.Decode(bytes.NewReader(photo))
	if err != nil {
		return photo
	}

	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	if side == 0 {
		return photo
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	size := ThumbnailSize
	if side < size {
		size = side
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return photo
	}
	return buf.Bytes()
}
