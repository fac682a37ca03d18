package zstd

import (
	"github.com/klauspost/compress/zstd"
)

var (
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
)

func Compress(src []byte) []byte {
	return encoder.EncodeAll(src, make([]byte, 0, len(src)))
}

func Decompress(src []byte) ([]byte, error) {
	return decoder.DecodeAll(src, nil)
}
