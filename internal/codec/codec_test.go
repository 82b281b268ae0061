package codec

import (
	"errors"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"classified corrupt", &Error{Kind: KindCorrupt, Message: "truncated"}, KindCorrupt},
		{"classified unsupported", &Error{Kind: KindUnsupported, Message: "no loader"}, KindUnsupported},
		{"classified encode", &Error{Kind: KindEncode, Message: "write failed"}, KindEncode},
		{"plain error defaults to io", errors.New("something"), KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyDecodeError(t *testing.T) {
	base := errors.New("exit status 1")

	tests := []struct {
		name   string
		stderr string
		want   Kind
	}{
		{"unknown format", "vipsforeignload: \"x.cr2\" is not a known file format", KindUnsupported},
		{"no loader", "VipsForeignLoad: no known loader for file", KindUnsupported},
		{"unsupported", "unsupported image type", KindUnsupported},
		{"truncated", "read error: truncated file", KindCorrupt},
		{"corrupt", "tiff2vips: corrupt directory entry", KindCorrupt},
		{"premature end", "premature end of data segment", KindCorrupt},
		{"bad header", "dcrawload: bad header magic", KindCorrupt},
		{"unclassified", "out of order read", KindIO},
		{"empty stderr", "", KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyDecodeError(base, tt.stderr)
			if got.Kind != tt.want {
				t.Errorf("classifyDecodeError() kind = %v, want %v", got.Kind, tt.want)
			}
			if got.Message == "" {
				t.Error("сообщение об ошибке не должно быть пустым")
			}
		})
	}
}

func TestPixelBuffer_CloseEmpty(t *testing.T) {
	// Пустой буфер безопасен: Close ничего не делает.
	if err := NewPixelBuffer("").Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}

	var nilBuf *PixelBuffer
	if err := nilBuf.Close(); err != nil {
		t.Errorf("nil Close() error = %v, want nil", err)
	}
}
