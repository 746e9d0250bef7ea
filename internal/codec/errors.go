package codec

import "errors"

// Sentinel errors a caller can match with errors.Is. They are wrapped in
// an *errors.EnhancedError (see codec.go) for component/category tagging,
// so callers should compare against these, not string contents.
var (
	// ErrCorruptedBlob is returned when a stored blob fails its
	// self-delimiting format checks or fails to decode.
	ErrCorruptedBlob = errors.New("codec: corrupted blob")

	// ErrSizeMismatch is returned when a destination buffer or decoded
	// image does not match the codec's configured frame dimensions.
	ErrSizeMismatch = errors.New("codec: size mismatch")

	// ErrFrameTooLarge is returned when neither JPEG nor the raw
	// fallback can represent a frame within MaxCompressedSize.
	ErrFrameTooLarge = errors.New("codec: frame exceeds max compressed size")
)
