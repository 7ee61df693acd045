// Package phash computes and compares perceptual hashes of submission
// images, backing the pipeline's duplicate detection.
package phash

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/bits"
	"strconv"

	"github.com/corona10/goimagehash"
)

// hashBits is the width of the perceptual hash.
const hashBits = 64

// FromImage decodes the image and returns its perceptual hash as a 16-digit
// hex string.
func FromImage(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("perception hash: %w", err)
	}

	return fmt.Sprintf("%016x", hash.GetHash()), nil
}

// Similarity returns 1 - hammingDistance/64 for two hex-encoded hashes:
// 1.0 means identical, 0.0 means every bit differs.
func Similarity(a, b string) (float64, error) {
	hashA, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", a, err)
	}
	hashB, err := strconv.ParseUint(b, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", b, err)
	}

	distance := bits.OnesCount64(hashA ^ hashB)
	return 1 - float64(distance)/hashBits, nil
}
